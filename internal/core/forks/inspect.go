package forks

import (
	"github.com/aki/forksync/internal/core/git"
)

// CloneInfo describes a clone for listings
type CloneInfo struct {
	Name     string `json:"name" yaml:"name"`
	Path     string `json:"path" yaml:"path"`
	Branch   string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Origin   string `json:"origin,omitempty" yaml:"origin,omitempty"`
	Upstream string `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Inspect reads the checked out branch and remotes of each clone. Clones
// that cannot be read are listed with Error set.
func (e *Engine) Inspect(clones []CloneHandle) []CloneInfo {
	infos := make([]CloneInfo, 0, len(clones))
	for _, clone := range clones {
		info := CloneInfo{Name: clone.Name, Path: clone.Path}

		desc, err := git.Describe(e.opener, clone.Path)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Branch = desc.CurrentBranch
			info.Origin = desc.Remotes["origin"]
			info.Upstream = desc.Remotes[e.remote]
		}

		infos = append(infos, info)
	}
	return infos
}

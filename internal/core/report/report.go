// Package report stores the outcome of the most recent sync run for a clone root.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/core/forks"
	"github.com/aki/forksync/internal/filemanager"
)

// FileName is the report file kept under the root's state directory
const FileName = "last-sync.yaml"

// ErrNoReport is returned by Load when no run has been recorded for the root
var ErrNoReport = errors.New("no sync report found")

// ID identifies one sync run
type ID string

// GenerateID returns a new random run ID
func GenerateID() ID {
	return ID(uuid.New().String())
}

// String returns the string representation of the ID
func (id ID) String() string {
	return string(id)
}

// Short returns the first eight characters of the ID
func (id ID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// ResultRecord is the serialized form of one clone's result
type ResultRecord struct {
	Clone    string              `yaml:"clone" json:"clone"`
	Path     string              `yaml:"path" json:"path"`
	Outcome  forks.Outcome       `yaml:"outcome" json:"outcome"`
	Reason   forks.FailureReason `yaml:"reason,omitempty" json:"reason,omitempty"`
	Error    string              `yaml:"error,omitempty" json:"error,omitempty"`
	Remote   string              `yaml:"remote,omitempty" json:"remote,omitempty"`
	Branch   string              `yaml:"branch,omitempty" json:"branch,omitempty"`
	Before   string              `yaml:"before,omitempty" json:"before,omitempty"`
	After    string              `yaml:"after,omitempty" json:"after,omitempty"`
	Upstream string              `yaml:"upstream,omitempty" json:"upstream,omitempty"`
	Detail   string              `yaml:"detail" json:"detail"`
}

// Report describes one sync run over a clone root
type Report struct {
	ID          ID             `yaml:"id" json:"id"`
	Repository  string         `yaml:"repository" json:"repository"`
	UpstreamURL string         `yaml:"upstreamUrl" json:"upstreamUrl"`
	Root        string         `yaml:"root" json:"root"`
	DryRun      bool           `yaml:"dryRun,omitempty" json:"dryRun,omitempty"`
	StartedAt   time.Time      `yaml:"startedAt" json:"startedAt"`
	FinishedAt  time.Time      `yaml:"finishedAt" json:"finishedAt"`
	Summary     forks.Summary  `yaml:"summary" json:"summary"`
	Results     []ResultRecord `yaml:"results" json:"results"`
}

// New builds a report for results of syncing descriptor's clones under root
func New(descriptor *config.Descriptor, root string, results []forks.Result, started, finished time.Time) *Report {
	r := &Report{
		ID:          GenerateID(),
		Repository:  descriptor.Title,
		UpstreamURL: descriptor.UpstreamURL,
		Root:        root,
		StartedAt:   started,
		FinishedAt:  finished,
		Summary:     forks.Summarize(results),
		Results:     make([]ResultRecord, 0, len(results)),
	}

	for _, res := range results {
		rec := ResultRecord{
			Clone:    res.Clone.Name,
			Path:     res.Clone.Path,
			Outcome:  res.Outcome,
			Reason:   res.Reason,
			Remote:   res.Remote,
			Branch:   res.Branch,
			Before:   res.Before.String(),
			After:    res.After.String(),
			Upstream: res.Upstream.String(),
			Detail:   res.Detail(),
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		r.Results = append(r.Results, rec)
	}

	return r
}

// Duration is the wall time of the run
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists the latest report for one clone root
type Store struct {
	path  string
	files *filemanager.Manager[Report]
}

// NewStore creates a store for reports about clones under root
func NewStore(root string) *Store {
	return &Store{
		path:  filepath.Join(root, forks.StateDir, FileName),
		files: filemanager.NewManager[Report](),
	}
}

// Path returns the report file location
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored report
func (s *Store) Save(ctx context.Context, r *Report) error {
	if err := s.files.Write(ctx, s.path, r); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Load returns the stored report or ErrNoReport
func (s *Store) Load(ctx context.Context) (*Report, error) {
	r, err := s.files.Read(ctx, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoReport
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return r, nil
}

package config

// Descriptor describes one configured repository and the upstream its forks track.
type Descriptor struct {
	Title       string `yaml:"title" json:"title"`
	UpstreamURL string `yaml:"url" json:"url"`
}

// Registry is the loaded set of repository descriptors, keyed by title.
// Titles keep the order in which they appear in the configuration file.
type Registry struct {
	path        string
	titles      []string
	descriptors map[string]Descriptor
}

func newRegistry(path string) *Registry {
	return &Registry{
		path:        path,
		descriptors: make(map[string]Descriptor),
	}
}

func (r *Registry) add(d Descriptor) {
	r.titles = append(r.titles, d.Title)
	r.descriptors[d.Title] = d
}

// Path returns the file the registry was loaded from
func (r *Registry) Path() string {
	return r.path
}

// Len returns the number of configured repositories
func (r *Registry) Len() int {
	return len(r.titles)
}

// Titles returns the configured titles in file order
func (r *Registry) Titles() []string {
	out := make([]string, len(r.titles))
	copy(out, r.titles)
	return out
}

// Get returns the descriptor with the given title
func (r *Registry) Get(title string) (Descriptor, bool) {
	d, ok := r.descriptors[title]
	return d, ok
}

// Descriptors returns all descriptors in file order
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.titles))
	for _, title := range r.titles {
		out = append(out, r.descriptors[title])
	}
	return out
}

// Map returns a copy of the title to descriptor mapping
func (r *Registry) Map() map[string]Descriptor {
	out := make(map[string]Descriptor, len(r.descriptors))
	for k, v := range r.descriptors {
		out[k] = v
	}
	return out
}

// LookupURL finds the descriptor whose upstream URL matches url.
// Several titles may share one URL; the first in file order wins.
func (r *Registry) LookupURL(url string) (Descriptor, bool) {
	want := normalizeURL(url)
	for _, title := range r.titles {
		d := r.descriptors[title]
		if normalizeURL(d.UpstreamURL) == want {
			return d, true
		}
	}
	return Descriptor{}, false
}

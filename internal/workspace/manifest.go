// Package workspace loads the monorepo manifest (nuoa.yaml) describing the
// sub-repositories and their named task commands.
package workspace

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RepoKind distinguishes frontend from backend sub-repositories.
type RepoKind string

const (
	KindFrontend RepoKind = "frontend"
	KindBackend  RepoKind = "backend"
)

// Repo describes one sub-repository of the monorepo.
type Repo struct {
	Name  string            `yaml:"name"`
	Dir   string            `yaml:"dir"`
	Kind  RepoKind          `yaml:"kind"`
	Tasks map[string]string `yaml:"tasks"` // task name → command string
}

// Manifest is the parsed nuoa.yaml.
type Manifest struct {
	Repos []Repo `yaml:"repos"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workspace manifest not found: %s", path)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the manifest for consistency.
func (m *Manifest) Validate() error {
	if len(m.Repos) == 0 {
		return fmt.Errorf("no repos defined")
	}

	seen := make(map[string]bool, len(m.Repos))
	for _, r := range m.Repos {
		if r.Name == "" {
			return fmt.Errorf("repo name is required")
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate repo %q", r.Name)
		}
		seen[r.Name] = true

		if r.Dir == "" {
			return fmt.Errorf("repo %q: dir is required", r.Name)
		}
		switch r.Kind {
		case KindFrontend, KindBackend:
		default:
			return fmt.Errorf("repo %q: unknown kind %q", r.Name, r.Kind)
		}
	}
	return nil
}

// Repo returns the repo with the given name, or nil.
func (m *Manifest) Repo(name string) *Repo {
	for i := range m.Repos {
		if m.Repos[i].Name == name {
			return &m.Repos[i]
		}
	}
	return nil
}

// TaskNames returns the union of task names across all repos, sorted.
func (m *Manifest) TaskNames() []string {
	set := make(map[string]bool)
	for _, r := range m.Repos {
		for name := range r.Tasks {
			set[name] = true
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithTask returns the repos that define the given task, in manifest order.
func (m *Manifest) WithTask(task string) []Repo {
	var result []Repo
	for _, r := range m.Repos {
		if _, ok := r.Tasks[task]; ok {
			result = append(result, r)
		}
	}
	return result
}

// Package skills loads and runs declarative operational skills: reusable
// workflows (deploy, reindex, release checks) described as JSONC files whose
// steps are shell commands with explicit dependencies.
package skills

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcozac/go-jsonc"
)

// Skill represents a declarative skill loaded from JSONC.
type Skill struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     int               `json:"version"`
	Cron        string            `json:"cron,omitempty"` // optional recurring schedule
	Vars        map[string]Var    `json:"vars"`
	Steps       []Step            `json:"steps"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Var describes a skill input variable.
type Var struct {
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default"`
}

// Step describes a single command step in a skill.
type Step struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Run   string            `json:"run"` // POSIX command string
	Dir   string            `json:"dir,omitempty"`
	Env   map[string]string `json:"env,omitempty"`
	Needs []string          `json:"needs,omitempty"`
}

// LoadSkill reads a JSONC skill definition from disk.
func LoadSkill(path string) (*Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill %s: %w", path, err)
	}

	var s Skill
	if err := jsonc.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse skill %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate skill %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the skill definition for consistency.
func (s *Skill) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("skill name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("skill %q: description is required", s.Name)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("skill %q: at least one step is required", s.Name)
	}
	return s.validateSteps()
}

func (s *Skill) validateSteps() error {
	ids := make(map[string]bool, len(s.Steps))

	for _, step := range s.Steps {
		if step.ID == "" {
			return fmt.Errorf("skill %q: step ID is required", s.Name)
		}
		if ids[step.ID] {
			return fmt.Errorf("skill %q: duplicate step ID %q", s.Name, step.ID)
		}
		ids[step.ID] = true
	}

	for _, step := range s.Steps {
		if step.Run == "" {
			return fmt.Errorf("skill %q: step %q requires a run command", s.Name, step.ID)
		}
		for _, need := range step.Needs {
			if !ids[need] {
				return fmt.Errorf("skill %q: step %q depends on unknown step %q", s.Name, step.ID, need)
			}
			if need == step.ID {
				return fmt.Errorf("skill %q: step %q cannot depend on itself", s.Name, step.ID)
			}
		}
	}
	return nil
}

// String returns a human-readable representation of the skill.
func (s *Skill) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	sb.WriteString(fmt.Sprintf(", %d steps", len(s.Steps)))
	if s.Cron != "" {
		sb.WriteString(", cron " + s.Cron)
	}
	return sb.String()
}

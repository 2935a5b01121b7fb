// Package scheduler runs skills on a recurring cron schedule: nightly
// reindexes, hourly log sweeps, scheduled deploys.
package scheduler

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is a persistent schedule entry binding a skill to a cron expression.
type Entry struct {
	ID        string            `json:"id"`
	SkillName string            `json:"skill_name"`
	Vars      map[string]string `json:"vars,omitempty"`
	CronSpec  string            `json:"cron_spec"`
	Enabled   bool              `json:"enabled"`
	CreatedAt time.Time         `json:"created_at"`
	LastRunAt *time.Time        `json:"last_run_at,omitempty"`
}

// GenerateEntryID creates a unique schedule identifier with "sched_" prefix.
func GenerateEntryID() string {
	u := uuid.New().String()
	return "sched_" + strings.ReplaceAll(u[:8], "-", "")
}

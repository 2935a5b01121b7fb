package skills

import (
	"context"
	"strings"
	"testing"
)

func TestRunner_RunsStepsInOrder(t *testing.T) {
	skill := &Skill{
		Name:        "seq",
		Description: "d",
		Steps: []Step{
			{ID: "first", Run: "echo one"},
			{ID: "second", Run: "echo two", Needs: []string{"first"}},
		},
	}

	r, err := NewRunner(skill, "")
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	results, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].StepID != "first" || results[1].StepID != "second" {
		t.Errorf("order = %s, %s", results[0].StepID, results[1].StepID)
	}
}

func TestRunner_VarsAndDefaults(t *testing.T) {
	skill := &Skill{
		Name:        "vars",
		Description: "d",
		Vars: map[string]Var{
			"STAGE":  {Required: true},
			"REGION": {Default: "ap-southeast-1"},
		},
		Steps: []Step{{ID: "show", Run: "echo $STAGE $REGION"}},
	}

	r, err := NewRunner(skill, "")
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := r.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing required var")
	}

	results, err := r.Run(context.Background(), map[string]string{"STAGE": "beta"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(results[0].Output); got != "beta ap-southeast-1" {
		t.Errorf("output = %q", got)
	}
}

func TestRunner_NeededOutputExposed(t *testing.T) {
	skill := &Skill{
		Name:        "pipe",
		Description: "d",
		Steps: []Step{
			{ID: "bucket", Run: "echo nuoa-beta-deployment"},
			{ID: "use", Run: "echo got:$NUOA_STEP_BUCKET", Needs: []string{"bucket"}},
		},
	}

	r, err := NewRunner(skill, "")
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	results, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	last := results[len(results)-1]
	if got := strings.TrimSpace(last.Output); got != "got:nuoa-beta-deployment" {
		t.Errorf("output = %q", got)
	}
}

func TestRunner_FailFast(t *testing.T) {
	skill := &Skill{
		Name:        "fail",
		Description: "d",
		Steps: []Step{
			{ID: "boom", Run: "exit 2"},
			{ID: "after", Run: "echo never", Needs: []string{"boom"}},
		},
	}

	r, err := NewRunner(skill, "")
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	results, err := r.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, res := range results {
		if res.StepID == "after" {
			t.Error("dependent step ran after failure")
		}
	}
}

package skills

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSkill(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write skill: %v", err)
	}
	return path
}

func TestLoadSkill_Valid(t *testing.T) {
	path := writeSkill(t, "deploy.jsonc", `{
		// deploys a lambda bundle
		"name": "deploy-lambda",
		"description": "Build and deploy the tenant service lambda",
		"vars": {
			"STAGE": { "description": "target stage", "required": true }
		},
		"steps": [
			{ "id": "build", "title": "Build bundle", "run": "mvn -q package" },
			{ "id": "deploy", "title": "Deploy", "run": "nuoactl deploy lambda --stage $STAGE --all", "needs": ["build"] }
		]
	}`)

	s, err := LoadSkill(path)
	if err != nil {
		t.Fatalf("LoadSkill: %v", err)
	}
	if s.Name != "deploy-lambda" {
		t.Errorf("name = %q", s.Name)
	}
	if len(s.Steps) != 2 {
		t.Errorf("steps = %d", len(s.Steps))
	}
	if !s.Vars["STAGE"].Required {
		t.Error("STAGE should be required")
	}
}

func TestLoadSkill_MissingRun(t *testing.T) {
	path := writeSkill(t, "bad.jsonc", `{
		"name": "bad",
		"description": "broken",
		"steps": [{ "id": "a", "title": "A" }]
	}`)

	if _, err := LoadSkill(path); err == nil {
		t.Fatal("expected error for step without run")
	}
}

func TestValidate_DuplicateStepID(t *testing.T) {
	s := &Skill{
		Name:        "dup",
		Description: "d",
		Steps: []Step{
			{ID: "a", Run: "true"},
			{ID: "a", Run: "true"},
		},
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected duplicate step error")
	}
}

func TestValidate_UnknownNeed(t *testing.T) {
	s := &Skill{
		Name:        "x",
		Description: "d",
		Steps:       []Step{{ID: "a", Run: "true", Needs: []string{"ghost"}}},
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected unknown dependency error")
	}
}

func TestValidate_SelfDependency(t *testing.T) {
	s := &Skill{
		Name:        "x",
		Description: "d",
		Steps:       []Step{{ID: "a", Run: "true", Needs: []string{"a"}}},
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected self dependency error")
	}
}

func TestValidate_NoSteps(t *testing.T) {
	s := &Skill{Name: "x", Description: "d"}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for empty steps")
	}
}

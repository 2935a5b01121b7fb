// Package plan generates and validates deployment plan files: markdown
// documents with numbered steps that a release operator walks through.
package plan

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

// planTemplate is the standard deployment plan layout.
const planTemplate = `# {{ .Title }}

- Stage: {{ .Stage }}
- Date: {{ .Date }}
{{- if .Owner }}
- Owner: {{ .Owner }}
{{- end }}

## Steps

{{ range $i, $step := .Steps }}{{ add $i 1 }}. {{ $step }}
{{ end }}
## Rollback

1. Re-run the deploy with the previous bundle from the deployment bucket
2. Verify function CodeSha256 matches the previous deployment record
`

// defaultSteps is the checklist used when the caller supplies none.
var defaultSteps = []string{
	"Announce the deployment window",
	"Run the test suite across affected repos",
	"Build the release bundle",
	"Deploy to the target stage with nuoactl deploy lambda",
	"Tail function logs and verify a healthy request",
	"Record the outcome in the deployment history",
}

// Params feed the plan template.
type Params struct {
	Title string
	Stage string
	Owner string
	Steps []string
	Date  time.Time // zero = now
}

// Render produces a plan document from the standard template.
func Render(p Params) (string, error) {
	if p.Title == "" {
		return "", fmt.Errorf("plan title is required")
	}
	if p.Stage == "" {
		p.Stage = "beta"
	}
	if len(p.Steps) == 0 {
		p.Steps = defaultSteps
	}
	date := p.Date
	if date.IsZero() {
		date = time.Now()
	}

	tmpl := template.Must(template.New("plan").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}).Parse(planTemplate))

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, map[string]any{
		"Title": p.Title,
		"Stage": p.Stage,
		"Owner": p.Owner,
		"Steps": p.Steps,
		"Date":  date.Format("2006-01-02"),
	})
	if err != nil {
		return "", fmt.Errorf("render plan: %w", err)
	}
	return buf.String(), nil
}

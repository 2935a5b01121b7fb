package plan

import (
	"fmt"
	"regexp"
	"strings"
)

// minSteps is the minimum number of steps to consider a parsed plan valid.
const minSteps = 2

// numberedItemRe matches numbered list items like "1. ", "2) ".
var numberedItemRe = regexp.MustCompile(`(?m)^(\d+)[.)]\s+(.+)`)

// headerStepRe matches markdown headers like "### Step 1: Title" or "### 1. Title".
var headerStepRe = regexp.MustCompile(`(?m)^###\s+(?:Step\s+)?(\d+)[.:]?\s*(.+)`)

// stepsHeaderRe and sectionHeaderRe delimit the "## Steps" section.
var (
	stepsHeaderRe   = regexp.MustCompile(`(?mi)^##\s+Steps\s*$`)
	sectionHeaderRe = regexp.MustCompile(`(?m)^##\s+`)
)

// Step is one parsed plan step.
type Step struct {
	ID          string
	Title       string
	Description string
}

// Plan is a parsed plan document.
type Plan struct {
	Steps []Step
}

// Parse extracts a structured Plan from a markdown document.
// Returns an error if the document doesn't contain a recognizable plan.
func Parse(markdown string) (*Plan, error) {
	// Try header-based steps first (### Step N: Title)
	if p := parseWith(headerStepRe, markdown); p != nil {
		return p, nil
	}
	if p := parseWith(numberedItemRe, stepsSection(markdown)); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("no plan found: need at least %d steps", minSteps)
}

// stepsSection narrows the document to its "## Steps" section, so numbered
// items elsewhere (rollback checklists, notes) are not counted as plan steps.
// Documents without that section are scanned whole.
func stepsSection(markdown string) string {
	loc := stepsHeaderRe.FindStringIndex(markdown)
	if loc == nil {
		return markdown
	}
	section := markdown[loc[1]:]
	if next := sectionHeaderRe.FindStringIndex(section); next != nil {
		section = section[:next[0]]
	}
	return section
}

func parseWith(re *regexp.Regexp, markdown string) *Plan {
	matches := re.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) < minSteps {
		return nil
	}

	var steps []Step
	for i, match := range matches {
		title := strings.TrimSpace(markdown[match[4]:match[5]])

		// Description: text between this step and the next (or end)
		descStart := match[1]
		descEnd := len(markdown)
		if i+1 < len(matches) {
			descEnd = matches[i+1][0]
		}
		desc := strings.TrimSpace(markdown[descStart:descEnd])

		steps = append(steps, Step{
			ID:          fmt.Sprintf("step_%d", i+1),
			Title:       title,
			Description: desc,
		})
	}
	return &Plan{Steps: steps}
}

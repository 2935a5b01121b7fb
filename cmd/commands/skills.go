package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nuoa-io/nuoactl/internal/skills"
)

// NewSkillsCommand returns the skills subcommand.
func NewSkillsCommand() *cli.Command {
	return &cli.Command{
		Name:  "skills",
		Usage: "List, inspect and run operational skills",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List loaded skills",
				Action: runSkillsList,
			},
			{
				Name:      "show",
				Usage:     "Show a skill's variables and steps",
				ArgsUsage: "<name>",
				Action:    runSkillsShow,
			},
			{
				Name:      "run",
				Usage:     "Run a skill",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "var",
						Usage: "Skill variable as key=value (repeatable)",
					},
				},
				Action: runSkillsRun,
			},
		},
		DefaultCommand: "list",
	}
}

// loadRegistry loads every configured skills directory.
func loadRegistry(cmd *cli.Command) (*skills.Registry, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	reg := skills.NewRegistry()
	for _, dir := range cfg.Skills.Dirs {
		if err := reg.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func runSkillsList(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}

	all := reg.All()
	if len(all) == 0 {
		fmt.Println("No skills found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS\tCRON\tDESCRIPTION")
	for _, sk := range all {
		cron := "-"
		if sk.Cron != "" {
			cron = sk.Cron
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", sk.Name, len(sk.Steps), cron, sk.Description)
	}
	return w.Flush()
}

func runSkillsShow(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: nuoactl skills show <name>")
	}

	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	sk := reg.Get(name)
	if sk == nil {
		return fmt.Errorf("skill %q not found", name)
	}

	fmt.Printf("Name:        %s\n", sk.Name)
	fmt.Printf("Description: %s\n", sk.Description)
	if sk.Cron != "" {
		fmt.Printf("Cron:        %s\n", sk.Cron)
	}

	if len(sk.Vars) > 0 {
		fmt.Println("\nVariables:")
		for varName, v := range sk.Vars {
			req := ""
			if v.Required {
				req = " (required)"
			}
			def := ""
			if v.Default != "" {
				def = fmt.Sprintf(" [default: %s]", v.Default)
			}
			fmt.Printf("  %s%s%s: %s\n", varName, req, def, v.Description)
		}
	}

	fmt.Println("\nSteps:")
	for _, step := range sk.Steps {
		needs := ""
		if len(step.Needs) > 0 {
			needs = fmt.Sprintf(" (needs %s)", strings.Join(step.Needs, ", "))
		}
		fmt.Printf("  %s: %s%s\n", step.ID, step.Title, needs)
		fmt.Printf("    $ %s\n", step.Run)
	}
	return nil
}

func runSkillsRun(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: nuoactl skills run <name> [--var k=v ...]")
	}

	vars, err := parseVars(cmd.StringSlice("var"))
	if err != nil {
		return err
	}

	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	sk := reg.Get(name)
	if sk == nil {
		return fmt.Errorf("skill %q not found", name)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	runner, err := skills.NewRunner(sk, workDir)
	if err != nil {
		return err
	}

	results, err := runner.Run(ctx, vars)
	for _, res := range results {
		fmt.Printf("✓ %s (%s)\n", res.StepID, res.Duration.Round(time.Millisecond))
		if out := strings.TrimSpace(res.Output); out != "" {
			fmt.Println(indent(out, "  "))
		}
	}
	if err != nil {
		return fmt.Errorf("run skill %q: %w", name, err)
	}

	fmt.Printf("Skill %s completed: %d steps.\n", name, len(results))
	return nil
}

// parseVars converts key=value strings to a map.
func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

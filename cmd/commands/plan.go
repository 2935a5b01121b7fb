package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/nuoa-io/nuoactl/internal/plan"
)

// NewPlanCommand returns the plan subcommand.
func NewPlanCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Generate and validate deployment plan files",
		Commands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "Render a new deployment plan",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "stage",
						Usage: "Target stage",
					},
					&cli.StringFlag{
						Name:  "owner",
						Usage: "Plan owner",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the plan to this file instead of stdout",
					},
				},
				Action: runPlanNew,
			},
			{
				Name:      "check",
				Usage:     "Validate a plan file",
				ArgsUsage: "<file>",
				Action:    runPlanCheck,
			},
		},
	}
}

func runPlanNew(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	title := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if title == "" {
		return fmt.Errorf("usage: nuoactl plan new <title> [--stage S] [-o FILE]")
	}

	stage := cmd.String("stage")
	if stage == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		stage = cfg.AWS.Stage
	}

	doc, err := plan.Render(plan.Params{
		Title: title,
		Stage: stage,
		Owner: cmd.String("owner"),
	})
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		fmt.Print(doc)
		return nil
	}
	if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	fmt.Printf("Plan written to %s.\n", output)
	return nil
}

func runPlanCheck(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: nuoactl plan check <file>")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}

	parsed, err := plan.Parse(string(data))
	if err != nil {
		return fmt.Errorf("plan %s: %w", path, err)
	}

	fmt.Printf("Plan %s is valid: %d steps.\n", path, len(parsed.Steps))
	for _, step := range parsed.Steps {
		fmt.Printf("  %s: %s\n", step.ID, step.Title)
	}
	return nil
}

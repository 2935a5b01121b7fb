package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nuoa-io/nuoactl/internal/shell"
	"github.com/nuoa-io/nuoactl/internal/workspace"
)

// NewReposCommand returns the repos subcommand.
func NewReposCommand() *cli.Command {
	return &cli.Command{
		Name:  "repos",
		Usage: "Run named tasks across the monorepo's sub-repositories",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List sub-repositories and their tasks",
				Action: runReposList,
			},
			{
				Name:      "run",
				Usage:     "Run a named task (setup, build, test, lint, ...)",
				ArgsUsage: "<task>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "repo",
						Usage: "Run the task only in this repo",
					},
					&cli.BoolFlag{
						Name:  "keep-going",
						Usage: "Continue with remaining repos after a failure",
					},
				},
				Action: runReposRun,
			},
		},
		DefaultCommand: "list",
	}
}

func loadManifest(cmd *cli.Command) (*workspace.Manifest, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return workspace.Load(cfg.Workspace)
}

func runReposList(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tDIR\tTASKS")
	for _, r := range m.Repos {
		tasks := make([]string, 0, len(r.Tasks))
		for name := range r.Tasks {
			tasks = append(tasks, name)
		}
		sort.Strings(tasks)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Kind, r.Dir, strings.Join(tasks, ","))
	}
	return w.Flush()
}

func runReposRun(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	task := cmd.Args().First()
	if task == "" {
		return fmt.Errorf("usage: nuoactl repos run <task> [--repo NAME] [--keep-going]")
	}
	keepGoing := cmd.Bool("keep-going")

	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}

	repos, err := selectRepos(m, task, cmd.String("repo"))
	if err != nil {
		return err
	}

	var failed []string
	for _, r := range repos {
		if _, err := os.Stat(r.Dir); err != nil {
			if !keepGoing {
				return fmt.Errorf("repo %q: directory %s does not exist", r.Name, r.Dir)
			}
			slog.Warn("repo directory missing, skipping", "repo", r.Name, "dir", r.Dir)
			failed = append(failed, r.Name)
			continue
		}

		slog.Info("running task", "repo", r.Name, "task", task)
		res, err := shell.Run(ctx, shell.Command{Script: r.Tasks[task], Dir: r.Dir})
		if res != nil && res.Output != "" {
			fmt.Print(res.Output)
		}
		if err != nil {
			slog.Error("task failed", "repo", r.Name, "task", task, "error", err)
			failed = append(failed, r.Name)
			if !keepGoing {
				return fmt.Errorf("task %q failed in repo %q: %w", task, r.Name, err)
			}
			continue
		}
		fmt.Printf("✓ %s: %s (%s)\n", r.Name, task, res.Duration.Round(time.Millisecond))
	}

	if len(failed) > 0 {
		return fmt.Errorf("task %q failed in %d of %d repos: %s",
			task, len(failed), len(repos), strings.Join(failed, ", "))
	}
	fmt.Printf("Task %s completed in %d repos.\n", task, len(repos))
	return nil
}

// selectRepos resolves the repo set for a task run: --repo picks one repo,
// which must define the task; otherwise every repo defining it, in order.
func selectRepos(m *workspace.Manifest, task, only string) ([]workspace.Repo, error) {
	if only != "" {
		r := m.Repo(only)
		if r == nil {
			return nil, fmt.Errorf("repo %q not found in workspace", only)
		}
		if _, ok := r.Tasks[task]; !ok {
			return nil, fmt.Errorf("repo %q has no task %q", only, task)
		}
		return []workspace.Repo{*r}, nil
	}

	repos := m.WithTask(task)
	if len(repos) == 0 {
		return nil, fmt.Errorf("no repo defines task %q (known tasks: %s)",
			task, strings.Join(m.TaskNames(), ", "))
	}
	return repos, nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/nuoa-io/nuoactl/internal/config"
	"github.com/nuoa-io/nuoactl/internal/scheduler"
	"github.com/nuoa-io/nuoactl/internal/skills"
)

// NewScheduleCommand returns the schedule subcommand.
func NewScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run skills on a recurring cron schedule",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Schedule a skill",
				ArgsUsage: "<skill>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "cron",
						Usage:    "5-field cron expression",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "var",
						Usage: "Skill variable as key=value (repeatable)",
					},
				},
				Action: runScheduleAdd,
			},
			{
				Name:   "list",
				Usage:  "List schedule entries",
				Action: runScheduleList,
			},
			{
				Name:      "remove",
				Usage:     "Remove a schedule entry",
				ArgsUsage: "<id>",
				Action:    runScheduleRemove,
			},
			{
				Name:  "run",
				Usage: "Run the scheduler loop",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run entries due this minute and exit",
					},
				},
				Action: runScheduleRun,
			},
		},
		DefaultCommand: "list",
	}
}

func newScheduleStore() *scheduler.Store {
	return scheduler.NewStore(filepath.Join(config.NuoaPath(), "schedules"))
}

func runScheduleAdd(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	skillName := cmd.Args().First()
	if skillName == "" {
		return fmt.Errorf("usage: nuoactl schedule add <skill> --cron EXPR")
	}

	cronSpec := cmd.String("cron")
	expr, err := scheduler.ParseCron(cronSpec)
	if err != nil {
		return err
	}

	vars, err := parseVars(cmd.StringSlice("var"))
	if err != nil {
		return err
	}

	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	if reg.Get(skillName) == nil {
		return fmt.Errorf("skill %q not found", skillName)
	}

	entry := &scheduler.Entry{
		SkillName: skillName,
		Vars:      vars,
		CronSpec:  cronSpec,
		Enabled:   true,
	}
	if err := newScheduleStore().Create(entry); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	fmt.Printf("Scheduled %s as %s. Next run: %s.\n",
		skillName, entry.ID, expr.Next(time.Now()).Format("2006-01-02 15:04"))
	return nil
}

func runScheduleList(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	entries, err := newScheduleStore().List()
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No schedules defined.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSKILL\tCRON\tENABLED\tLAST RUN\tNEXT RUN")
	for _, entry := range entries {
		lastRun := "-"
		if entry.LastRunAt != nil {
			lastRun = entry.LastRunAt.Format("2006-01-02 15:04")
		}
		nextRun := "-"
		if expr, err := scheduler.ParseCron(entry.CronSpec); err == nil {
			nextRun = expr.Next(time.Now()).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			entry.ID, entry.SkillName, entry.CronSpec, entry.Enabled, lastRun, nextRun)
	}
	return w.Flush()
}

func runScheduleRemove(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: nuoactl schedule remove <id>")
	}

	if err := newScheduleStore().Remove(id); err != nil {
		return fmt.Errorf("remove schedule: %w", err)
	}
	fmt.Printf("Schedule %s removed.\n", id)
	return nil
}

func runScheduleRun(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	reg, err := loadRegistry(cmd)
	if err != nil {
		return err
	}
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	sched := scheduler.New(newScheduleStore(), func(ctx context.Context, name string, vars map[string]string) error {
		sk := reg.Get(name)
		if sk == nil {
			return fmt.Errorf("skill %q not found", name)
		}
		runner, err := skills.NewRunner(sk, workDir)
		if err != nil {
			return err
		}
		varsCopy := make(map[string]string, len(vars))
		for k, v := range vars {
			varsCopy[k] = v
		}
		_, err = runner.Run(ctx, varsCopy)
		return err
	})

	if cmd.Bool("once") {
		sched.RunDue(ctx, time.Now())
		return nil
	}

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

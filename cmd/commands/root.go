package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/urfave/cli/v3"

	"github.com/nuoa-io/nuoactl/internal/awsx"
	"github.com/nuoa-io/nuoactl/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "nuoactl",
		Usage: "NUOA platform operations CLI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.StringFlag{
				Name:  "profile",
				Usage: "AWS shared-config profile override",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "AWS region override",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewSkillsCommand(),
			NewReposCommand(),
			NewDeployCommand(),
			NewAWSCommand(),
			NewReindexCommand(),
			NewPlanCommand(),
			NewTenantCommand(),
			NewScheduleCommand(),
		},
	}
}

// setupLogging configures the default logger from the --debug flag.
func setupLogging(cmd *cli.Command) {
	level := slog.LevelInfo
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads the config file named by the --config flag.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// awsConfig resolves the AWS config for a stage, with --profile and --region
// taking precedence over the config file.
func awsConfig(ctx context.Context, cmd *cli.Command, cfg *config.Config, stage string) (aws.Config, error) {
	profile := cmd.String("profile")
	if profile == "" {
		profile = cfg.ProfileFor(stage)
	}
	region := cmd.String("region")
	if region == "" {
		region = cfg.AWS.Region
	}
	return awsx.LoadConfig(ctx, profile, region)
}

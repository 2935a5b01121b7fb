package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/urfave/cli/v3"

	"github.com/nuoa-io/nuoactl/internal/config"
	"github.com/nuoa-io/nuoactl/internal/deploy"
)

// NewDeployCommand returns the deploy subcommand.
func NewDeployCommand() *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Deploy Lambda bundles and inspect deployment history",
		Commands: []*cli.Command{
			{
				Name:  "lambda",
				Usage: "Upload a bundle and update the selected Lambda functions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "stage",
						Usage: "Target stage (beta, gamma, prod)",
					},
					&cli.StringFlag{
						Name:  "domain",
						Usage: "Function name substring filter",
					},
					&cli.StringSliceFlag{
						Name:  "artifact",
						Usage: "Artifact glob pattern (repeatable, first match wins)",
					},
					&cli.StringSliceFlag{
						Name:  "function",
						Usage: "Exact function name to update (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Update every function passing the filter",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Show what would happen without uploading or updating",
					},
				},
				Action: runDeployLambda,
			},
			{
				Name:  "history",
				Usage: "Show recorded deployments",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum records to show",
						Value: 10,
					},
				},
				Action: runDeployHistory,
			},
		},
		DefaultCommand: "history",
	}
}

func runDeployLambda(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	stage := cmd.String("stage")
	if stage == "" {
		stage = cfg.AWS.Stage
	}
	artifacts := cmd.StringSlice("artifact")
	if len(artifacts) == 0 {
		artifacts = cfg.Deploy.Artifacts
	}
	if len(artifacts) == 0 {
		return fmt.Errorf("usage: nuoactl deploy lambda --artifact GLOB (or set deploy.artifacts in the config)")
	}

	awsCfg, err := awsConfig(ctx, cmd, cfg, stage)
	if err != nil {
		return err
	}

	clients := deploy.Clients{
		Exports:   cloudformation.NewFromConfig(awsCfg),
		Functions: lambda.NewFromConfig(awsCfg),
		Objects:   s3.NewFromConfig(awsCfg),
	}

	report, runErr := deploy.Run(ctx, clients, deploy.Options{
		Stage:        stage,
		Domain:       cmd.String("domain"),
		Artifacts:    artifacts,
		Functions:    cmd.StringSlice("function"),
		All:          cmd.Bool("all"),
		DryRun:       cmd.Bool("dry-run"),
		BucketExport: cfg.Deploy.BucketExport,
		KeyPrefix:    cfg.Deploy.KeyPrefix,
	})
	if report == nil {
		return runErr
	}

	printDeployReport(report)

	// Discovery-only runs are not recorded.
	if len(report.Selected) > 0 {
		store := deploy.NewHistoryStore(filepath.Join(config.NuoaPath(), "deployments"))
		if rec, err := store.Append(stage, report); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to record deployment: %v\n", err)
		} else {
			fmt.Printf("Recorded deployment %s.\n", rec.ID)
		}
	}
	return runErr
}

func printDeployReport(report *deploy.Report) {
	fmt.Printf("Artifact: %s\n", report.Artifact)
	fmt.Printf("SHA256:   %s\n", report.Hash.Base64)
	fmt.Printf("Bundle:   s3://%s/%s", report.Bucket, report.Key)
	switch {
	case report.Uploaded:
		fmt.Println(" (uploaded)")
	case report.DryRun:
		fmt.Println(" (dry run)")
	default:
		fmt.Println(" (unchanged)")
	}

	if len(report.Selected) == 0 {
		fmt.Printf("\n%d matching functions (none selected; pass --all or --function):\n", len(report.Matches))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tRUNTIME\tLAST MODIFIED")
		for _, fn := range report.Matches {
			fmt.Fprintf(w, "%s\t%s\t%s\n", fn.Name, fn.Runtime, fn.LastModified)
		}
		w.Flush()
		return
	}

	if report.DryRun {
		fmt.Printf("\nWould update %d functions:\n", len(report.Selected))
		for _, name := range report.Selected {
			fmt.Printf("  %s\n", name)
		}
		return
	}

	for _, upd := range report.Updates {
		fmt.Printf("✓ %s (CodeSha256 %s)\n", upd.FunctionName, upd.CodeSha256)
	}
	for name, msg := range report.Failures {
		fmt.Printf("✗ %s: %s\n", name, msg)
	}
}

func runDeployHistory(_ context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	store := deploy.NewHistoryStore(filepath.Join(config.NuoaPath(), "deployments"))
	records, err := store.List(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("list deployments: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No deployments recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTAGE\tARTIFACT\tFUNCTIONS\tSTATUS")
	for _, rec := range records {
		status := "ok"
		switch {
		case rec.DryRun:
			status = "dry-run"
		case len(rec.Failures) > 0:
			status = fmt.Sprintf("%d failed", len(rec.Failures))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.Time.Format("2006-01-02 15:04:05"),
			rec.Stage,
			filepath.Base(rec.Artifact),
			strings.Join(rec.Functions, ","),
			status)
	}
	return w.Flush()
}

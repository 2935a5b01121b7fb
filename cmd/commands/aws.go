package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/urfave/cli/v3"

	"github.com/nuoa-io/nuoactl/internal/awsx"
)

// NewAWSCommand returns the aws subcommand.
func NewAWSCommand() *cli.Command {
	return &cli.Command{
		Name:  "aws",
		Usage: "Inspect AWS resources, functions and logs",
		Commands: []*cli.Command{
			{
				Name:  "resources",
				Usage: "Detect deployed resources per service",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "service",
						Usage: "Service to inspect (lambda, s3, dynamodb, cloudformation, apigateway, all)",
						Value: awsx.ServiceAll,
					},
				},
				Action: runAWSResources,
			},
			{
				Name:  "lambdas",
				Usage: "List Lambda functions passing the domain/stage filter",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "domain",
						Usage: "Function name substring filter",
					},
					&cli.StringFlag{
						Name:  "stage",
						Usage: "Stage substring filter",
					},
				},
				Action: runAWSLambdas,
			},
			{
				Name:  "logs",
				Usage: "Fetch recent CloudWatch logs for a Lambda function",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "function",
						Usage:    "Function name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "since",
						Usage: "Time range: Nm, Nh or Nd",
						Value: "1h",
					},
				},
				Action: runAWSLogs,
			},
		},
		DefaultCommand: "resources",
	}
}

func runAWSResources(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	awsCfg, err := awsConfig(ctx, cmd, cfg, cfg.AWS.Stage)
	if err != nil {
		return err
	}

	api := awsx.DetectAPI{
		Lambda:         lambda.NewFromConfig(awsCfg),
		S3:             s3.NewFromConfig(awsCfg),
		DynamoDB:       dynamodb.NewFromConfig(awsCfg),
		CloudFormation: cloudformation.NewFromConfig(awsCfg),
		APIGateway:     apigateway.NewFromConfig(awsCfg),
	}

	detected, err := awsx.DetectResources(ctx, api, cmd.String("service"))
	if err != nil {
		return err
	}

	services := make([]string, 0, len(detected))
	for name := range detected {
		services = append(services, name)
	}
	sort.Strings(services)

	for _, service := range services {
		resources := detected[service]
		fmt.Printf("%s (%d):\n", service, len(resources))
		for _, r := range resources {
			fmt.Printf("  %s%s\n", r.Name, formatDetail(r.Detail))
		}
		fmt.Println()
	}
	return nil
}

func formatDetail(detail map[string]string) string {
	if len(detail) == 0 {
		return ""
	}
	keys := make([]string, 0, len(detail))
	for k := range detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+detail[k])
	}
	return " (" + strings.Join(parts, " ") + ")"
}

func runAWSLambdas(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	stage := cmd.String("stage")
	awsCfg, err := awsConfig(ctx, cmd, cfg, stage)
	if err != nil {
		return err
	}

	functions, err := awsx.ListFunctions(ctx, lambda.NewFromConfig(awsCfg), awsx.FunctionFilter{
		Domain: cmd.String("domain"),
		Stage:  stage,
	})
	if err != nil {
		return err
	}
	if len(functions) == 0 {
		fmt.Println("No matching functions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRUNTIME\tLAST MODIFIED")
	for _, fn := range functions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", fn.Name, fn.Runtime, fn.LastModified)
	}
	return w.Flush()
}

func runAWSLogs(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	within, err := awsx.ParseRange(cmd.String("since"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	awsCfg, err := awsConfig(ctx, cmd, cfg, cfg.AWS.Stage)
	if err != nil {
		return err
	}

	events, err := awsx.FetchFunctionLogs(ctx, cloudwatchlogs.NewFromConfig(awsCfg), cmd.String("function"), within)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No log events in range.")
		return nil
	}

	for _, ev := range events {
		fmt.Printf("%s %s\n", ev.Timestamp.Format("2006-01-02 15:04:05"), strings.TrimRight(ev.Message, "\n"))
	}
	return nil
}

package awsx

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Detection service names accepted by DetectResources.
const (
	ServiceLambda         = "lambda"
	ServiceS3             = "s3"
	ServiceDynamoDB       = "dynamodb"
	ServiceCloudFormation = "cloudformation"
	ServiceAPIGateway     = "apigateway"
	ServiceAll            = "all"
)

// completedStackStatuses filters stack listings to stacks in a settled state.
var completedStackStatuses = []cfntypes.StackStatus{
	cfntypes.StackStatusCreateComplete,
	cfntypes.StackStatusUpdateComplete,
	cfntypes.StackStatusUpdateRollbackComplete,
	cfntypes.StackStatusImportComplete,
	cfntypes.StackStatusImportRollbackComplete,
}

// Resource is one detected resource with service-specific detail fields.
type Resource struct {
	Name   string
	Detail map[string]string
}

// DetectAPI bundles the per-service surfaces used by resource detection.
type DetectAPI struct {
	Lambda interface {
		ListFunctions(ctx context.Context, params *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error)
	}
	S3 interface {
		ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	}
	DynamoDB interface {
		ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
		DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	}
	CloudFormation interface {
		ListStacks(ctx context.Context, params *cloudformation.ListStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ListStacksOutput, error)
	}
	APIGateway interface {
		GetRestApis(ctx context.Context, params *apigateway.GetRestApisInput, optFns ...func(*apigateway.Options)) (*apigateway.GetRestApisOutput, error)
	}
}

// DetectResources lists resources for one service, or all of them.
// The result maps service name to detected resources.
func DetectResources(ctx context.Context, api DetectAPI, service string) (map[string][]Resource, error) {
	result := make(map[string][]Resource)

	run := func(name string, fn func(context.Context) ([]Resource, error)) error {
		if service != ServiceAll && service != name {
			return nil
		}
		items, err := fn(ctx)
		if err != nil {
			return fmt.Errorf("detect %s: %w", name, err)
		}
		result[name] = items
		return nil
	}

	steps := []struct {
		name string
		fn   func(context.Context) ([]Resource, error)
	}{
		{ServiceLambda, api.detectFunctions},
		{ServiceS3, api.detectBuckets},
		{ServiceDynamoDB, api.detectTables},
		{ServiceCloudFormation, api.detectStacks},
		{ServiceAPIGateway, api.detectRestAPIs},
	}

	known := service == ServiceAll
	for _, step := range steps {
		if service == step.name {
			known = true
		}
		if err := run(step.name, step.fn); err != nil {
			return nil, err
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown service %q", service)
	}

	return result, nil
}

func (api DetectAPI) detectFunctions(ctx context.Context) ([]Resource, error) {
	var resources []Resource
	var marker *string
	for {
		out, err := api.Lambda.ListFunctions(ctx, &lambda.ListFunctionsInput{Marker: marker})
		if err != nil {
			return nil, err
		}
		for _, fn := range out.Functions {
			resources = append(resources, Resource{
				Name: aws.ToString(fn.FunctionName),
				Detail: map[string]string{
					"runtime":       string(fn.Runtime),
					"arn":           aws.ToString(fn.FunctionArn),
					"last_modified": aws.ToString(fn.LastModified),
				},
			})
		}
		if out.NextMarker == nil {
			break
		}
		marker = out.NextMarker
	}
	return resources, nil
}

func (api DetectAPI) detectBuckets(ctx context.Context) ([]Resource, error) {
	out, err := api.S3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}
	var resources []Resource
	for _, b := range out.Buckets {
		detail := map[string]string{}
		if b.CreationDate != nil {
			detail["created"] = b.CreationDate.Format(time.RFC3339)
		}
		resources = append(resources, Resource{Name: aws.ToString(b.Name), Detail: detail})
	}
	return resources, nil
}

func (api DetectAPI) detectTables(ctx context.Context) ([]Resource, error) {
	var resources []Resource
	var start *string
	for {
		out, err := api.DynamoDB.ListTables(ctx, &dynamodb.ListTablesInput{ExclusiveStartTableName: start})
		if err != nil {
			return nil, err
		}
		for _, name := range out.TableNames {
			detail := map[string]string{"status": "unknown"}
			desc, err := api.DynamoDB.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
			if err == nil && desc.Table != nil {
				detail["status"] = string(desc.Table.TableStatus)
				detail["items"] = fmt.Sprintf("%d", aws.ToInt64(desc.Table.ItemCount))
				detail["size_bytes"] = fmt.Sprintf("%d", aws.ToInt64(desc.Table.TableSizeBytes))
			}
			resources = append(resources, Resource{Name: name, Detail: detail})
		}
		if out.LastEvaluatedTableName == nil {
			break
		}
		start = out.LastEvaluatedTableName
	}
	return resources, nil
}

func (api DetectAPI) detectStacks(ctx context.Context) ([]Resource, error) {
	var resources []Resource
	var token *string
	for {
		out, err := api.CloudFormation.ListStacks(ctx, &cloudformation.ListStacksInput{
			StackStatusFilter: completedStackStatuses,
			NextToken:         token,
		})
		if err != nil {
			return nil, err
		}
		for _, s := range out.StackSummaries {
			detail := map[string]string{"status": string(s.StackStatus)}
			if s.CreationTime != nil {
				detail["created"] = s.CreationTime.Format(time.RFC3339)
			}
			resources = append(resources, Resource{Name: aws.ToString(s.StackName), Detail: detail})
		}
		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return resources, nil
}

func (api DetectAPI) detectRestAPIs(ctx context.Context) ([]Resource, error) {
	var resources []Resource
	var position *string
	for {
		out, err := api.APIGateway.GetRestApis(ctx, &apigateway.GetRestApisInput{Position: position})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			detail := map[string]string{"id": aws.ToString(item.Id)}
			if item.CreatedDate != nil {
				detail["created"] = item.CreatedDate.Format(time.RFC3339)
			}
			resources = append(resources, Resource{Name: aws.ToString(item.Name), Detail: detail})
		}
		if out.Position == nil {
			break
		}
		position = out.Position
	}
	return resources, nil
}

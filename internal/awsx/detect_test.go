package awsx

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	apitypes "github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeDetectLambda struct {
	pages [][]lambdatypes.FunctionConfiguration
	calls int
}

func (f *fakeDetectLambda) ListFunctions(_ context.Context, _ *lambda.ListFunctionsInput, _ ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error) {
	page := f.pages[f.calls]
	f.calls++

	out := &lambda.ListFunctionsOutput{Functions: page}
	if f.calls < len(f.pages) {
		out.NextMarker = aws.String("next")
	}
	return out, nil
}

type fakeDetectS3 struct {
	buckets []s3types.Bucket
}

func (f *fakeDetectS3) ListBuckets(_ context.Context, _ *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	return &s3.ListBucketsOutput{Buckets: f.buckets}, nil
}

type fakeDetectDynamoDB struct {
	tables map[string]*ddbtypes.TableDescription
}

func (f *fakeDetectDynamoDB) ListTables(_ context.Context, _ *dynamodb.ListTablesInput, _ ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	return &dynamodb.ListTablesOutput{TableNames: names}, nil
}

func (f *fakeDetectDynamoDB) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{Table: f.tables[aws.ToString(params.TableName)]}, nil
}

type fakeDetectCloudFormation struct {
	summaries []cfntypes.StackSummary
	filter    []cfntypes.StackStatus
}

func (f *fakeDetectCloudFormation) ListStacks(_ context.Context, params *cloudformation.ListStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.ListStacksOutput, error) {
	f.filter = params.StackStatusFilter
	return &cloudformation.ListStacksOutput{StackSummaries: f.summaries}, nil
}

type fakeDetectAPIGateway struct {
	apis []apitypes.RestApi
}

func (f *fakeDetectAPIGateway) GetRestApis(_ context.Context, _ *apigateway.GetRestApisInput, _ ...func(*apigateway.Options)) (*apigateway.GetRestApisOutput, error) {
	return &apigateway.GetRestApisOutput{Items: f.apis}, nil
}

func newDetectAPI() (DetectAPI, *fakeDetectCloudFormation) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cfn := &fakeDetectCloudFormation{summaries: []cfntypes.StackSummary{{
		StackName:    aws.String("nuoa-beta-stack"),
		StackStatus:  cfntypes.StackStatusUpdateComplete,
		CreationTime: &created,
	}}}

	return DetectAPI{
		Lambda: &fakeDetectLambda{pages: [][]lambdatypes.FunctionConfiguration{
			{{
				FunctionName: aws.String("nuoa-report-beta"),
				FunctionArn:  aws.String("arn:aws:lambda:ap-southeast-1:123:function:nuoa-report-beta"),
				Runtime:      lambdatypes.RuntimeJava17,
				LastModified: aws.String("2026-08-24T10:00:00.000+0000"),
			}},
			{{
				FunctionName: aws.String("nuoa-activity-beta"),
				FunctionArn:  aws.String("arn:aws:lambda:ap-southeast-1:123:function:nuoa-activity-beta"),
				Runtime:      lambdatypes.RuntimePython312,
			}},
		}},
		S3: &fakeDetectS3{buckets: []s3types.Bucket{
			{Name: aws.String("nuoa-beta-deploy"), CreationDate: &created},
		}},
		DynamoDB: &fakeDetectDynamoDB{tables: map[string]*ddbtypes.TableDescription{
			"nuoa-activities-beta": {
				TableStatus:    ddbtypes.TableStatusActive,
				ItemCount:      aws.Int64(42),
				TableSizeBytes: aws.Int64(2048),
			},
		}},
		CloudFormation: cfn,
		APIGateway: &fakeDetectAPIGateway{apis: []apitypes.RestApi{
			{Id: aws.String("abc123"), Name: aws.String("nuoa-tenant-api"), CreatedDate: &created},
		}},
	}, cfn
}

func TestDetectResources_All(t *testing.T) {
	api, _ := newDetectAPI()

	got, err := DetectResources(context.Background(), api, ServiceAll)
	if err != nil {
		t.Fatalf("DetectResources: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("services = %d, want 5", len(got))
	}
	if len(got[ServiceLambda]) != 2 {
		t.Errorf("lambda resources = %v", got[ServiceLambda])
	}
}

func TestDetectResources_SingleService(t *testing.T) {
	api, _ := newDetectAPI()

	got, err := DetectResources(context.Background(), api, ServiceS3)
	if err != nil {
		t.Fatalf("DetectResources: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("services = %d, want 1", len(got))
	}

	buckets := got[ServiceS3]
	if len(buckets) != 1 || buckets[0].Name != "nuoa-beta-deploy" {
		t.Fatalf("buckets = %v", buckets)
	}
	if buckets[0].Detail["created"] != "2026-08-01T12:00:00Z" {
		t.Errorf("created = %q", buckets[0].Detail["created"])
	}
}

func TestDetectResources_UnknownService(t *testing.T) {
	api, _ := newDetectAPI()

	if _, err := DetectResources(context.Background(), api, "route53"); err == nil {
		t.Fatal("expected error for unknown service")
	}
}

func TestDetectResources_FunctionFields(t *testing.T) {
	api, _ := newDetectAPI()

	got, err := DetectResources(context.Background(), api, ServiceLambda)
	if err != nil {
		t.Fatalf("DetectResources: %v", err)
	}

	fns := got[ServiceLambda]
	if len(fns) != 2 {
		t.Fatalf("functions = %d, want 2 (both pages)", len(fns))
	}
	first := fns[0]
	if first.Name != "nuoa-report-beta" {
		t.Errorf("name = %q", first.Name)
	}
	if first.Detail["runtime"] != "java17" {
		t.Errorf("runtime = %q", first.Detail["runtime"])
	}
	if first.Detail["arn"] == "" || first.Detail["last_modified"] == "" {
		t.Errorf("detail = %v", first.Detail)
	}
}

func TestDetectResources_TableFields(t *testing.T) {
	api, _ := newDetectAPI()

	got, err := DetectResources(context.Background(), api, ServiceDynamoDB)
	if err != nil {
		t.Fatalf("DetectResources: %v", err)
	}

	tables := got[ServiceDynamoDB]
	if len(tables) != 1 || tables[0].Name != "nuoa-activities-beta" {
		t.Fatalf("tables = %v", tables)
	}
	detail := tables[0].Detail
	if detail["status"] != "ACTIVE" || detail["items"] != "42" || detail["size_bytes"] != "2048" {
		t.Errorf("detail = %v", detail)
	}
}

func TestDetectResources_StacksUseSettledStatuses(t *testing.T) {
	api, cfn := newDetectAPI()

	got, err := DetectResources(context.Background(), api, ServiceCloudFormation)
	if err != nil {
		t.Fatalf("DetectResources: %v", err)
	}

	stacks := got[ServiceCloudFormation]
	if len(stacks) != 1 || stacks[0].Detail["status"] != "UPDATE_COMPLETE" {
		t.Fatalf("stacks = %v", stacks)
	}
	if len(cfn.filter) != len(completedStackStatuses) {
		t.Errorf("status filter = %v", cfn.filter)
	}
}

package awsx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// FunctionsAPI is the Lambda surface needed for listing and updating.
type FunctionsAPI interface {
	ListFunctions(ctx context.Context, params *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error)
	UpdateFunctionCode(ctx context.Context, params *lambda.UpdateFunctionCodeInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error)
}

// Function is the subset of Lambda function metadata nuoactl reports.
type Function struct {
	Name         string
	ARN          string
	Runtime      string
	LastModified string
}

// FunctionFilter narrows ListFunctions results by case-insensitive substring.
type FunctionFilter struct {
	Domain string // e.g. reportmanagement, activitymanagement
	Stage  string // beta, gamma, prod
}

// Matches reports whether a function name passes the filter.
func (f FunctionFilter) Matches(name string) bool {
	lower := strings.ToLower(name)
	if f.Domain != "" && !strings.Contains(lower, strings.ToLower(f.Domain)) {
		return false
	}
	if f.Stage != "" && !strings.Contains(lower, strings.ToLower(f.Stage)) {
		return false
	}
	return true
}

// ListFunctions returns all functions passing the filter, sorted by name.
func ListFunctions(ctx context.Context, api FunctionsAPI, filter FunctionFilter) ([]Function, error) {
	var result []Function
	var marker *string

	for {
		out, err := api.ListFunctions(ctx, &lambda.ListFunctionsInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("list functions: %w", err)
		}

		for _, fn := range out.Functions {
			name := aws.ToString(fn.FunctionName)
			if !filter.Matches(name) {
				continue
			}
			result = append(result, Function{
				Name:         name,
				ARN:          aws.ToString(fn.FunctionArn),
				Runtime:      string(fn.Runtime),
				LastModified: aws.ToString(fn.LastModified),
			})
		}

		if out.NextMarker == nil {
			break
		}
		marker = out.NextMarker
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CodeUpdate is the outcome of an UpdateFunctionCode call.
type CodeUpdate struct {
	FunctionName string
	CodeSha256   string
	LastModified string
}

// UpdateFunctionCode points a function at an uploaded S3 bundle.
func UpdateFunctionCode(ctx context.Context, api FunctionsAPI, functionName, bucket, key string) (*CodeUpdate, error) {
	out, err := api.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(functionName),
		S3Bucket:     aws.String(bucket),
		S3Key:        aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("update function code %s: %w", functionName, err)
	}

	return &CodeUpdate{
		FunctionName: functionName,
		CodeSha256:   aws.ToString(out.CodeSha256),
		LastModified: aws.ToString(out.LastModified),
	}, nil
}

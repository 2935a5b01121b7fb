package awsx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// ExportsAPI is the CloudFormation surface needed for export resolution.
type ExportsAPI interface {
	ListExports(ctx context.Context, params *cloudformation.ListExportsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ListExportsOutput, error)
}

// ResolveExport returns the value of a named CloudFormation export, paging
// through all exports. A miss reports the available export names.
func ResolveExport(ctx context.Context, api ExportsAPI, name string) (string, error) {
	var names []string
	var token *string

	for {
		out, err := api.ListExports(ctx, &cloudformation.ListExportsInput{NextToken: token})
		if err != nil {
			return "", fmt.Errorf("list exports: %w", err)
		}

		for _, exp := range out.Exports {
			if aws.ToString(exp.Name) == name {
				return aws.ToString(exp.Value), nil
			}
			names = append(names, aws.ToString(exp.Name))
		}

		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}

	sort.Strings(names)
	return "", fmt.Errorf("export %q not found (available: %s)", name, strings.Join(names, ", "))
}

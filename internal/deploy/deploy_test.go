package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeExports struct {
	exports map[string]string
}

func (f *fakeExports) ListExports(_ context.Context, _ *cloudformation.ListExportsInput, _ ...func(*cloudformation.Options)) (*cloudformation.ListExportsOutput, error) {
	out := &cloudformation.ListExportsOutput{}
	for name, value := range f.exports {
		out.Exports = append(out.Exports, cfntypes.Export{Name: aws.String(name), Value: aws.String(value)})
	}
	return out, nil
}

type fakeFunctions struct {
	names      []string
	updated    []string
	failUpdate map[string]bool
}

func (f *fakeFunctions) ListFunctions(_ context.Context, _ *lambda.ListFunctionsInput, _ ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error) {
	out := &lambda.ListFunctionsOutput{}
	for _, name := range f.names {
		out.Functions = append(out.Functions, lambdatypes.FunctionConfiguration{
			FunctionName: aws.String(name),
		})
	}
	return out, nil
}

func (f *fakeFunctions) UpdateFunctionCode(_ context.Context, params *lambda.UpdateFunctionCodeInput, _ ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error) {
	name := aws.ToString(params.FunctionName)
	if f.failUpdate[name] {
		return nil, fmt.Errorf("throttled")
	}
	f.updated = append(f.updated, name)
	return &lambda.UpdateFunctionCodeOutput{
		FunctionName: params.FunctionName,
		CodeSha256:   aws.String("sha-after"),
	}, nil
}

type fakeObjects struct {
	hashes map[string]string // key → stored hash
	puts   int
}

func (f *fakeObjects) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	hash, ok := f.hashes[aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{Metadata: map[string]string{"sha256": hash}}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts++
	f.hashes[aws.ToString(params.Key)] = params.Metadata["sha256"]
	return &s3.PutObjectOutput{}, nil
}

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "service.zip")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func testClients(objects *fakeObjects, functions *fakeFunctions) Clients {
	return Clients{
		Exports:   &fakeExports{exports: map[string]string{"beta-deployment-bucket": "nuoa-beta-deploy"}},
		Functions: functions,
		Objects:   objects,
	}
}

func baseOptions(artifact string) Options {
	return Options{
		Stage:        "beta",
		Domain:       "report",
		Artifacts:    []string{artifact},
		BucketExport: "{stage}-deployment-bucket",
		KeyPrefix:    "lambda",
	}
}

func TestRun_UploadsAndUpdatesAll(t *testing.T) {
	artifact := writeArtifact(t, "v1")
	objects := &fakeObjects{hashes: map[string]string{}}
	functions := &fakeFunctions{names: []string{
		"nuoa-report-beta-query",
		"nuoa-report-beta-ingest",
		"nuoa-activity-beta-ingest",
	}}

	opts := baseOptions(artifact)
	opts.All = true

	report, err := Run(context.Background(), testClients(objects, functions), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Bucket != "nuoa-beta-deploy" || report.Key != "lambda/service.zip" {
		t.Errorf("bucket/key = %s/%s", report.Bucket, report.Key)
	}
	if !report.Uploaded || objects.puts != 1 {
		t.Errorf("uploaded = %v, puts = %d", report.Uploaded, objects.puts)
	}
	if len(functions.updated) != 2 {
		t.Errorf("updated = %v, want the two report functions", functions.updated)
	}
}

func TestRun_SkipsUploadWhenHashMatches(t *testing.T) {
	artifact := writeArtifact(t, "v1")
	hash, err := HashArtifact(artifact)
	if err != nil {
		t.Fatalf("HashArtifact: %v", err)
	}

	objects := &fakeObjects{hashes: map[string]string{"lambda/service.zip": hash.Hex}}
	functions := &fakeFunctions{names: []string{"nuoa-report-beta-query"}}

	opts := baseOptions(artifact)
	opts.All = true

	report, err := Run(context.Background(), testClients(objects, functions), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Uploaded || objects.puts != 0 {
		t.Errorf("expected upload skip, uploaded=%v puts=%d", report.Uploaded, objects.puts)
	}
	if len(functions.updated) != 1 {
		t.Errorf("updated = %v", functions.updated)
	}
}

func TestRun_NoSelectionIsDiscoveryOnly(t *testing.T) {
	artifact := writeArtifact(t, "v1")
	objects := &fakeObjects{hashes: map[string]string{}}
	functions := &fakeFunctions{names: []string{"nuoa-report-beta-query"}}

	report, err := Run(context.Background(), testClients(objects, functions), baseOptions(artifact))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Matches) != 1 || len(report.Selected) != 0 {
		t.Errorf("matches=%d selected=%d", len(report.Matches), len(report.Selected))
	}
	if len(functions.updated) != 0 {
		t.Errorf("updated = %v, want none", functions.updated)
	}
}

func TestRun_ExplicitFunctionMustMatchFilter(t *testing.T) {
	artifact := writeArtifact(t, "v1")
	objects := &fakeObjects{hashes: map[string]string{}}
	functions := &fakeFunctions{names: []string{"nuoa-report-beta-query"}}

	opts := baseOptions(artifact)
	opts.Functions = []string{"nuoa-activity-beta-ingest"}

	if _, err := Run(context.Background(), testClients(objects, functions), opts); err == nil {
		t.Fatal("expected error for function outside the filter")
	}
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	artifact := writeArtifact(t, "v1")
	objects := &fakeObjects{hashes: map[string]string{}}
	functions := &fakeFunctions{names: []string{"nuoa-report-beta-query"}}

	opts := baseOptions(artifact)
	opts.All = true
	opts.DryRun = true

	report, err := Run(context.Background(), testClients(objects, functions), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if objects.puts != 0 || len(functions.updated) != 0 {
		t.Errorf("dry run side effects: puts=%d updated=%v", objects.puts, functions.updated)
	}
	if len(report.Selected) != 1 {
		t.Errorf("selected = %v", report.Selected)
	}
}

func TestRun_CollectsUpdateFailures(t *testing.T) {
	artifact := writeArtifact(t, "v1")
	objects := &fakeObjects{hashes: map[string]string{}}
	functions := &fakeFunctions{
		names:      []string{"nuoa-report-beta-a", "nuoa-report-beta-b"},
		failUpdate: map[string]bool{"nuoa-report-beta-a": true},
	}

	opts := baseOptions(artifact)
	opts.All = true

	report, err := Run(context.Background(), testClients(objects, functions), opts)
	if err == nil {
		t.Fatal("expected error when an update fails")
	}
	if len(report.Failures) != 1 {
		t.Errorf("failures = %v", report.Failures)
	}
	// The second function must still have been attempted.
	if len(functions.updated) != 1 || functions.updated[0] != "nuoa-report-beta-b" {
		t.Errorf("updated = %v", functions.updated)
	}
}

func TestRun_MissingExport(t *testing.T) {
	artifact := writeArtifact(t, "v1")
	clients := Clients{
		Exports:   &fakeExports{exports: map[string]string{}},
		Functions: &fakeFunctions{},
		Objects:   &fakeObjects{hashes: map[string]string{}},
	}

	opts := baseOptions(artifact)
	opts.All = true

	if _, err := Run(context.Background(), clients, opts); err == nil {
		t.Fatal("expected error for missing export")
	}
}

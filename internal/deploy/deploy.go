// Package deploy implements the Lambda update workflow: resolve the
// deployment bucket from a CloudFormation export, upload the bundle only when
// its content hash changed, and point the selected functions at the new key.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/nuoa-io/nuoactl/internal/awsx"
)

// Clients bundles the AWS surfaces the workflow touches.
type Clients struct {
	Exports   awsx.ExportsAPI
	Functions awsx.FunctionsAPI
	Objects   awsx.ObjectsAPI
}

// Options controls one deployment run.
type Options struct {
	Stage        string
	Domain       string   // substring filter for function names
	Artifacts    []string // artifact glob patterns
	Functions    []string // exact function names to update (subset of matches)
	All          bool     // update every match
	DryRun       bool
	BucketExport string // export name pattern, {stage} substituted
	KeyPrefix    string
}

// Report is the outcome of a deployment run.
type Report struct {
	Artifact string
	Hash     ArtifactHash
	Bucket   string
	Key      string
	Uploaded bool            // false when the remote hash already matched
	Matches  []awsx.Function // functions passing the filter
	Selected []string
	Updates  []awsx.CodeUpdate
	Failures map[string]string // function → error
	DryRun   bool
}

// Run executes the workflow. Individual function update failures are
// collected in the report and surfaced as a single error after all updates
// were attempted.
func Run(ctx context.Context, clients Clients, opts Options) (*Report, error) {
	if opts.Stage == "" {
		return nil, fmt.Errorf("stage is required")
	}
	if len(opts.Artifacts) == 0 {
		return nil, fmt.Errorf("no artifact globs configured")
	}

	report := &Report{DryRun: opts.DryRun, Failures: make(map[string]string)}

	// Artifact + hash
	artifact, err := ResolveArtifact(opts.Artifacts)
	if err != nil {
		return nil, err
	}
	hash, err := HashArtifact(artifact)
	if err != nil {
		return nil, err
	}
	report.Artifact = artifact
	report.Hash = *hash
	slog.Info("resolved artifact", "path", artifact, "sha256", hash.Base64)

	// Bucket via CloudFormation export
	exportName := strings.ReplaceAll(opts.BucketExport, "{stage}", opts.Stage)
	bucket, err := awsx.ResolveExport(ctx, clients.Exports, exportName)
	if err != nil {
		return nil, err
	}
	report.Bucket = bucket
	report.Key = path.Join(opts.KeyPrefix, filepath.Base(artifact))
	slog.Info("resolved deployment bucket", "export", exportName, "bucket", bucket)

	// Conditional upload
	remoteHash, err := awsx.ObjectHash(ctx, clients.Objects, report.Bucket, report.Key)
	if err != nil {
		return nil, err
	}
	switch {
	case remoteHash == hash.Hex:
		slog.Info("bundle unchanged, skipping upload", "key", report.Key)
	case opts.DryRun:
		slog.Info("would upload bundle", "key", report.Key)
	default:
		if err := awsx.UploadObject(ctx, clients.Objects, report.Bucket, report.Key, artifact, hash.Hex); err != nil {
			return nil, err
		}
		report.Uploaded = true
		slog.Info("uploaded bundle", "key", report.Key)
	}

	// Function selection
	matches, err := awsx.ListFunctions(ctx, clients.Functions, awsx.FunctionFilter{
		Domain: opts.Domain,
		Stage:  opts.Stage,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no Lambda functions match domain=%q stage=%q", opts.Domain, opts.Stage)
	}
	report.Matches = matches

	selected, err := selectFunctions(matches, opts)
	if err != nil {
		return nil, err
	}
	report.Selected = selected
	if len(selected) == 0 {
		// Discovery-only run: the caller prints the matches.
		return report, nil
	}

	if opts.DryRun {
		slog.Info("dry run, skipping function updates", "functions", selected)
		return report, nil
	}

	// Batch update, collecting failures
	for _, name := range selected {
		upd, err := awsx.UpdateFunctionCode(ctx, clients.Functions, name, report.Bucket, report.Key)
		if err != nil {
			slog.Error("function update failed", "function", name, "error", err)
			report.Failures[name] = err.Error()
			continue
		}
		slog.Info("function updated", "function", name, "code_sha256", upd.CodeSha256)
		report.Updates = append(report.Updates, *upd)
	}

	if len(report.Failures) > 0 {
		return report, fmt.Errorf("update failed for %d of %d functions", len(report.Failures), len(selected))
	}
	return report, nil
}

// selectFunctions resolves the update set: --all takes every match, explicit
// names must be matches, no selection means discovery only.
func selectFunctions(matches []awsx.Function, opts Options) ([]string, error) {
	if opts.All {
		names := make([]string, len(matches))
		for i, fn := range matches {
			names[i] = fn.Name
		}
		return names, nil
	}

	if len(opts.Functions) == 0 {
		return nil, nil
	}

	matchSet := make(map[string]bool, len(matches))
	for _, fn := range matches {
		matchSet[fn.Name] = true
	}

	var selected []string
	for _, name := range opts.Functions {
		if !matchSet[name] {
			return nil, fmt.Errorf("function %q is not among the %d filtered matches", name, len(matches))
		}
		selected = append(selected, name)
	}
	return selected, nil
}

// Package shell runs POSIX command strings for skill steps and repo tasks.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Result holds the outcome of one command execution.
type Result struct {
	Output   string // combined stdout+stderr
	ExitCode int
	Duration time.Duration
}

// Command describes a command to run.
type Command struct {
	Script string            // POSIX shell source
	Dir    string            // working directory ("" = current)
	Env    map[string]string // extra environment, layered over os.Environ
}

// Run parses and executes the command, capturing combined output.
// A non-zero exit returns both the Result and an error.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(cmd.Script), "")
	if err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}

	env := os.Environ()
	for k, v := range cmd.Env {
		env = append(env, k+"="+v)
	}

	var buf bytes.Buffer
	runner, err := interp.New(
		interp.Dir(cmd.Dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &buf, &buf),
	)
	if err != nil {
		return nil, fmt.Errorf("init interpreter: %w", err)
	}

	start := time.Now()
	runErr := runner.Run(ctx, file)
	res := &Result{
		Output:   buf.String(),
		Duration: time.Since(start),
	}

	if runErr != nil {
		if status, ok := interp.IsExitStatus(runErr); ok {
			res.ExitCode = int(status)
			return res, fmt.Errorf("exit status %d", status)
		}
		return res, runErr
	}
	return res, nil
}

package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"

	"github.com/jg-phare/hookprio/pkg/types"
)

// ShellBody creates a Body that wraps a shell command.
// The command receives the hook context as JSON on stdin. Its exit code,
// stdout and stderr come back as a ShellResult; a non-zero exit is also
// returned as an *ExitError so the attempt counts as failed.
func ShellBody(command string) Body {
	return func(ctx context.Context, hookCtx types.Context) (any, error) {
		res, err := runShell(ctx, command, hookCtx)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

func runShell(ctx context.Context, command string, hookCtx types.Context) (ShellResult, error) {
	if hookCtx == nil {
		hookCtx = types.Context{}
	}
	input, err := json.Marshal(hookCtx)
	if err != nil {
		return ShellResult{}, err
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := ShellResult{
		Output: stdout.String(),
		Error:  stderr.String(),
	}
	if runErr == nil {
		return res, nil
	}

	// a killed process on timeout reports the context error, not the signal
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Code: res.ExitCode, Stderr: strings.TrimSpace(res.Error)}
	}
	res.ExitCode = -1
	return res, runErr
}

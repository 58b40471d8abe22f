package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner executes an external command and returns its standard output.
// This abstraction allows us to mock subprocesses in tests.
//
//go:generate mockgen -destination=mocks/runner_mock.go -package=mocks github.com/genricoloni/cmusrpc/internal/probe Runner
type Runner interface {
	// Run executes name with args. Any output on stderr is reported as an error
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner creates a Runner backed by os/exec
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes the command and collects stdout
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w (output: %s)", name, err, strings.TrimSpace(stderr.String()))
	}
	if stderr.Len() > 0 {
		return nil, fmt.Errorf("%s reported: %s", name, strings.TrimSpace(stderr.String()))
	}

	r.logger.Debug("Command finished",
		zap.String("command", name),
		zap.Int("bytes", stdout.Len()))

	return stdout.Bytes(), nil
}

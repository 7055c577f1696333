package assemble

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Runner executes an external audio tool to completion.
type Runner interface {
	Run(ctx context.Context, args ...string) error
}

type execRunner struct {
	cmd []string
}

// NewExecRunner parses the configured command line once; per-call arguments
// are appended to it. The command may carry its own flags, for example
// "ffmpeg -hide_banner -loglevel error".
func NewExecRunner(command string) (Runner, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse ffmpeg command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("ffmpeg command empty")
	}
	return &execRunner{cmd: args}, nil
}

func (r *execRunner) Run(ctx context.Context, args ...string) error {
	full := append(append([]string{}, r.cmd[1:]...), args...)
	cmd := exec.CommandContext(ctx, r.cmd[0], full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 512 {
			detail = detail[len(detail)-512:]
		}
		return fmt.Errorf("%s: %w: %s", r.cmd[0], err, detail)
	}
	return nil
}

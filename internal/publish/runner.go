package publish

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// Command is an external command invocation.
type Command struct {
	Dir  string
	Name string
	Args []string
	// Env is appended to the current environment.
	Env []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner runs external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (stdout, stderr string, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes cmd and returns its captured output. A non-zero exit is
// returned as an error that includes stderr.
func (ExecRunner) Run(ctx context.Context, c Command) (string, string, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), stderr.String(), eris.Wrapf(err, "publish: %s failed: %s", c, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), stderr.String(), nil
}

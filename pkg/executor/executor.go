package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// Command is one external tool invocation
type Command struct {
	Name string
	Args []string
	Dir  string // working directory; empty means the current one
}

// String renders the command line for logs and error messages
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// ParseCommand splits a configured command line into words using shell
// quoting rules. Commands still run without a shell: no expansion or pipes.
func ParseCommand(line string, extra ...string) (Command, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("parsing command %q: %w", line, err)
	}
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	args := append(fields[1:len(fields):len(fields)], extra...)
	return Command{Name: fields[0], Args: args}, nil
}

// ExitError reports a command that ran but exited non-zero
type ExitError struct {
	Command Command
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command.String(), e.Code)
}

// Executor runs external build tools and blocks until they exit
type Executor interface {
	Run(ctx context.Context, cmd Command) error
}

// DefaultExecutor runs actual commands with the given output streams
type DefaultExecutor struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecutor creates an executor whose children inherit this process's stdout and stderr
func NewExecutor() Executor {
	return &DefaultExecutor{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes the command and waits for it.
// A non-zero exit is returned as *ExitError; failing to start is returned wrapped.
func (e *DefaultExecutor) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if code == -1 {
				// Killed by a signal; still a failure
				code = 1
			}
			return &ExitError{Command: c, Code: code}
		}
		return fmt.Errorf("failed to run %q: %w", c.String(), err)
	}

	return nil
}

package bridge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecSource runs helper commands as a subprocess:
//
//	<Path> <Args...> <command> <args...>
type ExecSource struct {
	Path string
	// Args are inserted before the command name.
	Args []string
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
}

// ExecError describes a failed subprocess run.
type ExecError struct {
	Command string
	Err     error
	Stderr  string
	Stdout  string
}

func (e *ExecError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Command, e.Err)
	if e.Stderr != "" {
		b.WriteString("\nstderr: ")
		b.WriteString(e.Stderr)
	}
	if e.Stdout != "" {
		b.WriteString("\nstdout: ")
		b.WriteString(e.Stdout)
	}
	return b.String()
}

func (e *ExecError) Unwrap() error { return e.Err }

// Run executes the command and returns its stdout.
func (s *ExecSource) Run(ctx context.Context, command string, args []string) ([]byte, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(s.Args)+1+len(args))
	argv = append(argv, s.Args...)
	argv = append(argv, command)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, s.Path, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	configureProcessGroup(cmd)
	// Grandchildren may keep the output pipes open after a kill.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		return nil, &ExecError{
			Command: command,
			Err:     err,
			Stderr:  strings.TrimSpace(stderr.String()),
			Stdout:  strings.TrimSpace(stdout.String()),
		}
	}
	return stdout.Bytes(), nil
}

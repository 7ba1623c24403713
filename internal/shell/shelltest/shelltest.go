// Package shelltest provides a recording shell.Runner for tests.
package shelltest

import (
	"context"

	"github.com/goplus/sdlpack/internal/shell"
)

// Recorder records every command instead of running it. Handler, when set,
// decides the output and error of each call.
type Recorder struct {
	Calls   []*shell.Cmd
	Handler func(cmd *shell.Cmd) (string, error)
}

func (r *Recorder) Run(ctx context.Context, cmd *shell.Cmd) error {
	_, err := r.Output(ctx, cmd)
	return err
}

func (r *Recorder) Output(ctx context.Context, cmd *shell.Cmd) ([]byte, error) {
	r.Calls = append(r.Calls, cmd)
	if r.Handler == nil {
		return nil, nil
	}
	out, err := r.Handler(cmd)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Lines returns the rendered command lines in call order.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		lines[i] = c.String()
	}
	return lines
}

// Fail returns an ExitError for cmd with the given code and stderr.
func Fail(cmd *shell.Cmd, code int, stderr string) error {
	return &shell.ExitError{Cmd: cmd.String(), Code: code, Stderr: stderr}
}

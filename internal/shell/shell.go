// Package shell runs external tools from discrete argument lists.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/qiniu/x/log"
)

// Cmd describes one external process invocation. Arguments are kept as
// separate tokens and handed to the process layer unquoted.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// Command returns a Cmd for name with the given leading arguments.
func Command(name string, args ...string) *Cmd {
	return &Cmd{Name: name, Args: append([]string(nil), args...)}
}

// Arg appends arguments in order.
func (c *Cmd) Arg(args ...string) *Cmd {
	c.Args = append(c.Args, args...)
	return c
}

// ArgIf appends arguments only when cond holds.
func (c *Cmd) ArgIf(cond bool, args ...string) *Cmd {
	if cond {
		c.Args = append(c.Args, args...)
	}
	return c
}

// InDir sets the working directory.
func (c *Cmd) InDir(dir string) *Cmd {
	c.Dir = dir
	return c
}

// SetEnv adds key=value to the environment of the spawned process only.
func (c *Cmd) SetEnv(key, value string) *Cmd {
	if c.Env == nil {
		c.Env = make(map[string]string)
	}
	c.Env[key] = value
	return c
}

// String renders the command line for logs. Tokens containing blanks or
// quotes are quoted; the result is never fed back to a shell.
func (c *Cmd) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, s := range append([]string{c.Name}, c.Args...) {
		if s == "" || strings.ContainsAny(s, " \t\"'") {
			s = strconv.Quote(s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// Runner executes commands.
type Runner interface {
	// Run executes cmd and streams its output, failing on a non-zero exit.
	Run(ctx context.Context, cmd *Cmd) error
	// Output executes cmd and returns its standard output.
	Output(ctx context.Context, cmd *Cmd) ([]byte, error)
}

// ExitError reports a failed external process.
type ExitError struct {
	Cmd    string
	Code   int // -1 when the process could not be started
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Cmd, e.Code)
	if e.Code < 0 {
		msg = fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// maxStderr bounds how much trailing stderr an ExitError keeps.
const maxStderr = 16 << 10

// Exec runs commands on the host.
type Exec struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec returns an Exec wired to the process stdout and stderr.
func NewExec() *Exec {
	return &Exec{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (e *Exec) Run(ctx context.Context, c *Cmd) error {
	cmd := e.command(ctx, c)
	tail := &tailBuffer{max: maxStderr}
	cmd.Stdout = orDiscard(e.Stdout)
	cmd.Stderr = io.MultiWriter(orDiscard(e.Stderr), tail)
	log.Debugf("run: %s", c)
	if err := cmd.Run(); err != nil {
		return exitError(c, err, tail.String())
	}
	return nil
}

func (e *Exec) Output(ctx context.Context, c *Cmd) ([]byte, error) {
	cmd := e.command(ctx, c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	log.Debugf("run: %s", c)
	out, err := cmd.Output()
	if err != nil {
		return nil, exitError(c, err, stderr.String())
	}
	return out, nil
}

func (e *Exec) command(ctx context.Context, c *Cmd) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), c.Env)
	}
	return cmd
}

func exitError(c *Cmd, err error, stderr string) error {
	code := -1
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		code = ee.ExitCode()
	}
	return &ExitError{
		Cmd:    c.String(),
		Code:   code,
		Stderr: strings.TrimSpace(stderr),
		Err:    err,
	}
}

// MergeEnv returns base with every key in override replaced or added,
// sorted by key.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(override))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }

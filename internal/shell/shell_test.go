package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func TestCmdString(t *testing.T) {
	tests := []struct {
		cmd  *Cmd
		want string
	}{
		{Command("cmake", "--build", "out"), "cmake --build out"},
		{Command("cmake", "-G", "Visual Studio 17 2022"), `cmake -G "Visual Studio 17 2022"`},
		{Command("echo", ""), `echo ""`},
		{Command("cmake").Arg("-S", "src").ArgIf(false, "-A", "x64").ArgIf(true, "--parallel"), "cmake -S src --parallel"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommandCopiesArgs(t *testing.T) {
	args := []string{"a", "b"}
	c := Command("x", args...)
	c.Args[0] = "z"
	if args[0] != "a" {
		t.Errorf("Command aliased caller slice: %v", args)
	}
}

func TestMergeEnv(t *testing.T) {
	got := MergeEnv([]string{"B=1", "A=2", "broken"}, map[string]string{"B": "3", "C": "4"})
	want := "A=2 B=3 C=4"
	if strings.Join(got, " ") != want {
		t.Errorf("MergeEnv = %v, want %s", got, want)
	}
}

func TestTailBuffer(t *testing.T) {
	tb := &tailBuffer{max: 4}
	tb.Write([]byte("ab"))
	tb.Write([]byte("cdef"))
	if got := tb.String(); got != "cdef" {
		t.Errorf("tail = %q, want %q", got, "cdef")
	}
}

func TestExecRunFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
	var stderr bytes.Buffer
	e := &Exec{Stderr: &stderr}
	err := e.Run(context.Background(), Command("sh", "-c", "echo boom >&2; exit 3"))

	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("Run error = %v, want *ExitError", err)
	}
	if ee.Code != 3 {
		t.Errorf("Code = %d, want 3", ee.Code)
	}
	if ee.Stderr != "boom" {
		t.Errorf("Stderr = %q, want %q", ee.Stderr, "boom")
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Errorf("stderr not streamed: %q", stderr.String())
	}
}

func TestExecOutputAndEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
	out, err := NewExec().Output(context.Background(),
		Command("sh", "-c", `printf %s "$SDLPACK_PROBE"`).SetEnv("SDLPACK_PROBE", "ok"))
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if string(out) != "ok" {
		t.Errorf("Output = %q, want %q", out, "ok")
	}
}

func TestExecMissingTool(t *testing.T) {
	err := NewExec().Run(context.Background(), Command("sdlpack-no-such-tool"))
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("Run error = %v, want *ExitError", err)
	}
	if ee.Code != -1 {
		t.Errorf("Code = %d, want -1", ee.Code)
	}
}

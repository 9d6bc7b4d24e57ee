// Package asm runs the external assembler and linker.
package asm

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// ToolError is a failed external tool run.
	// Status is -1 if the tool didn't exit normally.
	ToolError struct {
		Tool   string
		Args   []string
		Status int
		Output []byte

		Err error
	}
)

// Run runs the tool and captures its output.
// The process is killed if ctx is canceled.
func Run(ctx context.Context, tool string, args ...string) (err error) {
	tr := tlog.SpanFromContext(ctx)

	var out bytes.Buffer

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	err = cmd.Run()

	tr.Printw("run", "tool", tool, "args", args, "err", err)

	if err == nil {
		return nil
	}

	e := &ToolError{
		Tool:   tool,
		Args:   args,
		Status: -1,
		Output: out.Bytes(),
		Err:    err,
	}

	var exit *exec.ExitError
	if errors.As(err, &exit) && exit.ExitCode() > 0 {
		e.Status = exit.ExitCode()
	}

	return e
}

// Assemble turns assembly text into an object file.
// The text is passed through a temporary file next to obj.
func Assemble(ctx context.Context, cc string, debug bool, text []byte, obj string) (err error) {
	base := strings.TrimSuffix(filepath.Base(obj), filepath.Ext(obj))

	f, err := os.CreateTemp(filepath.Dir(obj), base+"-*.s")
	if err != nil {
		return errors.Wrap(err, "create source file")
	}

	defer func() {
		e := os.Remove(f.Name())
		if err == nil && e != nil {
			err = errors.Wrap(e, "remove source file")
		}
	}()

	_, err = f.Write(text)
	if e := f.Close(); err == nil {
		err = e
	}
	if err != nil {
		return errors.Wrap(err, "write source file")
	}

	args := []string{"-c"}

	if debug {
		args = append(args, "-g")
	}

	args = append(args, "-x", "assembler", "-o", obj, f.Name())

	return Run(ctx, cc, args...)
}

// Link links objects and libraries into the executable out.
func Link(ctx context.Context, cc string, debug bool, out string, objs, libs []string) error {
	var args []string

	if debug {
		args = append(args, "-g")
	}

	args = append(args, "-o", out)
	args = append(args, objs...)

	for _, l := range libs {
		args = append(args, "-l"+l)
	}

	return Run(ctx, cc, args...)
}

func (e *ToolError) Error() string {
	msg := strings.TrimSpace(string(e.Output))

	if e.Status < 0 {
		if msg == "" {
			return fmt.Sprintf("%v: %v", e.Tool, e.Err)
		}

		return fmt.Sprintf("%v: %v\n%s", e.Tool, e.Err, msg)
	}

	if msg == "" {
		return fmt.Sprintf("%v exited with status %d", e.Tool, e.Status)
	}

	return fmt.Sprintf("%v exited with status %d:\n%s", e.Tool, e.Status, msg)
}

func (e *ToolError) Unwrap() error { return e.Err }

package compile

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/basicc/compiler/asm"
	"github.com/slowlang/basicc/compiler/back"
)

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "a.o", ObjectPath("a.out"))
	assert.Equal(t, "prog.o", ObjectPath("prog"))
	assert.Equal(t, "dir/prog.o", ObjectPath("dir/prog.exe"))
	assert.Equal(t, "prog.o.o", ObjectPath("prog.o"))
}

func TestLink(t *testing.T) {
	dir := t.TempDir()

	opts := Options{
		Output: filepath.Join(dir, "prog"),
		CC:     fakeCC(t, dir, `echo bin > "$out"`),
		Libs:   []string{"m"},
	}

	err := Link(context.Background(), opts, "prog.o")
	require.NoError(t, err)

	st, err := os.Stat(opts.Output)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), st.Mode().Perm())

	assertOnly(t, dir, "cc", "prog")
}

func TestLinkFails(t *testing.T) {
	dir := t.TempDir()

	opts := Options{
		Output: filepath.Join(dir, "prog"),
		CC:     fakeCC(t, dir, `echo partial > "$out"; echo "undefined reference" >&2; exit 2`),
	}

	err := Link(context.Background(), opts, "prog.o")

	var le *LinkError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, opts.Output, le.Output)

	var te *asm.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 2, te.Status)
	assert.Contains(t, err.Error(), "undefined reference")

	assertOnly(t, dir, "cc")
}

func TestLinkKeepsOldOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "prog")

	require.NoError(t, os.WriteFile(out, []byte("old"), 0o755))

	opts := Options{
		Output: out,
		CC:     fakeCC(t, dir, `exit 1`),
	}

	err := Link(context.Background(), opts, "prog.o")
	require.Error(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestBuildRemovesObject(t *testing.T) {
	dir := t.TempDir()

	opts := Options{
		Output: filepath.Join(dir, "prog"),
		CC:     fakeCC(t, dir, `echo bin > "$out"`),
		OS:     "linux",
		Arch:   "amd64",
	}

	c, err := NewContext(opts)
	require.NoError(t, err)
	assert.Equal(t, opts.CC, c.CC)

	err = Build(context.Background(), c, opts)
	require.NoError(t, err)

	assert.True(t, c.Main().Terminated())
	assertOnly(t, dir, "cc", "prog")

	opts.KeepTemps = true

	c, err = NewContext(opts)
	require.NoError(t, err)

	err = Build(context.Background(), c, opts)
	require.NoError(t, err)

	assertOnly(t, dir, "cc", "prog", "prog.o")
}

func TestBuildAssembleFails(t *testing.T) {
	dir := t.TempDir()

	opts := Options{
		Output: filepath.Join(dir, "prog"),
		CC:     fakeCC(t, dir, `exit 1`),
		OS:     "linux",
		Arch:   "arm64",
	}

	c, err := NewContext(opts)
	require.NoError(t, err)

	err = Build(context.Background(), c, opts)

	var be *back.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, back.Object, be.Kind)

	assertOnly(t, dir, "cc")
}

func TestBuildRemovesPartialObject(t *testing.T) {
	dir := t.TempDir()

	opts := Options{
		Output:    filepath.Join(dir, "prog"),
		CC:        fakeCC(t, dir, `echo half > "$out"; exit 1`),
		OS:        "linux",
		Arch:      "amd64",
		KeepTemps: true,
	}

	c, err := NewContext(opts)
	require.NoError(t, err)

	err = Build(context.Background(), c, opts)

	var be *back.Error
	require.ErrorAs(t, err, &be)

	assertOnly(t, dir, "cc")
}

func TestNewContextUnsupported(t *testing.T) {
	_, err := NewContext(Options{OS: "plan9", Arch: "386"})
	assert.ErrorAs(t, err, &back.UnsupportedTargetError{})
}

func TestDefaultOptions(t *testing.T) {
	t.Setenv("CC", "my-cc")
	t.Setenv("BASICC_ARCH", "arm64")
	t.Setenv("BASICC_KEEP_TEMPS", "1")

	opts := DefaultOptions()

	assert.Equal(t, "my-cc", opts.CC)
	assert.Equal(t, "arm64", opts.Arch)
	assert.Equal(t, runtime.GOOS, opts.OS)
	assert.True(t, opts.KeepTemps)
	assert.Equal(t, "a.out", opts.Output)
	assert.Equal(t, []string{"m"}, opts.Libs)
}

// fakeCC writes a compiler stand-in which finds its -o argument and runs body.
func fakeCC(t *testing.T, dir, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("no shell")
	}

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell")
	}

	script := `#!/bin/sh
while [ $# -gt 0 ]; do
	if [ "$1" = "-o" ]; then out=$2; fi
	shift
done
` + body + "\n"

	path := filepath.Join(dir, "cc")

	err := os.WriteFile(path, []byte(script), 0o755)
	require.NoError(t, err)

	return path
}

func assertOnly(t *testing.T, dir string, names ...string) {
	t.Helper()

	ents, err := os.ReadDir(dir)
	require.NoError(t, err)

	var got []string
	for _, e := range ents {
		got = append(got, e.Name())
	}

	assert.ElementsMatch(t, names, got)
}

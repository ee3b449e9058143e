package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(io.Discard)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSolve_ExactRoot(t *testing.T) {
	out, err := execute(t, "solve", "--func", "x - 0.5", "--x0", "0", "--x1", "1", "--format", "csv")
	require.NoError(t, err)

	assert.Equal(t,
		"Step: 1, x2 =  0.5000000000000000 and f(x2) = 0.0000000000000000\n"+
			"\n"+
			"Required Root is:  0.5000000000000000\n"+
			"k,x,f(x)\n"+
			"0,0.0000000000000000,-0.5000000000000000\n"+
			"1,0.5000000000000000,0.0000000000000000\n",
		out)
}

func TestSolve_Quiet(t *testing.T) {
	out, err := execute(t, "solve", "-q", "--func", "x - 0.5", "--x0", "0", "--x1", "1", "--format", "md")
	require.NoError(t, err)
	assert.NotContains(t, out, "Step:")
	assert.Contains(t, out, "| 1 | 0.5000000000000000 | 0.0000000000000000 |")
}

func TestSolve_RejectsBadBracket(t *testing.T) {
	_, err := execute(t, "solve", "--func", "x*x + 1", "--x0", "0", "--x1", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same sign")
}

func TestSolve_NoCheckHitsLimit(t *testing.T) {
	out, err := execute(t, "solve", "-q", "--no-check", "--max-iter", "30",
		"--func", "x*x + 1", "--x0", "0", "--x1", "1", "--format", "csv")
	require.NoError(t, err)
	// заголовок и 31 строка трассы
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "k,x,f(x)", lines[1])
	assert.Len(t, lines[2:], 31)
}

func TestSolve_Errors(t *testing.T) {
	tests := [][]string{
		{"solve", "--x0", "0", "--x1", "1"},
		{"solve", "--func", "x", "--x0", "abc", "--x1", "1"},
		{"solve", "--func", "x +", "--x0", "0", "--x1", "1"},
		{"solve", "--func", "x", "--x0=-1", "--x1", "1", "--format", "xlsx"},
		{"solve", "--problem", "nope"},
	}
	for _, args := range tests {
		_, err := execute(t, args...)
		assert.Error(t, err, strings.Join(args, " "))
	}
}

func TestDemo(t *testing.T) {
	out, err := execute(t, "demo")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Step: 1, x2 =  0.3926990816987241"))
	assert.Contains(t, out, "Required Root is:  0.73908513321516")
	assert.Contains(t, out, "\\begin{tabular}{lrr}")
	assert.Contains(t, out, "0 & 0.0000000000000000 & 1.0000000000000000 \\\\")
}

func TestSolve_ProblemFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bisect.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[problems.half]
func = "x - 0.5"
x0 = 0.0
x1 = 1.0
`), 0o644))

	out, err := execute(t, "--config", path, "solve", "-q", "--problem", "half", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Required Root is:  0.5000000000000000")

	out, err = execute(t, "--config", path, "problems")
	require.NoError(t, err)
	assert.Contains(t, out, "dottie")
	assert.Contains(t, out, "half")
	assert.Less(t, strings.Index(out, "dottie"), strings.Index(out, "half"))
}

func TestParseNumber(t *testing.T) {
	tests := map[string]float64{
		"0":     0,
		"-1.5":  -1.5,
		"1e-3":  1e-3,
		"pi/4":  0.7853981633974483,
		"2,5":   2.5,
		"pi":    3.141592653589793,
		" 0.25": 0.25,
	}
	for in, want := range tests {
		got, err := parseNumber(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-15, in)
	}
}

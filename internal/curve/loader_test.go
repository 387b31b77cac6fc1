package curve

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `# MACHO light curve
# time mag err
48823.47 -5.51 0.021
48824.51 -5.43 0.019

48826.02 -5.60 0.023
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	raw, err := Parse(strings.NewReader(sampleFile), "sample.mjd", DefaultHeaderLines)
	require.NoError(t, err)
	require.Len(t, raw, 3)
	assert.Equal(t, Sample{Time: 48823.47, Magnitude: -5.51, Error: 0.021}, raw[0])
	assert.Equal(t, 48826.02, raw[2].Time)
}

func TestParseAcceptsCommaDelimiters(t *testing.T) {
	raw, err := Parse(strings.NewReader("h1\nh2\n1,2,3\n4;5;6\n"), "x", 2)
	require.NoError(t, err)
	assert.Equal(t, Raw{{1, 2, 3}, {4, 5, 6}}, raw)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
	}{
		{"wrong column count", "h\nh\n1 2 3\n1 2\n", 4},
		{"extra column", "h\nh\n1 2 3 4\n", 3},
		{"not a number", "h\nh\n1 abc 3\n", 3},
		{"not finite", "h\nh\n1 NaN 3\n", 3},
		{"header only", "h\nh\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.content), "bad.mjd", 2)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "bad.mjd", pe.Path)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.mjd"), 2)
	assert.ErrorIs(t, err, ErrParse)
}

func TestDiscoverRecursesAndFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mjd"), sampleFile)
	writeFile(t, filepath.Join(root, "F_1", "b.mjd"), sampleFile)
	writeFile(t, filepath.Join(root, "F_1", "deep", "deeper", "c.mjd"), sampleFile)
	writeFile(t, filepath.Join(root, "F_1", "notes.txt"), "ignore")
	writeFile(t, filepath.Join(root, "other.dat"), "ignore")

	files, err := Discover(root, ".mjd")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "F_1", "b.mjd"),
		filepath.Join(root, "F_1", "deep", "deeper", "c.mjd"),
		filepath.Join(root, "a.mjd"),
	}, files)

	noDot, err := Discover(root, "mjd")
	require.NoError(t, err)
	assert.Equal(t, files, noDot)
}

func TestDiscoverRejectsMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"), ".mjd")
	assert.Error(t, err)
}

func TestSamplePaths(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e", "f"}

	all := SamplePaths(paths, 0, nil)
	assert.Equal(t, paths, all)
	assert.Equal(t, paths, SamplePaths(paths, 10, nil))

	first := SamplePaths(paths, 3, rand.New(rand.NewPCG(7, 7)))
	second := SamplePaths(paths, 3, rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, first, second)
	require.Len(t, first, 3)

	seen := map[string]bool{}
	for _, p := range first {
		assert.False(t, seen[p], "duplicate %s", p)
		seen[p] = true
		assert.Contains(t, paths, p)
	}
	assert.IsIncreasing(t, first)
}

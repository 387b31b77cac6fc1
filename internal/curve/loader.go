package curve

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// DefaultExtension marks light-curve files.
const DefaultExtension = ".mjd"

// DefaultHeaderLines is the number of leading lines skipped in a curve file.
const DefaultHeaderLines = 2

const columns = 3

// Discover walks root and returns every regular file whose extension equals ext,
// sorted lexically. Directories are visited with an explicit stack so depth is
// bounded only by memory.
func Discover(root, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("curve: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("curve: root %s is not a directory", root)
	}

	var files []string
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("curve: read dir %s: %w", dir, err)
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			switch {
			case e.IsDir():
				stack = append(stack, p)
			case e.Type().IsRegular() && filepath.Ext(e.Name()) == ext:
				files = append(files, p)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// SamplePaths picks n paths uniformly without replacement. The result keeps
// the relative order of paths. n <= 0 or n >= len(paths) selects everything.
func SamplePaths(paths []string, n int, rng *rand.Rand) []string {
	if n <= 0 || n >= len(paths) {
		return append([]string(nil), paths...)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	picked := rng.Perm(len(paths))[:n]
	sort.Ints(picked)

	out := make([]string, n)
	for i, idx := range picked {
		out[i] = paths[idx]
	}
	return out
}

// ParseFile reads the curve file at path.
func ParseFile(path string, headerLines int) (Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Msg: err.Error()}
	}
	defer f.Close()

	return Parse(f, path, headerLines)
}

// Parse reads a delimiter-separated table of (time, magnitude, error) rows
// after skipping headerLines lines. Blank lines are ignored. name is only used
// in error messages.
func Parse(r io.Reader, name string, headerLines int) (Raw, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var raw Raw
	line := 0
	for scanner.Scan() {
		line++
		if line <= headerLines {
			continue
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.FieldsFunc(text, isDelimiter)
		if len(fields) != columns {
			return nil, &ParseError{
				Path: name,
				Line: line,
				Msg:  fmt.Sprintf("expected %d columns, got %d", columns, len(fields)),
			}
		}

		var vals [columns]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &ParseError{
					Path: name,
					Line: line,
					Msg:  fmt.Sprintf("column %d: invalid number %q", i+1, field),
				}
			}
			vals[i] = v
		}
		raw = append(raw, Sample{Time: vals[0], Magnitude: vals[1], Error: vals[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: name, Line: line, Msg: err.Error()}
	}
	if len(raw) == 0 {
		return nil, &ParseError{Path: name, Msg: "no samples"}
	}
	return raw, nil
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';'
}

package targets

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semmatch/semmatch/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func origins(ts []Target) []string {
	var out []string
	for _, t := range ts {
		out = append(out, t.Origin)
	}
	return out
}

func skipReasons(ss []Skipped) map[string]SkipReason {
	out := make(map[string]SkipReason, len(ss))
	for _, s := range ss {
		out[s.Path] = s.Reason
	}
	return out
}

func testConf() config.Targets {
	return config.Targets{
		Exclude:          []string{"vendor"},
		MaxTargetBytes:   64,
		RespectGitignore: true,
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "print(1)\n")
	writeFile(t, filepath.Join(dir, "src", "b.go"), "package b\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(dir, "big.py"), strings.Repeat("x = 1\n", 20))
	writeFile(t, filepath.Join(dir, "empty.py"), "")
	writeFile(t, filepath.Join(dir, "vendor", "dep.py"), "import os\n")
	writeFile(t, filepath.Join(dir, "gen", "ignored.py"), "x = 2\n")
	writeFile(t, filepath.Join(dir, ".gitignore"), "ignored.py\n")
	writeFile(t, filepath.Join(dir, "lib.js"), "let x = 1\n")
	require.NoError(t, os.Symlink(filepath.Join(dir, "a.py"), filepath.Join(dir, "link.py")))

	res, err := Discover(context.Background(), testConf(), []string{dir}, NewLanguages("python", "go"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.py"),
		filepath.Join(dir, "src", "b.go"),
	}, origins(res.Targets))
	assert.Equal(t, "python", res.Targets[0].Language)
	assert.Equal(t, "go", res.Targets[1].Language)

	reasons := skipReasons(res.Skipped)
	assert.Equal(t, SkipWrongLanguage, reasons[filepath.Join(dir, "README.md")])
	assert.Equal(t, SkipWrongLanguage, reasons[filepath.Join(dir, "lib.js")])
	assert.Equal(t, SkipTooBig, reasons[filepath.Join(dir, "big.py")])
	assert.Equal(t, SkipEmpty, reasons[filepath.Join(dir, "empty.py")])
	assert.Equal(t, SkipExcluded, reasons[filepath.Join(dir, "vendor")])
	assert.Equal(t, SkipGitignored, reasons[filepath.Join(dir, "gen", "ignored.py")])
	assert.NotContains(t, reasons, filepath.Join(dir, "link.py"), "symlinks below a root are not followed")
}

func TestDiscover_GitignoreCanBeDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ignored.py"), "x = 2\n")
	writeFile(t, filepath.Join(dir, ".gitignore"), "ignored.py\n")

	conf := testConf()
	conf.RespectGitignore = false
	res, err := Discover(context.Background(), conf, []string{dir}, NewLanguages("python"))
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "ignored.py")}, origins(res.Targets))
}

func TestDiscover_MissingRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "print(1)\n")
	missing := filepath.Join(dir, "does-not-exist")

	res, err := Discover(context.Background(), testConf(), []string{missing, dir}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootNotFound))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), missing)
	assert.Equal(t, []string{filepath.Join(dir, "a.py")}, origins(res.Targets), "remaining roots are still scanned")
}

func TestDiscover_SymlinkRootIsResolved(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "realDir")
	writeFile(t, filepath.Join(realDir, "a.py"), "print(1)\n")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(realDir, link))
	chain := filepath.Join(dir, "chain")
	require.NoError(t, os.Symlink(link, chain))

	res, err := Discover(context.Background(), testConf(), []string{chain}, nil)
	require.NoError(t, err)

	require.Len(t, res.Targets, 1)
	target := res.Targets[0]
	assert.Equal(t, filepath.Join(chain, "a.py"), target.Origin)
	assert.NotEqual(t, target.Origin, target.Path)
	resolvedReal, err := filepath.EvalSymlinks(realDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolvedReal, "a.py"), target.Path)

	sp := target.SourcePath()
	assert.Equal(t, target.Path, sp.Internal)
	assert.Equal(t, target.Origin, sp.Display())
}

func TestDiscover_Deduplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "print(1)\n")

	res, err := Discover(context.Background(), testConf(), []string{dir, filepath.Join(dir, "a.py"), dir}, nil)
	require.NoError(t, err)

	assert.Len(t, res.Targets, 1)
}

func TestDiscover_Include(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.py"), "print(1)\n")
	writeFile(t, filepath.Join(dir, "tests", "b.py"), "print(2)\n")

	conf := testConf()
	conf.Include = []string{"src/**"}
	res, err := Discover(context.Background(), conf, []string{dir}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "src", "a.py")}, origins(res.Targets))
	assert.Equal(t, SkipNotIncluded, skipReasons(res.Skipped)[filepath.Join(dir, "tests", "b.py")])
}

func TestDiscover_UnknownExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Dockerfile.custom"), "FROM scratch\n")
	writeFile(t, filepath.Join(dir, "logo.dat"), "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	conf := testConf()
	conf.ScanUnknownExtensions = true
	res, err := Discover(context.Background(), conf, []string{dir}, nil)
	require.NoError(t, err)

	require.Equal(t, []string{filepath.Join(dir, "Dockerfile.custom")}, origins(res.Targets))
	assert.Equal(t, "", res.Targets[0].Language)
	assert.Equal(t, SkipBinary, skipReasons(res.Skipped)[filepath.Join(dir, "logo.dat")])
}

func TestSortBySize(t *testing.T) {
	ts := []Target{
		{Path: "b", Size: 10},
		{Path: "a", Size: 10},
		{Path: "c", Size: 300},
		{Path: "d", Size: 1},
	}

	SortBySize(ts)

	var paths []string
	for _, t := range ts {
		paths = append(paths, t.Path)
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, paths)
}

func TestMatchPattern(t *testing.T) {
	tests := map[string]struct {
		pattern string
		path    string
		expect  bool
	}{
		"directory name anywhere": {pattern: "vendor", path: "a/vendor/b.go", expect: true},
		"extension glob":          {pattern: "*.min.js", path: "static/app.min.js", expect: true},
		"anchored prefix":         {pattern: "src/**", path: "src/a/b.py", expect: true},
		"anchored miss":           {pattern: "src/**", path: "lib/src/b.py", expect: false},
		"parent directory":        {pattern: "build/gen", path: "build/gen/x.py", expect: true},
		"no match":                {pattern: "*.rb", path: "a.py", expect: false},
		"trailing slash":          {pattern: "node_modules/", path: "web/node_modules/x.js", expect: true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expect, matchPattern(test.pattern, test.path))
		})
	}
}

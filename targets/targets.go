package targets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/semmatch/semmatch"
	"github.com/semmatch/semmatch/config"
	"github.com/semmatch/semmatch/logging"
)

// ErrRootNotFound is returned when a scanning root does not exist. It wraps
// fs.ErrNotExist.
var ErrRootNotFound = fmt.Errorf("scanning root not found: %w", fs.ErrNotExist)

// SkipReason tells why a target was left out.
type SkipReason string

const (
	SkipExcluded      SkipReason = "excluded_by_pattern"
	SkipNotIncluded   SkipReason = "not_included"
	SkipGitignored    SkipReason = "gitignored"
	SkipTooBig        SkipReason = "too_big"
	SkipWrongLanguage SkipReason = "wrong_language"
	SkipBinary        SkipReason = "binary"
	SkipEmpty         SkipReason = "empty"
)

// Target is a regular file to scan.
type Target struct {
	// Path is the cleaned path of the file content, symlinks at the root
	// resolved.
	Path string
	// Origin is the path as reached from the scanning root given by the user.
	Origin   string
	Size     int64
	Language string
}

// SourcePath returns the finding path for this target.
func (t Target) SourcePath() semmatch.SourcePath {
	if t.Origin == t.Path {
		return semmatch.SourcePath{Internal: t.Path}
	}
	return semmatch.SourcePath{Internal: t.Path, Origin: t.Origin}
}

// Skipped is a file or directory left out of the scan.
type Skipped struct {
	Path   string
	Reason SkipReason
}

// Result of a discovery run. Targets and Skipped are sorted by path.
type Result struct {
	Targets []Target
	Skipped []Skipped
}

// Scanned returns the target paths as shown to users.
func (r Result) Scanned() []string {
	out := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		out[i] = t.Origin
	}
	return out
}

// SkippedReport returns the skipped targets in report form.
func (r Result) SkippedReport() []semmatch.Skipped {
	out := make([]semmatch.Skipped, len(r.Skipped))
	for i, s := range r.Skipped {
		out[i] = semmatch.Skipped{Path: s.Path, Reason: string(s.Reason)}
	}
	return out
}

// Discoverer expands scanning roots into targets.
type Discoverer struct {
	Conf      config.Targets
	Languages Languages

	mu      sync.Mutex
	seen    map[string]struct{}
	result  Result
	ignores map[string]*ignoreMatcher
}

// Discover expands roots into the files to scan. Roots may be files or
// directories; a root that is a symlink is resolved, but symlinks met while
// walking are not followed. Every root that does not exist is reported in the
// returned error, wrapping ErrRootNotFound, alongside the targets found
// under the remaining roots; callers decide whether to continue.
func Discover(ctx context.Context, conf config.Targets, roots []string, langs Languages) (Result, error) {
	d := &Discoverer{Conf: conf, Languages: langs}
	return d.Discover(ctx, roots)
}

func (d *Discoverer) Discover(ctx context.Context, roots []string) (Result, error) {
	d.seen = make(map[string]struct{})
	d.ignores = make(map[string]*ignoreMatcher)
	d.result = Result{}

	var errs []error
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return d.result, err
		}
		if err := d.walkRoot(ctx, root); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logging.Warn().Str("path", root).Msg("scanning root does not exist")
				errs = append(errs, fmt.Errorf("%w: %s", ErrRootNotFound, root))
				continue
			}
			return d.result, err
		}
	}

	sort.Slice(d.result.Targets, func(i, j int) bool {
		return d.result.Targets[i].Path < d.result.Targets[j].Path
	})
	sort.Slice(d.result.Skipped, func(i, j int) bool {
		return d.result.Skipped[i].Path < d.result.Skipped[j].Path
	})
	return d.result, errors.Join(errs...)
}

func (d *Discoverer) walkRoot(ctx context.Context, root string) error {
	origin := filepath.Clean(root)
	resolved, err := filepath.EvalSymlinks(origin)
	if err != nil {
		return err
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return err
	}

	projectRoot := d.projectRoot(resolved, info.IsDir())
	ignore := d.ignoreMatcher(projectRoot)

	if !info.IsDir() {
		if info.Mode().IsRegular() {
			d.consider(projectRoot, ignore, resolved, origin, info.Size())
		}
		return nil
	}

	// fastwalk runs the callback from several goroutines; consider and skip
	// take the lock.
	conf := &fastwalk.Config{Follow: false}
	return fastwalk.Walk(conf, resolved, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				logging.Warn().Str("path", path).Msg("skipping directory: permission denied")
				return fastwalk.SkipDir
			}
			logging.Warn().Err(err).Str("path", path).Msg("skipping")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == resolved {
			return nil
		}

		originPath := filepath.Join(origin, strings.TrimPrefix(path, resolved))
		if e.IsDir() {
			if e.Name() == ".git" {
				return fastwalk.SkipDir
			}
			rel := patternPath(projectRoot, path)
			if matchAny(d.Conf.Exclude, rel) {
				d.skip(originPath, SkipExcluded)
				return fastwalk.SkipDir
			}
			if d.Conf.RespectGitignore && ignore.Ignored(path, true) {
				d.skip(originPath, SkipGitignored)
				return fastwalk.SkipDir
			}
			return nil
		}

		if e.Type()&fs.ModeSymlink != 0 {
			logging.Debug().Str("path", path).Msg("skipping symlink: not followed below a root")
			return nil
		}
		if !e.Type().IsRegular() {
			return nil
		}
		info, err := e.Info()
		if err != nil {
			logging.Error().Err(err).Str("path", path).Msg("skipping file: could not get info")
			return nil
		}
		d.consider(projectRoot, ignore, path, originPath, info.Size())
		return nil
	})
}

// consider applies the target filters to one regular file.
func (d *Discoverer) consider(projectRoot string, ignore *ignoreMatcher, path, origin string, size int64) {
	rel := patternPath(projectRoot, path)
	switch {
	case matchAny(d.Conf.Exclude, rel):
		d.skip(origin, SkipExcluded)
		return
	case len(d.Conf.Include) > 0 && !matchAny(d.Conf.Include, rel):
		d.skip(origin, SkipNotIncluded)
		return
	case d.Conf.RespectGitignore && ignore.Ignored(path, false):
		d.skip(origin, SkipGitignored)
		return
	case size == 0:
		d.skip(origin, SkipEmpty)
		return
	case d.Conf.MaxTargetBytes > 0 && size > d.Conf.MaxTargetBytes:
		logging.Debug().
			Str("path", origin).
			Int64("size", size).
			Int64("max_size", d.Conf.MaxTargetBytes).
			Msg("skipping file: too large")
		d.skip(origin, SkipTooBig)
		return
	}

	lang := LanguageOf(path)
	if !d.Languages.Accepts(lang) {
		if lang != "" || !d.Conf.ScanUnknownExtensions {
			d.skip(origin, SkipWrongLanguage)
			return
		}
		if isBinary(path) {
			d.skip(origin, SkipBinary)
			return
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[path]; ok {
		return
	}
	d.seen[path] = struct{}{}
	d.result.Targets = append(d.result.Targets, Target{
		Path:     path,
		Origin:   origin,
		Size:     size,
		Language: lang,
	})
}

func (d *Discoverer) skip(path string, reason SkipReason) {
	logging.Trace().Str("path", path).Str("reason", string(reason)).Msg("skipping")
	d.mu.Lock()
	d.result.Skipped = append(d.result.Skipped, Skipped{Path: path, Reason: reason})
	d.mu.Unlock()
}

func (d *Discoverer) projectRoot(resolved string, isDir bool) string {
	if d.Conf.ProjectRoot != "" {
		if abs, err := filepath.Abs(d.Conf.ProjectRoot); err == nil {
			return abs
		}
		return d.Conf.ProjectRoot
	}
	if isDir {
		return resolved
	}
	return filepath.Dir(resolved)
}

func (d *Discoverer) ignoreMatcher(projectRoot string) *ignoreMatcher {
	if !d.Conf.RespectGitignore {
		return nil
	}
	if m, ok := d.ignores[projectRoot]; ok {
		return m
	}
	m := newIgnoreMatcher(projectRoot)
	d.ignores[projectRoot] = m
	return m
}

// patternPath is the slash separated path include and exclude patterns are
// matched against.
func patternPath(projectRoot, path string) string {
	if rel, ok := relative(projectRoot, path); ok {
		return rel
	}
	return filepath.ToSlash(filepath.Base(path))
}

// SortBySize orders targets by decreasing size so the largest files start
// first and parallel workers finish close together. Ties are broken by path.
func SortBySize(ts []Target) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].Size != ts[j].Size {
			return ts[i].Size > ts[j].Size
		}
		return ts[i].Path < ts[j].Path
	})
}

package targets

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/h2non/filetype"

	"github.com/semmatch/semmatch/logging"
)

// matchPattern reports whether rel, a slash separated path relative to the
// project root, is matched by p. A pattern matches a path when it matches the
// path or one of its parent directories; a pattern without a slash also
// matches any single path component.
func matchPattern(p, rel string) bool {
	p = strings.TrimSuffix(strings.TrimPrefix(p, "./"), "/")
	if p == "" {
		return false
	}
	anywhere := !strings.Contains(p, "/")
	parts := strings.Split(rel, "/")
	for i := range parts {
		if ok, _ := doublestar.Match(p, strings.Join(parts[:i+1], "/")); ok {
			return true
		}
		if anywhere {
			if ok, _ := doublestar.Match(p, parts[i]); ok {
				return true
			}
		}
	}
	return false
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if matchPattern(p, rel) {
			return true
		}
	}
	return false
}

// ignoreMatcher applies the .gitignore files found under a project root.
type ignoreMatcher struct {
	root    string
	matcher gitignore.Matcher
}

func newIgnoreMatcher(root string) *ignoreMatcher {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		logging.Warn().Err(err).Str("root", root).Msg("could not read .gitignore files")
		return nil
	}
	if len(patterns) == 0 {
		return nil
	}
	return &ignoreMatcher{root: root, matcher: gitignore.NewMatcher(patterns)}
}

// Ignored reports whether path is ignored. Paths outside the root are never
// ignored.
func (m *ignoreMatcher) Ignored(path string, isDir bool) bool {
	if m == nil {
		return false
	}
	rel, ok := relative(m.root, path)
	if !ok {
		return false
	}
	return m.matcher.Match(strings.Split(rel, "/"), isDir)
}

// relative returns path relative to root with forward slashes, and false
// when path is not below root.
func relative(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// headerSize is the number of leading bytes filetype needs to recognise a
// format.
const headerSize = 262

// isBinary reports whether the file starts like an image, archive, audio or
// video file.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	head = head[:n]
	return filetype.IsImage(head) ||
		filetype.IsArchive(head) ||
		filetype.IsAudio(head) ||
		filetype.IsVideo(head)
}

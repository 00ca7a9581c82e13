package scan

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/semmatch/semmatch"
	"github.com/semmatch/semmatch/logging"
)

// IgnoreFileName is the ignore file looked up next to the scanned sources.
const IgnoreFileName = ".semmatchignore"

// IgnoreEntry is one parsed line of an ignore file. Entries use the
// fingerprint format
//
//	{path}!{rule_id}!{bindings_hash}#L{start}-{end}#C{start}-{end}
//
// where any of the three segments may be "*" and trailing segments and
// anchors may be left out; empty fields below are wildcards. The path
// segment may be a doublestar glob.
type IgnoreEntry struct {
	Path         string
	RuleID       string
	BindingsHash string

	StartLine   int
	EndLine     int
	hasLines    bool
	StartColumn int
	EndColumn   int
	hasColumns  bool
}

// ParseIgnoreEntry parses a single ignore file line. It returns nil for
// comments, blank lines and malformed entries. exact is true when the entry
// names a complete fingerprint and can be matched by string comparison.
func ParseIgnoreEntry(line string) (e *IgnoreEntry, exact bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}

	e = &IgnoreEntry{}
	if i := strings.Index(line, "#L"); i >= 0 {
		if !e.parseAnchor(line[i+1:]) {
			return nil, false
		}
		line = line[:i]
	} else if i := strings.Index(line, "#C"); i >= 0 {
		if !e.parseAnchor(line[i+1:]) {
			return nil, false
		}
		line = line[:i]
	}

	segments := strings.Split(line, "!")
	if len(segments) > 3 {
		return nil, false
	}
	for i, s := range segments {
		if s == "*" {
			continue
		}
		switch i {
		case 0:
			e.Path = strings.ReplaceAll(s, "\\", "/")
		case 1:
			e.RuleID = s
		case 2:
			e.BindingsHash = s
		}
	}

	if e.Path == "" && e.RuleID == "" && e.BindingsHash == "" && !e.hasLines && !e.hasColumns {
		// would ignore everything
		return nil, false
	}
	exact = e.Path != "" && !isGlob(e.Path) && e.RuleID != "" && e.BindingsHash != "" && e.hasLines && e.hasColumns
	return e, exact
}

// parseAnchor reads "L10-12#C5-40", "L10-12" or "C5-40".
func (e *IgnoreEntry) parseAnchor(s string) bool {
	for _, part := range strings.Split(s, "#") {
		if len(part) < 2 {
			return false
		}
		start, end, ok := parseSpan(part[1:])
		if !ok {
			return false
		}
		switch part[0] {
		case 'L':
			e.StartLine, e.EndLine, e.hasLines = start, end, true
		case 'C':
			e.StartColumn, e.EndColumn, e.hasColumns = start, end, true
		default:
			return false
		}
	}
	return true
}

func parseSpan(s string) (int, int, bool) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, false
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// String renders the entry in fingerprint format.
func (e *IgnoreEntry) String() string {
	wild := func(s string) string {
		if s == "" {
			return "*"
		}
		return s
	}
	var b strings.Builder
	b.WriteString(wild(e.Path))
	b.WriteByte('!')
	b.WriteString(wild(e.RuleID))
	b.WriteByte('!')
	b.WriteString(wild(e.BindingsHash))
	if e.hasLines {
		b.WriteString("#L" + strconv.Itoa(e.StartLine) + "-" + strconv.Itoa(e.EndLine))
	}
	if e.hasColumns {
		b.WriteString("#C" + strconv.Itoa(e.StartColumn) + "-" + strconv.Itoa(e.EndColumn))
	}
	return b.String()
}

// Matches reports whether f is covered by the entry.
func (e *IgnoreEntry) Matches(f semmatch.Finding) bool {
	if e.RuleID != "" && e.RuleID != f.RuleID() {
		return false
	}
	if e.hasLines && (e.StartLine != f.Range.Start.Line || e.EndLine != f.Range.End.Line) {
		return false
	}
	if e.hasColumns && (e.StartColumn != f.Range.Start.Col || e.EndColumn != f.Range.End.Col) {
		return false
	}
	if e.Path != "" && !e.matchPath(f.Path) {
		return false
	}
	if e.BindingsHash != "" && e.BindingsHash != f.BindingsHash() {
		return false
	}
	return true
}

func (e *IgnoreEntry) matchPath(p semmatch.SourcePath) bool {
	for _, candidate := range []string{p.Display(), p.Internal} {
		candidate = filepath.ToSlash(candidate)
		if isGlob(e.Path) {
			if ok, _ := doublestar.Match(e.Path, candidate); ok {
				return true
			}
			continue
		}
		if candidate == e.Path {
			return true
		}
	}
	return false
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// IgnoreSet holds the entries of one or more ignore files. Exact entries are
// looked up by fingerprint; the rest are indexed by rule ID where they name
// one.
type IgnoreSet struct {
	exact     map[string]struct{}
	matchers  map[string][]*IgnoreEntry
	unindexed []*IgnoreEntry
}

func NewIgnoreSet() *IgnoreSet {
	return &IgnoreSet{
		exact:    make(map[string]struct{}),
		matchers: make(map[string][]*IgnoreEntry),
	}
}

// Add parses line and adds it to the set. It reports whether the line held
// an entry.
func (s *IgnoreSet) Add(line string) bool {
	e, exact := ParseIgnoreEntry(line)
	if e == nil {
		return false
	}
	switch {
	case exact:
		s.exact[e.String()] = struct{}{}
	case e.RuleID != "":
		s.matchers[e.RuleID] = append(s.matchers[e.RuleID], e)
	default:
		s.unindexed = append(s.unindexed, e)
	}
	return true
}

// Len returns the number of entries in the set.
func (s *IgnoreSet) Len() int {
	if s == nil {
		return 0
	}
	n := len(s.exact) + len(s.unindexed)
	for _, ms := range s.matchers {
		n += len(ms)
	}
	return n
}

// IsIgnored reports whether f is covered by an entry of the set. A nil set
// ignores nothing.
func (s *IgnoreSet) IsIgnored(f semmatch.Finding) bool {
	if s.Len() == 0 {
		return false
	}
	if _, ok := s.exact[f.Fingerprint()]; ok {
		return true
	}
	if f.Path.Origin != "" {
		internal := f
		internal.Path = semmatch.SourcePath{Internal: f.Path.Internal}
		if _, ok := s.exact[internal.Fingerprint()]; ok {
			return true
		}
	}
	for _, e := range s.matchers[f.RuleID()] {
		if e.Matches(f) {
			return true
		}
	}
	for _, e := range s.unindexed {
		if e.Matches(f) {
			return true
		}
	}
	return false
}

// Filter returns the findings of fs not covered by the set.
func (s *IgnoreSet) Filter(fs []semmatch.Finding) []semmatch.Finding {
	if s.Len() == 0 {
		return fs
	}
	out := make([]semmatch.Finding, 0, len(fs))
	for _, f := range fs {
		if s.IsIgnored(f) {
			logging.Trace().
				Str("rule", f.RuleID()).
				Str("fingerprint", f.Fingerprint()).
				Msg("skipping finding: ignored")
			continue
		}
		out = append(out, f)
	}
	return out
}

// LoadIgnoreFile reads an ignore file into set. The file holds one entry
// per line; blank lines and lines starting with # are skipped.
func LoadIgnoreFile(path string, set *IgnoreSet) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !set.Add(line) {
			logging.Warn().Str("entry", line).Str("path", path).Msg("invalid ignore file entry")
		}
	}
	return scanner.Err()
}

// LoadIgnoreFiles loads ignorePath, which may be a file or a directory
// holding an ignore file, and the ignore file at the root of sourcePath.
// Missing files are skipped.
func LoadIgnoreFiles(ignorePath string, sourcePath string) *IgnoreSet {
	set := NewIgnoreSet()

	tryLoad := func(path string) {
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return
		}
		logging.Debug().Str("path", path).Msg("loading ignore file")
		if err := LoadIgnoreFile(path, set); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("failed to load ignore file")
		}
	}

	if ignorePath != "" {
		tryLoad(ignorePath)
		tryLoad(filepath.Join(ignorePath, IgnoreFileName))
	}
	if sourcePath != "" && sourcePath != ignorePath {
		tryLoad(filepath.Join(sourcePath, IgnoreFileName))
	}

	return set
}

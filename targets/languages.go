package targets

import (
	"path/filepath"
	"strings"
)

var extensions = map[string]string{
	".bash":  "bash",
	".sh":    "bash",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".go":    "go",
	".java":  "java",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".json":  "json",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".lua":   "lua",
	".ml":    "ocaml",
	".mli":   "ocaml",
	".php":   "php",
	".py":    "python",
	".pyi":   "python",
	".rb":    "ruby",
	".rs":    "rust",
	".scala": "scala",
	".swift": "swift",
	".tf":    "terraform",
	".hcl":   "terraform",
	".ts":    "typescript",
	".tsx":   "typescript",
	".yaml":  "yaml",
	".yml":   "yaml",
}

// LanguageOf returns the language a file is written in, judged by its
// extension, or "" if the extension is unknown.
func LanguageOf(path string) string {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Languages is the set of languages a scan targets. An empty set accepts
// every known language.
type Languages map[string]struct{}

func NewLanguages(names ...string) Languages {
	l := make(Languages, len(names))
	for _, n := range names {
		l[strings.ToLower(n)] = struct{}{}
	}
	return l
}

// Accepts reports whether files of language lang are scanned.
func (l Languages) Accepts(lang string) bool {
	if lang == "" {
		return false
	}
	if len(l) == 0 {
		return true
	}
	_, ok := l[lang]
	return ok
}

package diff

import (
	"path/filepath"
	"regexp"
	"strings"
)

// functionPattern pairs a language tag with a signature pattern whose first
// capture group is the function name.
//
// These are heuristics, not a parser. They miss multi-line signatures and can
// match lines that only look like declarations; both are accepted.
type functionPattern struct {
	language string
	re       *regexp.Regexp
}

// functionPatterns is tried in order; the first match wins
var functionPatterns = []functionPattern{
	{"go", regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*[\[(]`)},
	{"javascript", regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*[<(]`)},
	{"javascript", regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*(?::[^=]+)?=>`)},
	{"python", regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)},
	{"ruby", regexp.MustCompile(`^\s*def\s+(?:self\.)?([A-Za-z_]\w*[?!]?)`)},
	{"rust", regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_]\w*)`)},
	{"kotlin", regexp.MustCompile(`^\s*(?:(?:public|private|internal|protected|override|suspend|inline|open)\s+)*fun\s+(?:<[^>]+>\s*)?(?:[\w.]+\.)?([A-Za-z_]\w*)\s*\(`)},
	{"java", regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|final|abstract|override|virtual|async|synchronized)\s+)+[\w<>\[\],.?]+\s+([A-Za-z_]\w*)\s*\(`)},
	{"javascript", regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|async|get|set)\s+)*([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*(?::\s*[^{]+)?\{\s*$`)},
}

// languageAliases maps hints onto the tag whose patterns cover them
var languageAliases = map[string]string{
	"typescript": "javascript",
	"ts":         "javascript",
	"js":         "javascript",
	"csharp":     "java",
	"c#":         "java",
	"golang":     "go",
	"py":         "python",
	"rb":         "ruby",
	"rs":         "rust",
	"kt":         "kotlin",
}

var extensionLanguages = map[string]string{
	".go":   "go",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".rb":   "ruby",
	".rs":   "rust",
	".java": "java",
	".cs":   "csharp",
	".kt":   "kotlin",
	".kts":  "kotlin",
}

// control-flow keywords that the generic method pattern would otherwise
// report as function names
var notFunctionNames = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "return": {},
	"function": {}, "else": {}, "do": {}, "try": {}, "with": {}, "new": {},
}

// LanguageFromPath returns the language tag for a file path, or "" when the
// extension is not recognized
func LanguageFromPath(path string) string {
	return extensionLanguages[strings.ToLower(filepath.Ext(path))]
}

// patternsFor returns the patterns for a hint, or every pattern when the hint
// is empty or unknown
func patternsFor(languageHint string) []functionPattern {
	lang := strings.ToLower(strings.TrimSpace(languageHint))
	if alias, ok := languageAliases[lang]; ok {
		lang = alias
	}
	if lang == "" {
		return functionPatterns
	}

	var selected []functionPattern
	for _, p := range functionPatterns {
		if p.language == lang {
			selected = append(selected, p)
		}
	}
	if len(selected) == 0 {
		return functionPatterns
	}
	return selected
}

func matchFunction(content string, patterns []functionPattern) string {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if _, skip := notFunctionNames[m[1]]; skip {
			continue
		}
		return m[1]
	}
	return ""
}

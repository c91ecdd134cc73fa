package types

import (
	"path/filepath"
	"strings"
)

// Language identifies a supported programming language. The set is closed:
// every language maps to exactly one boundary-detection strategy, so adding
// a language means adding a constant and an entry in the tables below, not
// a new code path.
type Language string

const (
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangC          Language = "c"
	LangCPP        Language = "cpp"
	LangCSharp     Language = "csharp"
	LangRust       Language = "rust"
	LangRuby       Language = "ruby"
	LangUnknown    Language = "unknown"
)

// BoundaryStyle selects how declaration bodies are delimited in a language.
type BoundaryStyle int

const (
	// BoundaryNone means the language has no recognized block syntax;
	// files are chunked whole.
	BoundaryNone BoundaryStyle = iota
	// BoundaryIndent means a body ends at the first non-blank line whose
	// indentation is <= the declaration line's.
	BoundaryIndent
	// BoundaryBrace means a body ends when the running count of '{' minus
	// '}' returns to zero after having gone positive.
	BoundaryBrace
)

var extToLanguage = map[string]Language{
	".py":   LangPython,
	".go":   LangGo,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".ts":   LangTypeScript,
	".tsx":  LangTypeScript,
	".java": LangJava,
	".c":    LangC,
	".h":    LangC,
	".cpp":  LangCPP,
	".cc":   LangCPP,
	".hpp":  LangCPP,
	".cs":   LangCSharp,
	".rs":   LangRust,
	".rb":   LangRuby,
}

var languageBoundary = map[Language]BoundaryStyle{
	LangPython:     BoundaryIndent,
	LangRuby:       BoundaryIndent,
	LangGo:         BoundaryBrace,
	LangJavaScript: BoundaryBrace,
	LangTypeScript: BoundaryBrace,
	LangJava:       BoundaryBrace,
	LangC:          BoundaryBrace,
	LangCPP:        BoundaryBrace,
	LangCSharp:     BoundaryBrace,
	LangRust:       BoundaryBrace,
}

// DetectLanguage maps a file path to a Language by extension.
// Unrecognized extensions return LangUnknown.
func DetectLanguage(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extToLanguage[ext]; ok {
		return lang
	}
	return LangUnknown
}

// Boundary returns the boundary-detection strategy for the language.
func (l Language) Boundary() BoundaryStyle {
	if style, ok := languageBoundary[l]; ok {
		return style
	}
	return BoundaryNone
}

// Valid reports whether l is one of the declared Language constants.
func (l Language) Valid() bool {
	switch l {
	case LangPython, LangGo, LangJavaScript, LangTypeScript, LangJava,
		LangC, LangCPP, LangCSharp, LangRust, LangRuby, LangUnknown:
		return true
	default:
		return false
	}
}

// CodeExtensions returns the set of file extensions the chunker understands.
func CodeExtensions() []string {
	exts := make([]string, 0, len(extToLanguage))
	for ext := range extToLanguage {
		exts = append(exts, ext)
	}
	return exts
}

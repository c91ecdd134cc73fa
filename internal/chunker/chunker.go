package chunker

import (
	"path/filepath"
	"regexp"
	"strings"

	"techdoc/pkg/types"
)

// declPattern matches one declaration form for a language. The submatch
// layout is fixed: group 1 is leading whitespace, group 2 is the name.
type declPattern struct {
	kind types.ChunkKind
	re   *regexp.Regexp
}

// Patterns are heuristic by contract: they detect structural boundaries,
// not semantics. Unusual formatting may be mis-detected; that is accepted
// and must never crash.
var languagePatterns = map[types.Language][]declPattern{
	types.LangPython: {
		{types.ChunkClass, regexp.MustCompile(`^(\s*)class\s+(\w+)`)},
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)`)},
	},
	types.LangRuby: {
		{types.ChunkClass, regexp.MustCompile(`^(\s*)(?:class|module)\s+(\w+)`)},
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)def\s+([\w?!]+)`)},
	},
	types.LangGo: {
		{types.ChunkClass, regexp.MustCompile(`^(\s*)type\s+(\w+)\s+(?:struct|interface)\b`)},
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)func\s+(?:\([^)]*\)\s+)?(\w+)`)},
	},
	types.LangJavaScript: {
		{types.ChunkClass, regexp.MustCompile(`^(\s*)(?:export\s+)?(?:default\s+)?class\s+(\w+)`)},
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)`)},
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|\w+\s*=>)`)},
	},
	types.LangJava: {
		{types.ChunkClass, regexp.MustCompile(`^(\s*)(?:public\s+|private\s+|protected\s+)?(?:static\s+)?(?:final\s+|abstract\s+)?(?:class|interface|enum)\s+(\w+)`)},
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)(?:public|private|protected)\s+(?:static\s+)?[\w<>\[\],\s]+\s+(\w+)\s*\([^;]*$`)},
	},
	types.LangC: {
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)(?:static\s+|inline\s+)*[\w\*]+[\w\s\*]*\s+\*?(\w+)\s*\([^;]*\)\s*\{?\s*$`)},
	},
	types.LangCPP: {
		{types.ChunkClass, regexp.MustCompile(`^(\s*)(?:class|struct)\s+(\w+)`)},
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)(?:static\s+|inline\s+|virtual\s+)*[\w:<>\*&]+[\w:<>\s\*&]*\s+\*?(\w+)\s*\([^;]*\)\s*(?:const\s*)?\{?\s*$`)},
	},
	types.LangCSharp: {
		{types.ChunkClass, regexp.MustCompile(`^(\s*)(?:public\s+|private\s+|internal\s+|protected\s+)?(?:static\s+|sealed\s+|abstract\s+|partial\s+)*(?:class|interface|struct|record)\s+(\w+)`)},
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)(?:public|private|internal|protected)\s+(?:static\s+|async\s+|virtual\s+|override\s+)*[\w<>\[\],\s]+\s+(\w+)\s*\([^;]*$`)},
	},
	types.LangRust: {
		{types.ChunkClass, regexp.MustCompile(`^(\s*)(?:pub\s+)?(?:struct|enum|trait)\s+(\w+)`)},
		{types.ChunkFunction, regexp.MustCompile(`^(\s*)(?:pub\s+)?(?:async\s+)?fn\s+(\w+)`)},
	},
}

// TypeScript shares the JavaScript declaration forms plus interfaces.
func init() {
	tsPatterns := append([]declPattern{
		{types.ChunkClass, regexp.MustCompile(`^(\s*)(?:export\s+)?interface\s+(\w+)`)},
	}, languagePatterns[types.LangJavaScript]...)
	languagePatterns[types.LangTypeScript] = tsPatterns
}

// declaration is one discovered boundary before chunk extraction.
type declaration struct {
	kind    types.ChunkKind
	name    string
	lineIdx int // 0-based
	indent  int
	parent  string
	endLine int // exclusive 0-based bound; equals 1-based final line
}

// Chunker splits file content into logical chunks by scanning for
// declaration boundaries. It performs no parsing.
type Chunker struct{}

// New creates a new Chunker instance
func New() *Chunker {
	return &Chunker{}
}

// Chunk splits content into an ordered sequence of chunks for the given
// language. If no declarations are found, or the language has no block
// syntax, the whole file is returned as a single module chunk. The result
// is never empty for non-empty content and this never fails: mis-detection
// degrades to whole-file chunking.
func (c *Chunker) Chunk(path, content string, lang types.Language) []types.Chunk {
	lines := strings.Split(content, "\n")
	// A trailing newline produces a phantom empty final element; drop it so
	// end-line clamping reflects real file length.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}

	style := lang.Boundary()
	patterns := languagePatterns[lang]
	if style == types.BoundaryNone || len(patterns) == 0 {
		return []types.Chunk{moduleChunk(path, content, lines, lang)}
	}

	decls := scanDeclarations(lines, patterns, style)
	if len(decls) == 0 {
		return []types.Chunk{moduleChunk(path, content, lines, lang)}
	}

	chunks := make([]types.Chunk, 0, len(decls))
	for _, d := range decls {
		start := d.lineIdx + 1
		end := d.endLine
		if end > len(lines) {
			end = len(lines)
		}
		if end < start {
			end = start
		}
		chunks = append(chunks, types.Chunk{
			Kind:      d.kind,
			Name:      d.name,
			StartLine: start,
			EndLine:   end,
			Content:   strings.Join(lines[start-1:end], "\n"),
			FilePath:  path,
			Language:  lang,
			Parent:    d.parent,
		})
	}
	return chunks
}

// scanDeclarations walks the lines in source order, matching declaration
// patterns and computing each declaration's block end per the language's
// boundary style. Nesting is decided by indentation comparison against the
// most recent enclosing declaration, never by parsing.
func scanDeclarations(lines []string, patterns []declPattern, style types.BoundaryStyle) []declaration {
	var decls []declaration

	for i, line := range lines {
		for _, p := range patterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			d := declaration{
				kind:    p.kind,
				name:    m[2],
				lineIdx: i,
				indent:  len(m[1]),
			}
			// A declaration indented past an earlier, still-open declaration
			// is nested inside it.
			for j := len(decls) - 1; j >= 0; j-- {
				prev := decls[j]
				if d.indent > prev.indent && i < prev.endLine {
					d.parent = prev.name
					break
				}
			}
			switch style {
			case types.BoundaryIndent:
				d.endLine = findIndentBlockEnd(lines, i)
			case types.BoundaryBrace:
				d.endLine = findBraceBlockEnd(lines, i)
			}
			decls = append(decls, d)
			break // first matching pattern wins for a line
		}
	}

	// Clamp each block so it never runs into the next declaration at the
	// same or shallower depth (protects against unbalanced braces).
	for i := range decls {
		for j := i + 1; j < len(decls); j++ {
			if decls[j].indent <= decls[i].indent && decls[j].lineIdx < decls[i].endLine {
				decls[i].endLine = decls[j].lineIdx
				break
			}
		}
	}
	return decls
}

// findIndentBlockEnd returns the exclusive 0-based bound of an
// indentation-delimited block: the first subsequent non-blank line whose
// indentation is <= the declaration line's.
func findIndentBlockEnd(lines []string, start int) int {
	if start >= len(lines) {
		return len(lines)
	}
	base := indentOf(lines[start])

	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if indentOf(lines[i]) <= base {
			return i
		}
	}
	return len(lines)
}

// findBraceBlockEnd returns the exclusive 0-based bound of a
// brace-delimited block: the line after the one where the running count of
// '{' minus '}' returns to zero, having gone positive. Equivalently, the
// returned value is the 1-based number of the closing-brace line.
func findBraceBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false

	for i := start; i < len(lines); i++ {
		depth += strings.Count(lines[i], "{")
		depth -= strings.Count(lines[i], "}")
		if strings.Contains(lines[i], "{") {
			opened = true
		}
		if opened && depth <= 0 {
			return i + 1
		}
	}
	return len(lines)
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// moduleChunk wraps the entire file as a single chunk of kind module.
func moduleChunk(path, content string, lines []string, lang types.Language) types.Chunk {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return types.Chunk{
		Kind:      types.ChunkModule,
		Name:      name,
		StartLine: 1,
		EndLine:   len(lines),
		Content:   strings.TrimSuffix(content, "\n"),
		FilePath:  path,
		Language:  lang,
	}
}

package docgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"techdoc/internal/embedder"
	"techdoc/internal/llm"
	"techdoc/internal/storage"
	"techdoc/internal/vecindex"
	"techdoc/pkg/types"
)

// ErrUnknownDocType is returned for a documentation type without a template.
var ErrUnknownDocType = errors.New("unknown documentation type")

const (
	contextChunks   = 10
	sampleChunks    = 2
	feedbackEntries = 5
	changeEntries   = 50
)

// Store is the persistence surface docgen needs. Satisfied by
// storage.SQLiteStorage.
type Store interface {
	SaveDocument(ctx context.Context, doc *storage.Document) error
	LatestDocument(ctx context.Context, docType string) (*storage.Document, error)
	ListFeedback(ctx context.Context, docType string, limit int) ([]*storage.Feedback, error)
	RecentChanges(ctx context.Context, limit int) ([]types.ChangeRecord, error)
	ListFileRecords(ctx context.Context) ([]*types.FileRecord, error)
}

// Searcher is the retrieval surface docgen needs. Satisfied by
// vecindex.Index.
type Searcher interface {
	Search(queryVector []float32, k int) ([]vecindex.Result, error)
	KeywordSearch(query string, k int) ([]vecindex.Result, error)
	GetStats() vecindex.Stats
}

// Generator assembles retrieval context, folds in user feedback, and
// drives the LLM to produce documentation artifacts.
type Generator struct {
	projectRoot string
	outputDir   string
	store       Store
	index       Searcher
	embed       embedder.Embedder
	chat        llm.Generator
	log         zerolog.Logger
}

// Options configures a Generator.
type Options struct {
	ProjectRoot string
	OutputDir   string
}

// New creates a documentation Generator.
func New(opts Options, store Store, index Searcher, embed embedder.Embedder, chat llm.Generator, log zerolog.Logger) *Generator {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(opts.ProjectRoot, "docs")
	}
	return &Generator{
		projectRoot: opts.ProjectRoot,
		outputDir:   outputDir,
		store:       store,
		index:       index,
		embed:       embed,
		chat:        chat,
		log:         log,
	}
}

// Generate produces a fresh document of the given type, stores it, and
// writes it to outputPath (or the type's default path when empty).
func (g *Generator) Generate(ctx context.Context, docType, outputPath string) (*storage.Document, error) {
	docType = strings.ToLower(docType)
	tmpl, ok := promptTemplates[docType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocType, docType)
	}

	pc, err := g.gatherContext(ctx, docType)
	if err != nil {
		return nil, err
	}

	prompt, err := renderPrompt(tmpl, pc)
	if err != nil {
		return nil, err
	}
	prompt, err = g.foldFeedback(ctx, docType, prompt)
	if err != nil {
		return nil, err
	}

	return g.complete(ctx, docType, prompt, outputPath)
}

// Update regenerates an existing document in light of recent changes.
// With no recorded changes, or no prior document, it falls back to a
// full Generate.
func (g *Generator) Update(ctx context.Context, docType, outputPath string) (*storage.Document, error) {
	docType = strings.ToLower(docType)
	tmpl, ok := updateTemplates[docType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocType, docType)
	}

	existing, err := g.store.LatestDocument(ctx, docType)
	if errors.Is(err, storage.ErrNotFound) {
		return g.Generate(ctx, docType, outputPath)
	}
	if err != nil {
		return nil, err
	}

	changes, err := g.store.RecentChanges(ctx, changeEntries)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		g.log.Info().Str("doc_type", docType).Msg("no changes recorded, document is current")
		return existing, nil
	}

	pc, err := g.gatherContext(ctx, docType)
	if err != nil {
		return nil, err
	}
	pc.RecentChanges = formatChanges(changes)
	pc.ExistingDoc = existing.Content

	prompt, err := renderPrompt(tmpl, pc)
	if err != nil {
		return nil, err
	}
	prompt, err = g.foldFeedback(ctx, docType, prompt)
	if err != nil {
		return nil, err
	}

	return g.complete(ctx, docType, prompt, outputPath)
}

func (g *Generator) complete(ctx context.Context, docType, prompt, outputPath string) (*storage.Document, error) {
	content, err := g.chat.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", docType, err)
	}
	content = strings.TrimSpace(content)

	if outputPath == "" {
		outputPath = filepath.Join(g.outputDir, outputFilenames[docType])
	}

	doc := &storage.Document{
		DocType:     docType,
		FilePath:    outputPath,
		Content:     content,
		VersionHash: g.corpusHash(ctx),
	}
	if err := g.store.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}

	if err := writeDocument(outputPath, content); err != nil {
		return nil, err
	}

	g.log.Info().
		Str("doc_type", docType).
		Str("path", outputPath).
		Int64("doc_id", doc.ID).
		Msg("documentation generated")
	return doc, nil
}

// gatherContext builds the prompt context from the index and file records.
func (g *Generator) gatherContext(ctx context.Context, docType string) (promptContext, error) {
	pc := promptContext{
		ProjectRoot: g.projectRoot,
		ProjectName: filepath.Base(g.projectRoot),
	}

	records, err := g.store.ListFileRecords(ctx)
	if err != nil {
		return pc, err
	}
	pc.FileCount = len(records)
	pc.CodebaseStructure = structureSummary(records)
	pc.PrimaryLanguage = primaryLanguage(g.index.GetStats())

	results := g.retrieve(ctx, fmt.Sprintf("main functionality for %s documentation", docType))
	pc.KeyComponents = formatComponents(results)
	pc.SampleCode = formatSamples(results)

	changes, err := g.store.RecentChanges(ctx, changeEntries)
	if err != nil {
		return pc, err
	}
	pc.RecentChanges = formatChanges(changes)

	return pc, nil
}

// retrieve runs semantic search, degrading to keyword search when the
// query cannot be embedded.
func (g *Generator) retrieve(ctx context.Context, query string) []vecindex.Result {
	emb, err := g.embed.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query, Task: embedder.TaskQuery})
	if err == nil {
		results, serr := g.index.Search(emb.Vector, contextChunks)
		if serr == nil {
			return results
		}
		err = serr
	}

	g.log.Warn().Err(err).Msg("semantic retrieval unavailable, using keyword search")
	results, err := g.index.KeywordSearch(query, contextChunks)
	if err != nil {
		return nil
	}
	return results
}

// foldFeedback appends stored user feedback to the prompt so repeated
// complaints actually change future output.
func (g *Generator) foldFeedback(ctx context.Context, docType, prompt string) (string, error) {
	items, err := g.store.ListFeedback(ctx, docType, feedbackEntries)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, fb := range items {
		if fb.Comment != "" {
			lines = append(lines, fb.Comment)
		}
	}
	if len(lines) == 0 {
		return prompt, nil
	}

	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\nIMPORTANT - Based on user feedback, please avoid these common issues:\n")
	for i, line := range lines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, line)
	}
	return sb.String(), nil
}

// corpusHash identifies the code state a document was generated from.
func (g *Generator) corpusHash(ctx context.Context) string {
	records, err := g.store.ListFileRecords(ctx)
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for _, rec := range records {
		sb.WriteString(rec.Path)
		sb.WriteString(rec.ContentHash)
	}
	return types.HashContent([]byte(sb.String()))
}

func writeDocument(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return os.WriteFile(path, []byte(content+"\n"), 0o644)
}

func formatComponents(results []vecindex.Result) string {
	if len(results) == 0 {
		return "No indexed components found"
	}
	var lines []string
	for _, r := range results {
		name := r.Chunk.Name
		if name == "" {
			name = filepath.Base(r.Chunk.FilePath)
		}
		lines = append(lines, fmt.Sprintf("- %s (%s) in %s", name, r.Chunk.Kind, r.Chunk.FilePath))
	}
	return strings.Join(lines, "\n")
}

func formatSamples(results []vecindex.Result) string {
	if len(results) == 0 {
		return "No code samples available"
	}
	n := sampleChunks
	if len(results) < n {
		n = len(results)
	}
	var blocks []string
	for _, r := range results[:n] {
		code := r.Chunk.Content
		if len(code) > 600 {
			code = code[:600]
		}
		blocks = append(blocks, fmt.Sprintf("```%s\n%s\n```", r.Chunk.Language, code))
	}
	return strings.Join(blocks, "\n\n")
}

func formatChanges(changes []types.ChangeRecord) string {
	if len(changes) == 0 {
		return "No recent changes recorded"
	}
	var lines []string
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("- %s: %s", c.Kind, c.Path))
	}
	return strings.Join(lines, "\n")
}

// structureSummary renders a compact directory listing from file records.
func structureSummary(records []*types.FileRecord) string {
	if len(records) == 0 {
		return "No files indexed yet"
	}

	byDir := make(map[string][]string)
	for _, rec := range records {
		dir := filepath.Dir(rec.Path)
		byDir[dir] = append(byDir[dir], filepath.Base(rec.Path))
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var sb strings.Builder
	for _, dir := range dirs {
		fmt.Fprintf(&sb, "%s/\n", dir)
		sort.Strings(byDir[dir])
		for _, f := range byDir[dir] {
			fmt.Fprintf(&sb, "  %s\n", f)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func primaryLanguage(stats vecindex.Stats) string {
	best := "unknown"
	bestCount := 0
	langs := make([]string, 0, len(stats.Languages))
	for lang := range stats.Languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if lang == "" || lang == string(types.LangUnknown) {
			continue
		}
		if stats.Languages[lang] > bestCount {
			best = lang
			bestCount = stats.Languages[lang]
		}
	}
	return best
}

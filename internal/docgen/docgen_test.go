package docgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techdoc/internal/embedder"
	"techdoc/internal/llm"
	"techdoc/internal/storage"
	"techdoc/internal/vecindex"
	"techdoc/pkg/types"
)

type fakeStore struct {
	docs     []*storage.Document
	feedback []*storage.Feedback
	changes  []types.ChangeRecord
	records  []*types.FileRecord
}

func (f *fakeStore) SaveDocument(_ context.Context, doc *storage.Document) error {
	doc.ID = int64(len(f.docs) + 1)
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeStore) LatestDocument(_ context.Context, docType string) (*storage.Document, error) {
	for i := len(f.docs) - 1; i >= 0; i-- {
		if f.docs[i].DocType == docType {
			return f.docs[i], nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ListFeedback(_ context.Context, docType string, limit int) ([]*storage.Feedback, error) {
	var out []*storage.Feedback
	for _, fb := range f.feedback {
		if fb.DocType == docType && len(out) < limit {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (f *fakeStore) RecentChanges(_ context.Context, limit int) ([]types.ChangeRecord, error) {
	if len(f.changes) > limit {
		return f.changes[:limit], nil
	}
	return f.changes, nil
}

func (f *fakeStore) ListFileRecords(_ context.Context) ([]*types.FileRecord, error) {
	return f.records, nil
}

type fakeChat struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeChat) Generate(_ context.Context, messages []llm.Message) (string, error) {
	f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeChat) Model() string { return "fake" }

func newTestGenerator(t *testing.T, store *fakeStore, chat *fakeChat) (*Generator, string) {
	t.Helper()
	root := t.TempDir()

	ix := vecindex.New(embedder.LocalDimension, zerolog.Nop())
	c := types.Chunk{
		Kind: types.ChunkFunction, Name: "handle_request", StartLine: 1, EndLine: 5,
		Content: "def handle_request():\n    pass", FilePath: "src/server.py", Language: types.LangPython,
	}
	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	vec, err := emb.GenerateEmbedding(context.Background(), embedder.EmbeddingRequest{Text: embedder.ChunkText(&c)})
	require.NoError(t, err)
	require.NoError(t, ix.Upsert("src/server.py", []vecindex.Entry{{ID: c.ID(), Chunk: c, Vector: vec.Vector}}))

	g := New(Options{ProjectRoot: root}, store, ix, emb, chat, zerolog.Nop())
	return g, root
}

func TestGenerateReadme(t *testing.T) {
	store := &fakeStore{
		records: []*types.FileRecord{
			{Path: "src/server.py", ContentHash: "h1", Language: types.LangPython},
		},
	}
	chat := &fakeChat{reply: "# My Project\n\nGenerated readme."}

	g, root := newTestGenerator(t, store, chat)
	doc, err := g.Generate(context.Background(), "README", "")
	require.NoError(t, err)

	assert.Equal(t, DocReadme, doc.DocType)
	assert.Equal(t, "# My Project\n\nGenerated readme.", doc.Content)
	assert.NotEmpty(t, doc.VersionHash)

	// Written to the default docs directory.
	data, err := os.ReadFile(filepath.Join(root, "docs", "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Generated readme.")

	// The prompt was grounded in indexed code.
	require.Len(t, chat.prompts, 1)
	assert.Contains(t, chat.prompts[0], "handle_request")
	assert.Contains(t, chat.prompts[0], "src/server.py")
}

func TestGenerateUnknownDocType(t *testing.T) {
	g, _ := newTestGenerator(t, &fakeStore{}, &fakeChat{reply: "x"})

	_, err := g.Generate(context.Background(), "poster", "")
	assert.ErrorIs(t, err, ErrUnknownDocType)
}

func TestGenerateFoldsFeedback(t *testing.T) {
	store := &fakeStore{
		feedback: []*storage.Feedback{
			{DocType: DocReadme, Rating: 2, Comment: "missing install steps"},
		},
	}
	chat := &fakeChat{reply: "# Doc"}

	g, _ := newTestGenerator(t, store, chat)
	_, err := g.Generate(context.Background(), DocReadme, "")
	require.NoError(t, err)

	require.Len(t, chat.prompts, 1)
	assert.Contains(t, chat.prompts[0], "Based on user feedback")
	assert.Contains(t, chat.prompts[0], "missing install steps")
}

func TestGenerateExplicitOutputPath(t *testing.T) {
	chat := &fakeChat{reply: "content"}
	g, root := newTestGenerator(t, &fakeStore{}, chat)

	out := filepath.Join(root, "custom", "x.md")
	doc, err := g.Generate(context.Background(), DocReadme, out)
	require.NoError(t, err)
	assert.Equal(t, out, doc.FilePath)

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestUpdateWithNoChangesReturnsExisting(t *testing.T) {
	store := &fakeStore{}
	chat := &fakeChat{reply: "v1"}
	g, _ := newTestGenerator(t, store, chat)

	first, err := g.Generate(context.Background(), DocReadme, "")
	require.NoError(t, err)

	got, err := g.Update(context.Background(), DocReadme, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	// Only the initial generation called the LLM.
	assert.Len(t, chat.prompts, 1)
}

func TestUpdateIncludesChangesAndExistingDoc(t *testing.T) {
	store := &fakeStore{}
	chat := &fakeChat{reply: "v1 content"}
	g, _ := newTestGenerator(t, store, chat)

	_, err := g.Generate(context.Background(), DocReadme, "")
	require.NoError(t, err)

	store.changes = []types.ChangeRecord{
		{Path: "src/server.py", Kind: types.ChangeModified, OldHash: "a", NewHash: "b"},
	}
	chat.reply = "v2 content"

	doc, err := g.Update(context.Background(), DocReadme, "")
	require.NoError(t, err)
	assert.Equal(t, "v2 content", doc.Content)

	prompt := chat.prompts[len(chat.prompts)-1]
	assert.Contains(t, prompt, "modified: src/server.py")
	assert.Contains(t, prompt, "v1 content")
}

func TestUpdateWithoutPriorDocGenerates(t *testing.T) {
	store := &fakeStore{changes: []types.ChangeRecord{{Path: "a.py", Kind: types.ChangeAdded}}}
	chat := &fakeChat{reply: "fresh"}
	g, _ := newTestGenerator(t, store, chat)

	doc, err := g.Update(context.Background(), DocReadme, "")
	require.NoError(t, err)
	assert.Equal(t, "fresh", doc.Content)
}

func TestStructureSummary(t *testing.T) {
	records := []*types.FileRecord{
		{Path: "src/b.py"},
		{Path: "src/a.py"},
		{Path: "main.py"},
	}
	s := structureSummary(records)
	assert.Contains(t, s, "src/")
	assert.Contains(t, s, "  a.py")
	assert.Contains(t, s, "main.py")
}

func TestDocTypesHaveTemplatesAndFilenames(t *testing.T) {
	for _, dt := range DocTypes() {
		assert.Contains(t, promptTemplates, dt)
		assert.Contains(t, updateTemplates, dt)
		assert.Contains(t, outputFilenames, dt)
	}
}

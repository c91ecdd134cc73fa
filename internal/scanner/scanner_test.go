package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestScan_FiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "print('hi')\n")
	writeFile(t, root, "util.go", "package util\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, "data.bin", "\x00\x01\x02")

	s, err := New(root, Config{})
	require.NoError(t, err)

	paths, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "util.go"}, paths)
}

func TestScan_DefaultIgnores(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}\n")
	writeFile(t, root, ".git/hooks/sample.py", "print()\n")
	writeFile(t, root, "__pycache__/app.py", "cached\n")

	s, err := New(root, Config{})
	require.NoError(t, err)

	paths, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, paths)
}

func TestScan_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\nsecret.py\n")
	writeFile(t, root, "app.py", "x = 1\n")
	writeFile(t, root, "secret.py", "token = 'x'\n")
	writeFile(t, root, "generated/stub.py", "pass\n")

	s, err := New(root, Config{RespectGitignore: true})
	require.NoError(t, err)

	paths, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, paths)
}

func TestScan_GitignoreDisabled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "secret.py\n")
	writeFile(t, root, "secret.py", "token = 'x'\n")

	s, err := New(root, Config{RespectGitignore: false})
	require.NoError(t, err)

	paths, err := s.Scan()
	require.NoError(t, err)
	assert.Contains(t, paths, "secret.py")
}

func TestScan_ConfiguredPatternsAndExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.py", "x = 1\n")
	writeFile(t, root, "skip_me.py", "x = 1\n")
	writeFile(t, root, "other.go", "package other\n")

	s, err := New(root, Config{
		Extensions:     []string{".py"},
		IgnorePatterns: []string{"skip_*.py"},
	})
	require.NoError(t, err)

	paths, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.py"}, paths)
}

func TestScan_SkipsEmptyFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "empty.py", "")
	writeFile(t, root, "full.py", "x = 1\n")

	s, err := New(root, Config{})
	require.NoError(t, err)

	paths, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"full.py"}, paths)
}

func TestScan_DeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "z.py", "x = 1\n")
	writeFile(t, root, "a.py", "x = 1\n")
	writeFile(t, root, "m/nested.py", "x = 1\n")

	s, err := New(root, Config{})
	require.NoError(t, err)

	first, err := s.Scan()
	require.NoError(t, err)
	second, err := s.Scan()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a.py", "m/nested.py", "z.py"}, first)
}

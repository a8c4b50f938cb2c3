package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "relative path is valid", path: "doc.md"},
		{name: "nested relative path is valid", path: "sub/doc.md"},
		{name: "empty path is invalid", path: "", wantErr: true},
		{name: "absolute path is invalid", path: "/etc/passwd", wantErr: true},
		{name: "traversal segment is invalid", path: "../secret.txt", wantErr: true},
		{name: "embedded traversal segment is invalid", path: "sub/../../secret.txt", wantErr: true},
		{name: "drive-letter path is invalid", path: `C:\secret.txt`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChecker_Present(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.md"), []byte("x"), 0o644))
	c := New(dir)

	ok, err := c.Present("doc.md")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Present("missing.md")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Present("../escape.md")
	assert.Error(t, err)
}

func TestChecker_AnyPresentAndCountPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("x"), 0o644))
	c := New(dir)

	any, err := c.AnyPresent([]string{"missing.md", "a.md"})
	require.NoError(t, err)
	assert.True(t, any)

	n, err := c.CountPresent([]string{"a.md", "b.md", "missing.md"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFilterByType(t *testing.T) {
	paths := []string{
		"document.md",
		"document_v1.md",
		"document-final.md",
		"v1_document.md",
		"final-document.md",
		"documents.md",
		"mydocument.md",
		"sub/document.md",
	}

	got := FilterByType(paths, "document")
	assert.ElementsMatch(t, []string{
		"document.md",
		"document_v1.md",
		"document-final.md",
		"v1_document.md",
		"final-document.md",
		"sub/document.md",
	}, got)
}

func TestFilterByType_CaseInsensitive(t *testing.T) {
	got := FilterByType([]string{"DOCUMENT.MD"}, "document")
	assert.Equal(t, []string{"DOCUMENT.MD"}, got)
}

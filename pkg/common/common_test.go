package common

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePluginId(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(ValidatePluginId("owner/repo"))
	assert.ErrorIs(ValidatePluginId("repo"), ErrInvalidPluginId)
	assert.ErrorIs(ValidatePluginId("a/b/c"), ErrInvalidPluginId)
	assert.ErrorIs(ValidatePluginId("/repo"), ErrInvalidPluginId)
	assert.ErrorIs(ValidatePluginId("owner/"), ErrInvalidPluginId)

	assert.Equal("owner_repo.dll", PluginFileName("owner/repo"))
	assert.True(IsLatestSelector(""))
	assert.True(IsLatestSelector("Latest"))
	assert.False(IsLatestSelector("v1.0.0"))
}

func TestFileHashSha256(t *testing.T) {
	assert := assert.New(t)

	filePath := filepath.Join(t.TempDir(), "file.txt")
	assert.NoError(os.WriteFile(filePath, []byte("hello"), 0o644))
	hash, err := FileHashSha256(filePath)
	assert.NoError(err)
	assert.Equal("2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hash)

	_, err = FileHashSha256(filepath.Join(t.TempDir(), "missing"))
	assert.Error(err)
}

func TestWriteFileAtomic(t *testing.T) {
	assert := assert.New(t)

	filePath := filepath.Join(t.TempDir(), "sub", "data.json")
	assert.NoError(WriteFileAtomic(filePath, []byte("one"), 0o644))
	assert.NoError(WriteFileAtomic(filePath, []byte("two"), 0o644))
	content, err := os.ReadFile(filePath)
	assert.NoError(err)
	assert.Equal("two", string(content))

	entries, err := os.ReadDir(filepath.Dir(filePath))
	assert.NoError(err)
	assert.Len(entries, 1)
}

func TestDeleteIfExists(t *testing.T) {
	assert := assert.New(t)

	filePath := filepath.Join(t.TempDir(), "file")
	deleted, err := DeleteIfExists(filePath)
	assert.NoError(err)
	assert.False(deleted)

	assert.NoError(os.WriteFile(filePath, []byte("x"), 0o644))
	deleted, err = DeleteIfExists(filePath)
	assert.NoError(err)
	assert.True(deleted)
}

func TestExtractZipAndSearch(t *testing.T) {
	assert := assert.New(t)

	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "dependencies.zip")
	writeZip(t, zipPath, map[string]string{
		"A.dll":        "a",
		"sub/B.DLL":    "b",
		"readme.txt":   "text",
		"sub/deep/C.d": "c",
	})

	extractDir := filepath.Join(tempDir, "out")
	files, err := ExtractZip(zipPath, extractDir)
	assert.NoError(err)
	assert.Len(files, 4)

	dlls, err := SearchFiles(extractDir, []string{"**/*.[dD][lL][lL]"}, nil)
	assert.NoError(err)
	assert.Len(dlls, 2)
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	assert := assert.New(t)

	tempDir := t.TempDir()
	zipPath := filepath.Join(tempDir, "evil.zip")
	writeZip(t, zipPath, map[string]string{"../evil.dll": "x"})

	_, err := ExtractZip(zipPath, filepath.Join(tempDir, "out"))
	assert.Error(err)
}

func TestDownloadToFile(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(ContentTypeBinary, r.Header.Get("Accept"))
			assert.Equal("Bearer secret", r.Header.Get("Authorization"))
			w.Write([]byte("payload"))
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewHttpClient(0, "plugman-test")
	client.SetToken("secret")
	tempDir := t.TempDir()

	target := filepath.Join(tempDir, "ok.bin")
	assert.NoError(client.DownloadToFile(context.Background(), server.URL+"/ok", target))
	content, err := os.ReadFile(target)
	assert.NoError(err)
	assert.Equal("payload", string(content))

	target = filepath.Join(tempDir, "unauthorized.bin")
	err = client.DownloadToFile(context.Background(), server.URL+"/unauthorized", target)
	assert.True(errors.Is(err, ErrCredential))
	exists, _ := FileExists(target)
	assert.False(exists)

	err = client.DownloadToFile(context.Background(), server.URL+"/broken", filepath.Join(tempDir, "broken.bin"))
	assert.ErrorIs(err, ErrDownload)
}

func writeZip(t *testing.T, zipPath string, files map[string]string) {
	t.Helper()
	file, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	writer := zip.NewWriter(file)
	for name, content := range files {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
}

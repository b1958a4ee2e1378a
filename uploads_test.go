package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStoreSave(t *testing.T) {
	root := t.TempDir()
	u, err := NewUploadStore(root)
	require.NoError(t, err)
	u.now = func() time.Time { return time.UnixMilli(1700000000123) }

	p, err := u.Save("", "avatar.png", strings.NewReader("a"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000123-avatar.png", p)

	p, err = u.Save("projects", "../../etc/passwd", strings.NewReader("b"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/projects/1700000000123-passwd", p)

	data, err := os.ReadFile(filepath.Join(root, "uploads", "projects", "1700000000123-passwd"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestUploadStoreSaveSameNameSameMillisecond(t *testing.T) {
	root := t.TempDir()
	u, err := NewUploadStore(root)
	require.NoError(t, err)
	u.now = func() time.Time { return time.UnixMilli(1700000000123) }

	first, err := u.Save("projects", "a.png", strings.NewReader("first"))
	require.NoError(t, err)
	second, err := u.Save("projects", "a.png", strings.NewReader("second"))
	require.NoError(t, err)
	third, err := u.Save("projects", "a.png", strings.NewReader("third"))
	require.NoError(t, err)

	assert.Equal(t, "/uploads/projects/1700000000123-a.png", first)
	assert.Equal(t, "/uploads/projects/1700000000123-1-a.png", second)
	assert.Equal(t, "/uploads/projects/1700000000123-2-a.png", third)

	for p, want := range map[string]string{first: "first", second: "second", third: "third"} {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(p)))
		require.NoError(t, err)
		assert.Equal(t, want, string(data), p)
	}
}

func TestSafeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":          "photo.jpg",
		`C:\Users\me\cv.pdf`: "cv.pdf",
		"../secret":          "secret",
		"  ":                 "upload",
		"..":                 "upload",
		"dir/":               "dir",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeFilename(in), in)
	}
}

func TestNewUploadStoreRequiresRoot(t *testing.T) {
	_, err := NewUploadStore(" ")
	assert.Error(t, err)
}

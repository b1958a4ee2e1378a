package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// UploadStore keeps uploaded images under <root>/uploads and hands back the
// public path the site serves them from.
type UploadStore struct {
	root string
	now  func() time.Time
}

func NewUploadStore(root string) (*UploadStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("upload root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, "uploads"), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{root: root, now: time.Now}, nil
}

// maxNameAttempts bounds the suffixes tried when a name is already taken.
const maxNameAttempts = 100

// Save writes r as "<unix-ms>-<filename>" under uploads/subdir and returns
// "/uploads/[subdir/]<name>". An existing file is never overwritten; a taken
// name becomes "<unix-ms>-<n>-<filename>".
func (u *UploadStore) Save(subdir, filename string, r io.Reader) (string, error) {
	dir := filepath.Join(u.root, "uploads", subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	out, name, err := u.createUnique(dir, safeFilename(filename))
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path.Join("/uploads", subdir, name), nil
}

func (u *UploadStore) createUnique(dir, base string) (*os.File, string, error) {
	stamp := strconv.FormatInt(u.now().UnixMilli(), 10)
	for n := 0; n < maxNameAttempts; n++ {
		name := stamp + "-" + base
		if n > 0 {
			name = stamp + "-" + strconv.Itoa(n) + "-" + base
		}
		out, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("create file: %w", err)
		}
		return out, name, nil
	}
	return nil, "", fmt.Errorf("create file: no free name for %q", base)
}

// Handler serves the files under /uploads/.
func (u *UploadStore) Handler() http.Handler {
	return http.FileServer(http.Dir(u.root))
}

func safeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}

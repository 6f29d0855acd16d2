package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// DiskFiles stores attachment blobs on local disk and returns a stable
// URL-path reference. The media type is sniffed from the written bytes,
// never trusted from the client.
type DiskFiles struct {
	Dir string
}

func NewDiskFiles(dir string) (*DiskFiles, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskFiles{Dir: dir}, nil
}

func (f *DiskFiles) Save(name string, r io.Reader) (url, mediaType string, err error) {
	stored := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), sanitizeName(name))
	dst := filepath.Join(f.Dir, stored)

	out, err := os.Create(dst)
	if err != nil {
		return "", "", err
	}
	if _, err = io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", "", err
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", "", err
	}

	mtype, err := mimetype.DetectFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return "", "", err
	}
	return "/uploads/" + stored, mtype.String(), nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "file"
	}
	return name
}

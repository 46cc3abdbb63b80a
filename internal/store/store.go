// Package store owns the on-disk layout of a gallery: the manifest at the root,
// the root document, and one directory per page holding its document, label
// artifact and photos. All writes are atomic.
package store

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hpungsan/gallerist/internal/labels"
	"github.com/hpungsan/gallerist/internal/manifest"
)

const (
	// IndexFile is the HTML document of the root and of every page directory.
	IndexFile = "index.html"
	// PhotosDir is the photo directory inside each page directory.
	PhotosDir = "photos"
)

// Options configures a Store.
type Options struct {
	ManifestFile string // defaults to CONTENT.md
	SiteName     string
	SiteURL      string
}

// Store reads and writes gallery files under a root directory.
type Store struct {
	root     string
	manifest string
	encoder  manifest.Encoder
	labels   labels.Generator

	mu      sync.Mutex
	lastSum [sha256.Size]byte
	written bool
}

// New returns a Store rooted at root.
func New(root string, opts Options) *Store {
	name := opts.ManifestFile
	if name == "" {
		name = "CONTENT.md"
	}
	return &Store{
		root:     root,
		manifest: name,
		encoder:  manifest.Encoder{SiteName: opts.SiteName, BaseURL: opts.SiteURL},
		labels:   labels.Generator{ManifestName: name},
	}
}

// Root returns the gallery root directory.
func (s *Store) Root() string { return s.root }

// ManifestPath returns the manifest file path.
func (s *Store) ManifestPath() string { return filepath.Join(s.root, s.manifest) }

// RootIndexPath returns the root document path.
func (s *Store) RootIndexPath() string { return filepath.Join(s.root, IndexFile) }

// PageDir returns the directory of page id.
func (s *Store) PageDir(id string) string { return filepath.Join(s.root, id) }

// PageIndexPath returns the document path of page id.
func (s *Store) PageIndexPath(id string) string { return filepath.Join(s.root, id, IndexFile) }

// LabelsPath returns the label artifact path of page id.
func (s *Store) LabelsPath(id string) string { return filepath.Join(s.root, id, labels.FileName) }

// PhotosPath returns the photo directory of page id.
func (s *Store) PhotosPath(id string) string { return filepath.Join(s.root, id, PhotosDir) }

// PhotoPath returns the path of a photo in page id.
func (s *Store) PhotoPath(id, filename string) string {
	return filepath.Join(s.root, id, PhotosDir, filename)
}

// PageDirExists reports whether the directory of page id exists.
func (s *Store) PageDirExists(id string) bool {
	info, err := os.Stat(s.PageDir(id))
	return err == nil && info.IsDir()
}

// LoadSite reads and decodes the manifest, then merges zoom values from each
// page's label artifact. A missing manifest yields an empty Site.
func (s *Store) LoadSite() (*manifest.Site, []manifest.Diagnostic, error) {
	data, err := os.ReadFile(s.ManifestPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &manifest.Site{Pages: []*manifest.Page{}}, nil, nil
		}
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}

	site, diags, err := manifest.Parse(string(data))
	if err != nil {
		return nil, diags, err
	}

	for _, p := range site.Pages {
		artifact, ok, err := s.ReadDocument(s.LabelsPath(p.ID))
		if err != nil {
			return nil, diags, err
		}
		if ok {
			labels.MergeDerivedFields(p, artifact)
		}
	}
	return site, diags, nil
}

// EncodeSite renders site as manifest text.
func (s *Store) EncodeSite(site *manifest.Site) string {
	return s.encoder.Encode(site)
}

// SaveSite encodes and writes the manifest.
func (s *Store) SaveSite(site *manifest.Site) error {
	data := []byte(s.encoder.Encode(site))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := WriteFileAtomic(s.ManifestPath(), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	s.lastSum = sha256.Sum256(data)
	s.written = true
	return nil
}

// IsOwnManifest reports whether data is exactly what SaveSite last wrote.
func (s *Store) IsOwnManifest(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written && sha256.Sum256(data) == s.lastSum
}

// WriteLabels regenerates the label artifact of page. Pages without a
// directory are skipped; the result reports whether the artifact was written.
func (s *Store) WriteLabels(page *manifest.Page) (bool, error) {
	if !s.PageDirExists(page.ID) {
		return false, nil
	}
	if err := WriteFileAtomic(s.LabelsPath(page.ID), []byte(s.RenderLabels(page)), 0o644); err != nil {
		return false, fmt.Errorf("write labels for %s: %w", page.ID, err)
	}
	return true, nil
}

// RenderLabels returns the label artifact page would be written as.
func (s *Store) RenderLabels(page *manifest.Page) string {
	return s.labels.Generate(page)
}

// ListPhotos returns the sorted names of the regular files in the photo
// directory of page id. A missing directory yields an empty list.
func (s *Store) ListPhotos(id string) ([]string, error) {
	entries, err := os.ReadDir(s.PhotosPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list photos of %s: %w", id, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadDocument reads a text file. A missing file reports ok=false without error.
func (s *Store) ReadDocument(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", s.rel(path), err)
	}
	return string(data), true, nil
}

// WriteDocument atomically replaces a text file.
func (s *Store) WriteDocument(path, content string) error {
	if err := WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.rel(path), err)
	}
	return nil
}

// WritePhoto atomically writes photo bytes into page id.
func (s *Store) WritePhoto(id, filename string, data []byte) error {
	if err := WriteFileAtomic(s.PhotoPath(id, filename), data, 0o644); err != nil {
		return fmt.Errorf("write photo %s/%s: %w", id, filename, err)
	}
	return nil
}

// ReadPhoto returns the bytes of a photo in page id.
func (s *Store) ReadPhoto(id, filename string) ([]byte, error) {
	data, err := os.ReadFile(s.PhotoPath(id, filename))
	if err != nil {
		return nil, fmt.Errorf("read photo %s/%s: %w", id, filename, err)
	}
	return data, nil
}

// PhotoExists reports whether the photo file exists in page id.
func (s *Store) PhotoExists(id, filename string) bool {
	info, err := os.Stat(s.PhotoPath(id, filename))
	return err == nil && info.Mode().IsRegular()
}

// RemovePhoto deletes a photo file. A missing file is not an error.
func (s *Store) RemovePhoto(id, filename string) error {
	if err := os.Remove(s.PhotoPath(id, filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo %s/%s: %w", id, filename, err)
	}
	return nil
}

// CreatePageDirs creates the directory and photo directory of page id.
func (s *Store) CreatePageDirs(id string) error {
	if err := os.MkdirAll(s.PhotosPath(id), 0o755); err != nil {
		return fmt.Errorf("create page %s: %w", id, err)
	}
	return nil
}

// RemovePage deletes the directory of page id and everything in it.
func (s *Store) RemovePage(id string) error {
	if err := os.RemoveAll(s.PageDir(id)); err != nil {
		return fmt.Errorf("remove page %s: %w", id, err)
	}
	return nil
}

func (s *Store) rel(path string) string {
	if r, err := filepath.Rel(s.root, path); err == nil {
		return r
	}
	return path
}

package gen

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
	"gopkg.in/yaml.v3"
)

// ManifestName is the file, in the target directory, recording what was
// generated from which sources.
const ManifestName = "prefkit.sum.yaml"

const manifestVersion = 1

// File is a rendered output file.
type File struct {
	Name    string   // Base name in the target directory
	Content []byte   // Rendered source
	Sources []string // Files the content was generated from
}

// Sink collects rendered files. It outlives rounds: a file rendered again in
// a later round replaces the earlier rendering.
type Sink struct {
	mu    sync.Mutex
	files map[string]*File
}

// NewSink returns an empty Sink.
func NewSink() *Sink {
	return &Sink{files: make(map[string]*File)}
}

// Add renders f and records it under name.
func (s *Sink) Add(name string, f *jen.File, sources ...string) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewGenerationError("render", name, "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = &File{Name: name, Content: buf.Bytes(), Sources: slices.Clone(sources)}
	return nil
}

// Files returns the collected files sorted by name.
func (s *Sink) Files() []*File {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*File, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *File) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Lookup returns the file recorded under name.
func (s *Sink) Lookup(name string) (*File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[name]
	return f, ok
}

// Manifest lists generated files with their sources and digests.
type Manifest struct {
	Version int                       `yaml:"version"`
	Package string                    `yaml:"package"`
	Files   map[string]*ManifestEntry `yaml:"files"`
}

// ManifestEntry describes one generated file.
type ManifestEntry struct {
	// Hash is the sha256 of the sources' content and the file content.
	Hash string `yaml:"hash"`
	// Sources are relative to the target directory.
	Sources []string `yaml:"sources"`
}

// ReadManifest reads the manifest of dir. A missing manifest is empty.
func ReadManifest(dir string) (*Manifest, error) {
	m := &Manifest{Version: manifestVersion, Files: make(map[string]*ManifestEntry)}
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("prefkit: parse %s: %w", ManifestName, err)
	}
	if m.Files == nil {
		m.Files = make(map[string]*ManifestEntry)
	}
	return m, nil
}

// Writer writes rendered files to the target directory, skipping files whose
// sources and content did not change since the last run.
type Writer struct {
	dir     string
	pkg     string
	workers int
	logger  *zap.Logger

	manifest *Manifest
}

// NewWriter returns a Writer for dir. An unreadable manifest is discarded,
// which regenerates every file.
func NewWriter(dir, pkg string, workers int, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	m, err := ReadManifest(dir)
	if err != nil {
		logger.Warn("discarding manifest", zap.String("dir", dir), zap.Error(err))
		m = &Manifest{Files: make(map[string]*ManifestEntry)}
	}
	m.Version, m.Package = manifestVersion, pkg
	return &Writer{dir: dir, pkg: pkg, workers: workers, logger: logger, manifest: m}
}

// Manifest returns the manifest as of the last Flush or Prune.
func (w *Writer) Manifest() *Manifest {
	return w.manifest
}

// Flush writes the files of sink in parallel and updates the manifest. It
// returns the number of files written.
func (w *Writer) Flush(ctx context.Context, sink *Sink) (int, error) {
	files := sink.Files()
	if len(files) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return 0, NewGenerationError("write", w.dir, "create output directory", err)
	}
	var (
		written atomic.Int64
		entries = make([]*ManifestEntry, len(files))
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for i, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			entry, err := w.entry(f)
			if err != nil {
				return NewGenerationError("write", f.Name, "hash sources", err)
			}
			entries[i] = entry
			path := filepath.Join(w.dir, f.Name)
			if prev := w.manifest.Files[f.Name]; prev != nil && prev.Hash == entry.Hash && exists(path) {
				w.logger.Debug("unchanged", zap.String("file", f.Name))
				return nil
			}
			if err := w.writeFile(path, f.Content); err != nil {
				return NewGenerationError("write", f.Name, "", err)
			}
			w.logger.Debug("wrote", zap.String("file", f.Name))
			written.Add(1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return int(written.Load()), err
	}
	for i, f := range files {
		w.manifest.Files[f.Name] = entries[i]
	}
	if err := w.saveManifest(); err != nil {
		return int(written.Load()), err
	}
	return int(written.Load()), nil
}

// Prune removes files listed in the manifest that sink no longer produces.
// It returns the removed file names.
func (w *Writer) Prune(sink *Sink) ([]string, error) {
	var removed []string
	for name := range w.manifest.Files {
		if _, ok := sink.Lookup(name); ok {
			continue
		}
		err := os.Remove(filepath.Join(w.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, NewGenerationError("prune", name, "", err)
		}
		delete(w.manifest.Files, name)
		removed = append(removed, name)
		w.logger.Info("removed stale file", zap.String("file", name))
	}
	slices.Sort(removed)
	if len(removed) == 0 {
		return nil, nil
	}
	return removed, w.saveManifest()
}

// entry digests the sources of f followed by its content.
func (w *Writer) entry(f *File) (*ManifestEntry, error) {
	h := sha256.New()
	sources := slices.Clone(f.Sources)
	slices.Sort(sources)
	rel := make([]string, len(sources))
	for i, src := range sources {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}
		rel[i] = w.relative(src)
		fmt.Fprintf(h, "%s\x00%d\x00", rel[i], len(data))
		h.Write(data)
	}
	h.Write(f.Content)
	return &ManifestEntry{Hash: hex.EncodeToString(h.Sum(nil)), Sources: rel}, nil
}

func (w *Writer) relative(path string) string {
	dir, err := filepath.Abs(w.dir)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// writeFile formats content and writes it. Unformattable content is written
// next to path with an .error suffix for inspection.
func (w *Writer) writeFile(path string, content []byte) error {
	formatted, err := imports.Process(path, content, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		debugPath := path + ".error"
		_ = os.WriteFile(debugPath, content, 0o644)
		return fmt.Errorf("format %s: %w (unformatted written to %s)", filepath.Base(path), err, debugPath)
	}
	return os.WriteFile(path, formatted, 0o644)
}

func (w *Writer) saveManifest() error {
	data, err := yaml.Marshal(w.manifest)
	if err != nil {
		return NewGenerationError("manifest", ManifestName, "", err)
	}
	path := filepath.Join(w.dir, ManifestName)
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return NewGenerationError("manifest", ManifestName, "", err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

package layout

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/surface"
)

var ErrMissingID = errors.New("control id required")

// FileStore keeps a document in a single file. Every operation reads the
// file, applies its change and writes it back, so edits made by hand between
// requests are picked up.
type FileStore struct {
	path  string
	codec Codec
	log   *slog.Logger
	mu    sync.Mutex

	// OnChange, when set, runs after every successful write.
	OnChange func()
}

// NewFileStore opens the document at path. The file need not exist yet.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, codec: codec, log: logger}, nil
}

func (s *FileStore) Path() string { return s.path }

// Load reads the document. A missing file is an empty document. Malformed
// fields are defaulted and logged, and a file that does not parse at all
// reads as an empty document.
func (s *FileStore) Load() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if errors.Is(err, ErrUnreadable) {
		s.log.Warn("layout unreadable, using an empty layout", "path", s.path, "error", err)
		return Document{}, nil
	}
	return doc, err
}

// load fails with ErrUnreadable when the file does not parse, so writes never
// replace a document they could not read.
func (s *FileStore) load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("read layout: %w", err)
	}
	doc, warnings := DecodeDocument(s.codec, data)
	for _, w := range warnings {
		if errors.Is(w, ErrUnreadable) {
			return Document{}, fmt.Errorf("%s: %w", s.path, w)
		}
		s.log.Warn("layout field defaulted", "path", s.path, "error", w)
	}
	return doc, nil
}

func (s *FileStore) save(doc Document) error {
	if doc.Buttons == nil {
		doc.Buttons = []surface.Control{}
	}
	data, err := s.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create layout dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	return nil
}

// modify runs fn on the current document and saves the result. OnChange
// runs once the lock is released.
func (s *FileStore) modify(fn func(*Document) error) error {
	if err := s.write(fn); err != nil {
		return err
	}
	if s.OnChange != nil {
		s.OnChange()
	}
	return nil
}

func (s *FileStore) write(fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.save(doc)
}

// Control returns the stored control with the given id.
func (s *FileStore) Control(id string) (surface.Control, bool) {
	doc, err := s.Load()
	if err != nil {
		s.log.Warn("layout unreadable", "path", s.path, "error", err)
		return surface.Control{}, false
	}
	return doc.Find(id)
}

// AddControl stores c under a fresh btn<N> id.
func (s *FileStore) AddControl(_ context.Context, c surface.Control) (string, error) {
	var id string
	err := s.modify(func(d *Document) error {
		id = d.add(c)
		return nil
	})
	if err != nil {
		return "", err
	}
	s.log.Info("control added", "id", id, "type", c.Type, "label", c.Label)
	return id, nil
}

// UpdateControl replaces the stored control with c's id, appending c when no
// stored control has it.
func (s *FileStore) UpdateControl(_ context.Context, c surface.Control) error {
	return s.modify(func(d *Document) error { return d.upsert(c) })
}

// DeleteControl removes the control with the given id. Deleting an unknown id
// is not an error.
func (s *FileStore) DeleteControl(_ context.Context, id string) error {
	return s.modify(func(d *Document) error {
		if !d.remove(id) {
			s.log.Debug("delete of unknown control", "id", id)
		}
		return nil
	})
}

// UpdateDrivingConfig stores the driving section.
func (s *FileStore) UpdateDrivingConfig(_ context.Context, settings axis.Settings) error {
	return s.modify(func(d *Document) error {
		d.apply(settings)
		return nil
	})
}

// SaveLayout replaces the whole control list.
func (s *FileStore) SaveLayout(_ context.Context, controls []surface.Control) error {
	return s.modify(func(d *Document) error {
		d.Buttons = append([]surface.Control(nil), controls...)
		return nil
	})
}

// Document is Load for callers that carry a context.
func (s *FileStore) Document(context.Context) (Document, error) {
	return s.Load()
}

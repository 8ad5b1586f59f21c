package storage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/internal/metrics"
)

// Scratch kinds, used as metric labels
const (
	KindUpload    = "upload"
	KindGenerated = "generated"
)

// MaxUploadPixels caps the decoded size of an upload
const MaxUploadPixels = 40_000_000

// ErrNotAnImage is returned when an upload cannot be decoded as an image
var ErrNotAnImage = errors.New("file is not a supported image")

// ScratchStore owns the two flat directories holding uploaded photos and
// generated recipe images. Files are named <uuid>.png and are written
// through a hidden temporary file so readers never see partial content.
type ScratchStore struct {
	uploadDir    string
	generatedDir string
	metrics      *metrics.Metrics
	logger       zerolog.Logger

	mu     sync.Mutex
	leases map[string]int
}

// NewScratchStore creates a store over the given absolute directories
func NewScratchStore(uploadDir, generatedDir string, m *metrics.Metrics, logger zerolog.Logger) *ScratchStore {
	return &ScratchStore{
		uploadDir:    filepath.Clean(uploadDir),
		generatedDir: filepath.Clean(generatedDir),
		metrics:      m,
		logger:       logger.With().Str("component", "scratch").Logger(),
		leases:       make(map[string]int),
	}
}

// EnsureDirs creates both scratch directories if they do not exist
func (s *ScratchStore) EnsureDirs() error {
	for _, dir := range []string{s.uploadDir, s.generatedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
		}
	}
	return nil
}

func (s *ScratchStore) UploadDir() string    { return s.uploadDir }
func (s *ScratchStore) GeneratedDir() string { return s.generatedDir }

// SaveUpload decodes r as an image and stores it re-encoded as PNG in the
// upload directory. It returns the absolute path of the stored file, which
// stays leased until release is called.
func (s *ScratchStore) SaveUpload(r io.Reader) (path string, release func(), err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}

	// Reject decompression bombs from the header before allocating pixels
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxUploadPixels {
		return "", nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrNotAnImage, cfg.Width, cfg.Height, MaxUploadPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", nil, fmt.Errorf("failed to encode upload as png: %w", err)
	}

	path, release, err = s.write(s.uploadDir, buf.Bytes())
	if err != nil {
		return "", nil, err
	}
	s.metrics.ObserveScratch(KindUpload, "write", 1)
	return path, release, nil
}

// SaveGenerated stores raw image bytes returned by the image model. The
// file stays leased until release is called.
func (s *ScratchStore) SaveGenerated(data []byte) (path string, release func(), err error) {
	if len(data) == 0 {
		return "", nil, errors.New("empty image data")
	}
	path, release, err = s.write(s.generatedDir, data)
	if err != nil {
		return "", nil, err
	}
	s.metrics.ObserveScratch(KindGenerated, "write", 1)
	return path, release, nil
}

// write leases the final name before publishing it so a concurrent Purge
// can never observe an unleased new file.
func (s *ScratchStore) write(dir string, data []byte) (string, func(), error) {
	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", nil, fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", nil, fmt.Errorf("failed to close scratch file: %w", err)
	}

	path := filepath.Join(dir, uuid.New().String()+".png")
	release := s.Lease(path)
	if err := os.Rename(tmp.Name(), path); err != nil {
		release()
		return "", nil, fmt.Errorf("failed to publish scratch file: %w", err)
	}
	return path, release, nil
}

// Lease marks paths as in use so Purge leaves them alone. The returned
// function releases the lease and is safe to call more than once.
func (s *ScratchStore) Lease(paths ...string) func() {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			cleaned = append(cleaned, abs)
		}
	}

	s.mu.Lock()
	for _, p := range cleaned {
		s.leases[p]++
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, p := range cleaned {
				if s.leases[p] <= 1 {
					delete(s.leases, p)
				} else {
					s.leases[p]--
				}
			}
		})
	}
}

func (s *ScratchStore) leased(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leases[path] > 0
}

func (s *ScratchStore) kindOf(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	base := filepath.Base(abs)
	if base == "." || base == string(filepath.Separator) || strings.HasPrefix(base, ".") {
		return "", false
	}
	switch filepath.Dir(abs) {
	case s.uploadDir:
		return KindUpload, true
	case s.generatedDir:
		return KindGenerated, true
	}
	return "", false
}

// Remove deletes the named scratch files. Paths outside the scratch
// directories and leased files are skipped; files that are already gone
// are not an error.
func (s *ScratchStore) Remove(paths ...string) error {
	var errs []error
	for _, p := range paths {
		kind, ok := s.kindOf(p)
		if !ok {
			s.logger.Warn().Str("path", p).Msg("refusing to remove file outside scratch directories")
			continue
		}
		abs, _ := filepath.Abs(p)
		if s.leased(abs) {
			s.logger.Debug().Str("path", abs).Msg("skipping leased scratch file")
			continue
		}
		if err := os.Remove(abs); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", abs, err))
			continue
		}
		s.metrics.ObserveScratch(kind, "remove", 1)
	}
	return errors.Join(errs...)
}

// Purge removes every regular file in both scratch directories except
// hidden files and files currently leased. It returns how many files were
// removed.
func (s *ScratchStore) Purge() (int, error) {
	removed := 0
	var errs []error
	for _, dir := range []struct{ kind, path string }{
		{KindUpload, s.uploadDir},
		{KindGenerated, s.generatedDir},
	} {
		entries, err := os.ReadDir(dir.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, fmt.Errorf("failed to list %s: %w", dir.path, err))
			continue
		}

		n := 0
		for _, entry := range entries {
			if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			path := filepath.Join(dir.path, entry.Name())
			if s.leased(path) {
				s.logger.Debug().Str("path", path).Msg("skipping leased scratch file")
				continue
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
				continue
			}
			n++
		}
		s.metrics.ObserveScratch(dir.kind, "purge", n)
		removed += n
	}
	return removed, errors.Join(errs...)
}

// ReadBase64 returns the standard base64 encoding of the file at path
func (s *ScratchStore) ReadBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ReadDataURL returns the file at path as a data URL whose MIME type is
// sniffed from the content.
func (s *ScratchStore) ReadDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", path, err)
	}
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Package staging spools inbound uploads to a local scratch directory before
// they are forwarded to the object store.
package staging

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	nameLength  = 6
	nameAlpha   = "abcdefghijklmnopqrstuvwxyz0123456789"
	maxAttempts = 8
)

// ErrNameExhausted signals that no free name was found in the scratch directory.
var ErrNameExhausted = errors.New("no free staging name")

// StagedFile describes an upload written to the scratch directory.
type StagedFile struct {
	Name         string
	OriginalName string
	Path         string
	Size         int64
	Extension    string
}

// Open opens the staged bytes for reading.
func (f *StagedFile) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// Remove deletes the staged file. Calling it more than once is safe.
func (f *StagedFile) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staged file %s: %w", f.Name, err)
	}
	return nil
}

// Stager writes uploads under randomly generated names.
type Stager struct {
	dir     string
	newName func() (string, error)
}

// NewStager ensures the scratch directory exists and returns a stager rooted at it.
func NewStager(dir string) (*Stager, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve scratch dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return &Stager{dir: abs, newName: RandomName}, nil
}

// Dir returns the absolute scratch directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Stage copies r into a new scratch file named <random><ext of originalName>.
// The caller owns the returned file and must Remove it.
func (s *Stager) Stage(r io.Reader, originalName string) (*StagedFile, error) {
	ext := filepath.Ext(filepath.Base(originalName))

	for attempt := 0; attempt < maxAttempts; attempt++ {
		base, err := s.newName()
		if err != nil {
			return nil, err
		}
		name := base + ext
		path := filepath.Join(s.dir, name)

		out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create staged file: %w", err)
		}

		staged := &StagedFile{
			Name:         name,
			OriginalName: originalName,
			Path:         path,
			Extension:    ext,
		}

		size, copyErr := io.Copy(out, r)
		closeErr := out.Close()
		if copyErr != nil || closeErr != nil {
			_ = staged.Remove()
			return nil, fmt.Errorf("write staged file: %w", errors.Join(copyErr, closeErr))
		}
		staged.Size = size
		return staged, nil
	}

	return nil, ErrNameExhausted
}

// RandomName returns six characters drawn uniformly from [a-z0-9].
func RandomName() (string, error) {
	buf := make([]byte, nameLength)
	out := make([]byte, 0, nameLength)
	// 252 is the largest multiple of 36 below 256; rejecting above it keeps the draw uniform.
	for len(out) < nameLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if b >= 252 {
				continue
			}
			out = append(out, nameAlpha[int(b)%len(nameAlpha)])
			if len(out) == nameLength {
				break
			}
		}
	}
	return string(out), nil
}

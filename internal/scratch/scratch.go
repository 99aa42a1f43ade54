// Package scratch manages the flat working directory the task engine uses
// to stage model artifacts and metric/prediction payloads while a task is
// in flight.
package scratch

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultChunkSize is the frame size used by Store.ReadChunks unless the
// caller overrides it with WithChunkSize.
const DefaultChunkSize = 1 << 20 // 1 MiB

// Store streams model artifacts into and out of a flat directory on an
// afero.Fs, naming every path after the id the caller passes (normally
// one minted by NewModelID).
type Store struct {
	fs        afero.Fs
	dir       string
	chunkSize int
	log       zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithChunkSize overrides DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithLogger attaches a logger used for unlink diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New builds a Store rooted at dir on fs. The caller is responsible for
// dir existing; New does not create it.
func New(fs afero.Fs, dir string, opts ...Option) *Store {
	s := &Store{
		fs:        fs,
		dir:       dir,
		chunkSize: DefaultChunkSize,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewModelID mints a correlation id for a freshly received or produced
// model artifact: a 32-hex-digit UUID-v4-like string with dashes inserted
// after hex digits 8/12/16/20 (string indices 8/13/18/23).
func NewModelID() string {
	return uuid.New().String()
}

// ModelPath returns the flat-layout path for a model artifact keyed by id.
func (s *Store) ModelPath(id string) string {
	return fmt.Sprintf("%s/%s.bin", s.dir, id)
}

// PayloadPath returns the flat-layout path for a metric/prediction
// artifact keyed by id.
func (s *Store) PayloadPath(id string) string {
	return fmt.Sprintf("%s/%s.json", s.dir, id)
}

// FrameSource yields the next frame of an inbound model transfer. It
// returns io.EOF once the source is exhausted; any other error aborts
// the write.
type FrameSource interface {
	Next() (data []byte, err error)
}

// WriteFrom drains src into the file at path, opened for binary write,
// and closes it on source termination (normal or error).
func (s *Store) WriteFrom(path string, src FrameSource) (err error) {
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("scratch: open %s for write: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("scratch: close %s: %w", path, cerr)
		}
	}()

	for {
		data, rerr := src.Next()
		if len(data) > 0 {
			if _, werr := f.Write(data); werr != nil {
				return fmt.Errorf("scratch: write %s: %w", path, werr)
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return nil
			}
			return fmt.Errorf("scratch: read source for %s: %w", path, rerr)
		}
	}
}

// Frame is one fixed-size slice of a stream-from-file read. Last is set
// on exactly one frame: the final pair, whose Data is always empty — the
// end-of-stream signal is disjoint from the last chunk carrying bytes.
type Frame struct {
	Data []byte
	Last bool
}

// ReadChunks iterates the file at path in fixed-size chunks, invoking
// emit for each Frame in order. The terminal call carries Last=true and
// empty Data.
func (s *Store) ReadChunks(path string, emit func(Frame) error) error {
	f, err := s.fs.Open(path)
	if err != nil {
		return fmt.Errorf("scratch: open %s for read: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, s.chunkSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if err := emit(Frame{Data: chunk}); err != nil {
				return err
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return emit(Frame{Last: true})
			}
			return fmt.Errorf("scratch: read %s: %w", path, rerr)
		}
	}
}

// Unlink removes the file at path. Absence is logged, not returned as an
// error: the caller's cleanup path must run unconditionally (I2).
func (s *Store) Unlink(path string) {
	if err := s.fs.Remove(path); err != nil {
		s.log.Debug().Str("path", path).Err(err).Msg("scratch: unlink skipped")
	}
}

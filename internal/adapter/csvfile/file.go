package csvfile

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
)

// WriteFile encodes a table to path atomically. A failed write never leaves a
// partial file at path.
func (c *Codec) WriteFile(path string, t *domain.Table) error {
	if err := t.Validate(); err != nil {
		return withPath(err, path)
	}
	err := WriteAtomic(path, func(w io.Writer) error { return c.Encode(w, t) })
	return withPath(err, path)
}

// ReadFile decodes the table stored at path. A missing file is reported as
// ErrMissingFixture.
func (c *Codec) ReadFile(path string) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewPathError(domain.ErrMissingFixture, path, err)
		}
		return nil, domain.NewPathError(domain.ErrIOFailure, path, err)
	}
	defer f.Close()

	t, err := c.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, withPath(err, path)
	}
	return t, nil
}

// WriteAtomic streams content into a temporary file next to path and renames
// it into place once fully written and synced. The temporary file is closed
// and removed on every failure path.
func WriteAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewPathError(domain.ErrIOFailure, path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return domain.NewPathError(domain.ErrIOFailure, path, err)
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = tmp.Close()
		}
		_ = os.Remove(tmpName)
	}()

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return domain.NewPathError(domain.ErrIOFailure, path, err)
	}
	if err := tmp.Sync(); err != nil {
		return domain.NewPathError(domain.ErrIOFailure, path, err)
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return domain.NewPathError(domain.ErrIOFailure, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return domain.NewPathError(domain.ErrIOFailure, path, err)
	}
	return nil
}

// withPath fills in the file path on errors raised before it was known.
func withPath(err error, path string) error {
	var ae *domain.ArtifactError
	if errors.As(err, &ae) && ae.Path == "" {
		ae.Path = path
	}
	return err
}

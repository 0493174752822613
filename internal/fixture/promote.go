package fixture

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/couchcryptid/cdms-golden-verifier/internal/adapter/csvfile"
	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
)

// Promote accepts a reviewed actual artifact as the new golden file by copying
// it over its expected counterpart. It returns the expected path written.
//
// This is an explicit operator action (goldencheck -update); verification
// itself never writes to the expected subtree.
func Promote(layout domain.Layout, name string) (string, error) {
	actualPath, expectedPath, err := layout.Paths(name)
	if err != nil {
		return "", err
	}

	src, err := os.Open(actualPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.NewPathError(domain.ErrMissingFixture, actualPath, err)
		}
		return "", domain.NewPathError(domain.ErrIOFailure, actualPath, err)
	}
	defer src.Close()

	err = csvfile.WriteAtomic(expectedPath, func(w io.Writer) error {
		if _, err := io.Copy(w, src); err != nil {
			return domain.NewPathError(domain.ErrIOFailure, actualPath, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return expectedPath, nil
}

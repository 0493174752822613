package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	actualToken   = "actual"
	expectedToken = "expected"
)

// DeriveExpectedName maps an actual artifact name to its golden counterpart by
// replacing the first "actual" with "expected". The replacement is applied
// once; a name without the token fails with ErrNamingConvention.
func DeriveExpectedName(name string) (string, error) {
	if !strings.Contains(name, actualToken) {
		return "", &ArtifactError{
			Kind: ErrNamingConvention,
			Path: name,
			Row:  -1,
			Err:  fmt.Errorf("name does not contain %q", actualToken),
		}
	}
	return strings.Replace(name, actualToken, expectedToken, 1), nil
}

// ActualName formats the conventional artifact name, e.g.
// ActualName("climatic_summary", 10, "csv") = "climatic_summary_actual010.csv".
func ActualName(prefix string, seq int, ext string) string {
	return fmt.Sprintf("%s_%s%03d.%s", prefix, actualToken, seq, strings.TrimPrefix(ext, "."))
}

// IsActualName reports whether a file name follows the actual naming convention.
func IsActualName(name string) bool {
	return strings.Contains(name, actualToken)
}

// Layout is a results directory split into an ephemeral actual subtree and a
// committed expected subtree.
type Layout struct {
	ActualDir   string
	ExpectedDir string
}

// NewLayout places the actual and expected subtrees under root.
func NewLayout(root string) Layout {
	return Layout{
		ActualDir:   filepath.Join(root, actualToken),
		ExpectedDir: filepath.Join(root, expectedToken),
	}
}

// Paths returns the actual and expected file paths for an artifact name.
// Derivation applies to the file name only, never to the directories.
func (l Layout) Paths(name string) (actual, expected string, err error) {
	expectedName, err := DeriveExpectedName(name)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(l.ActualDir, name), filepath.Join(l.ExpectedDir, expectedName), nil
}

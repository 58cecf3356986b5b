// Package testutil provides testing utilities for golden tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// FixtureContext locates a package's testdata directory.
type FixtureContext struct {
	// Root is the testdata directory of the package under test
	Root string

	// ExpectedDir is the path to the expected/ directory
	ExpectedDir string
}

// LoadFixture returns the fixture rooted at dir (relative to the package
// under test), failing the test if it does not exist.
func LoadFixture(t *testing.T, dir string) *FixtureContext {
	t.Helper()

	root, err := filepath.Abs(dir)
	if err != nil {
		t.Fatalf("Failed to resolve fixture dir %s: %v", dir, err)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		t.Fatalf("Fixture directory not found: %s", root)
	}

	return &FixtureContext{
		Root:        root,
		ExpectedDir: filepath.Join(root, "expected"),
	}
}

// Path returns the absolute path of a fixture file.
func (f *FixtureContext) Path(name string) string {
	return filepath.Join(f.Root, name)
}

// ExpectedPath returns the path to a golden file within the fixture.
func (f *FixtureContext) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, name)
}

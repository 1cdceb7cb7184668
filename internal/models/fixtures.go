package models

import (
	"path/filepath"
	"runtime"
	"testing"
)

// GetFixturePath returns the absolute path of a file under the repository testdata directory.
func GetFixturePath(t testing.TB, fixturePath string) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to locate fixtures directory")
	}
	root := filepath.Join(filepath.Dir(filename), "..", "..")
	abs, err := filepath.Abs(filepath.Join(root, "testdata", fixturePath))
	if err != nil {
		t.Fatalf("unable to resolve fixture %s: %v", fixturePath, err)
	}
	return abs
}

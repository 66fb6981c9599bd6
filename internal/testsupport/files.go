package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// AppendFile appends data to the target path, creating it if needed. It is
// the shape of write an instrument export produces between polls.
func AppendFile(t testing.TB, path, data string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		t.Fatalf("append to %s: %v", path, err)
	}
}

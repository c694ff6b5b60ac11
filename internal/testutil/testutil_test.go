// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile_CreatesParents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteFile(t, dir, "a/b/c.txt", "hello")
	if path != filepath.Join(dir, "a", "b", "c.txt") {
		t.Errorf("WriteFile() path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}

	MustRemove(t, path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after MustRemove: %v", err)
	}
}

func TestMustSetenv_Restores(t *testing.T) {
	const key = "TEXTCMD_TESTUTIL_PROBE"
	restoreOuter := MustUnsetenv(t, key)
	defer restoreOuter()

	restore := MustSetenv(t, key, "1")
	if got := os.Getenv(key); got != "1" {
		t.Fatalf("Getenv() = %q, want 1", got)
	}
	restore()
	if _, ok := os.LookupEnv(key); ok {
		t.Error("variable should be unset after restore")
	}
}

package osfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendFileCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	fsys := New()

	if err := fsys.AppendFile(path, []byte("first\n")); err != nil {
		t.Fatalf("AppendFile failed: %v", err)
	}
	if err := fsys.AppendFile(path, []byte("second\n")); err != nil {
		t.Fatalf("AppendFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(content) != "first\nsecond\n" {
		t.Errorf("content = %q, expected both lines", content)
	}
}

func TestAppendFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "app.log")
	if err := New().AppendFile(path, []byte("x")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("AppendFile into missing dir = %v, expected ErrNotExist", err)
	}
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "app.log")
	to := filepath.Join(dir, "app.1.log")
	if err := os.WriteFile(from, []byte("data"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := New().Rename(from, to); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if _, err := os.Stat(from); !os.IsNotExist(err) {
		t.Error("source should be gone")
	}
	if content, _ := os.ReadFile(to); string(content) != "data" {
		t.Errorf("destination content = %q", content)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.log")
	dst := filepath.Join(dir, "dst.log")
	if err := os.WriteFile(src, []byte("copied"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := copyFile(src, dst); err != nil {
		t.Fatalf("copyFile failed: %v", err)
	}
	content, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(content) != "copied" {
		t.Errorf("content = %q, expected %q", content, "copied")
	}
	if err := copyFile(filepath.Join(dir, "nope"), dst); err == nil {
		t.Error("copyFile of missing source should fail")
	}
}

func TestBirthTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	before := time.Now().Add(-time.Minute)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	bt, err := New().BirthTime(path)
	if err != nil {
		t.Fatalf("BirthTime failed: %v", err)
	}
	if bt.Before(before) || bt.After(time.Now().Add(time.Minute)) {
		t.Errorf("BirthTime = %v, expected around now", bt)
	}

	if _, err := New().BirthTime(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("BirthTime of missing file = %v, expected ErrNotExist", err)
	}
}

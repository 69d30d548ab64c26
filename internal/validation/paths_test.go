package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	v := NewFilePathValidator()

	got, err := v.ValidateFile(filepath.Join(dir, "mrkt.log"))
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("ValidateFile() = %s, want absolute path", got)
	}

	if _, err := v.ValidateFile(dir); err == nil || !strings.Contains(err.Error(), "directory") {
		t.Errorf("expected directory error, got %v", err)
	}
	if _, err := v.ValidateFile("logs/../../etc/passwd"); err == nil {
		t.Error("expected traversal error")
	}
	if _, err := v.ValidateFile("bad\x01name"); err == nil {
		t.Error("expected control character error")
	}
	if _, err := v.ValidateFile(""); err == nil {
		t.Error("expected empty path error")
	}
	if _, err := v.ValidateFile("~other/file"); err == nil {
		t.Error("expected tilde error")
	}
}

func TestValidateFileHomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := NewFilePathValidator().ValidateFile("~/.mrkt/mrkt.log")
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if got != filepath.Join(home, ".mrkt", "mrkt.log") {
		t.Errorf("ValidateFile() = %s", got)
	}

	v := NewFilePathValidator()
	v.AllowHomeExpansion = false
	if _, err := v.ValidateFile("~/x"); err == nil {
		t.Error("expected error with home expansion disabled")
	}
	_ = os.Remove(got)
}

func TestIsPathSafe(t *testing.T) {
	if !IsPathSafe("/tmp/mrkt.log") {
		t.Error("plain path should be safe")
	}
	if IsPathSafe("a/../b") {
		t.Error("traversal should be unsafe")
	}
	if IsPathSafe("a\x00b") {
		t.Error("null byte should be unsafe")
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCredential(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "trims whitespace", path: write("key", "  sk-ant-123\n\n"), want: "sk-ant-123"},
		{name: "empty file", path: write("empty", " \n"), wantErr: true},
		{name: "missing file", path: filepath.Join(dir, "missing"), wantErr: true},
		{name: "directory", path: dir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadCredential(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrMissingCredential) {
					t.Fatalf("expected ErrMissingCredential, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("LoadCredential() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadCredentialFromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.WriteFile(filepath.Join(home, ".slop"), []byte("secret\n"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := LoadCredential(DefaultCredentialPath)
	if err != nil {
		t.Fatalf("LoadCredential() error = %v", err)
	}
	if got != "secret" {
		t.Errorf("LoadCredential() = %q, want secret", got)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/.slop", filepath.Join(home, ".slop")},
		{"/abs/path", "/abs/path"},
		{"rel/~/x", "rel/~/x"},
		{"~user/x", "~user/x"},
	}
	for _, tt := range tests {
		got, err := ExpandHome(tt.in)
		if err != nil {
			t.Fatalf("ExpandHome(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

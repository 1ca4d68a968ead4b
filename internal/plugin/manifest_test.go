package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestManifest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  error
	}{
		{
			name:     "valid",
			manifest: Manifest{Name: "seo-tools", Version: "1.2.3", Main: "init.lua"},
		},
		{
			name:     "main defaults",
			manifest: Manifest{Name: "seo-tools", Version: "1.2.3"},
		},
		{
			name:     "single letter name",
			manifest: Manifest{Name: "a", Version: "0.1.0"},
		},
		{
			name:     "prerelease version",
			manifest: Manifest{Name: "seo-tools", Version: "1.0.0-beta.1"},
		},
		{
			name:     "missing name",
			manifest: Manifest{Version: "1.0.0"},
			wantErr:  ErrMissingName,
		},
		{
			name:     "uppercase name",
			manifest: Manifest{Name: "SeoTools", Version: "1.0.0"},
			wantErr:  ErrInvalidName,
		},
		{
			name:     "trailing dash",
			manifest: Manifest{Name: "seo-", Version: "1.0.0"},
			wantErr:  ErrInvalidName,
		},
		{
			name:     "missing version",
			manifest: Manifest{Name: "seo-tools"},
			wantErr:  ErrMissingVersion,
		},
		{
			name:     "bad version",
			manifest: Manifest{Name: "seo-tools", Version: "v1"},
			wantErr:  ErrInvalidVersion,
		},
		{
			name:     "non-lua main",
			manifest: Manifest{Name: "seo-tools", Version: "1.0.0", Main: "init.sh"},
			wantErr:  ErrInvalidMain,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestManifest_ValidateDefaultsMain(t *testing.T) {
	m := Manifest{Name: "x", Version: "1.0.0"}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	if m.Main != "init.lua" {
		t.Errorf("expected default main init.lua, got %q", m.Main)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	content := `
name = "greeter"
version = "2.0.0"
description = "says hello"
author = "someone"
main = "greeter.lua"
`
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Name != "greeter" || m.Version != "2.0.0" || m.Author != "someone" {
		t.Errorf("unexpected manifest %+v", m)
	}
	if m.Dir() != dir {
		t.Errorf("expected dir %q, got %q", dir, m.Dir())
	}
	if m.MainPath() != filepath.Join(dir, "greeter.lua") {
		t.Errorf("unexpected main path %q", m.MainPath())
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	if _, err := LoadManifest(t.TempDir()); err == nil {
		t.Error("expected an error for a directory with no manifest")
	}
}

func TestLoadManifest_Malformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte("name = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(dir); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(`name = "Bad Name"
version = "1.0.0"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(dir); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

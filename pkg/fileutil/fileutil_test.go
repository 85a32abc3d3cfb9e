package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFind(t *testing.T) {
	fsys := NewFS(fstest.MapFS{
		"System.yaml":          {Data: []byte("a")},
		"songs/Battle.MID":     {Data: []byte("b")},
		"songs/lowercase.wav":  {Data: []byte("c")},
		"songs/nested/dir.txt": {Data: []byte("d")},
	})

	tests := []struct {
		name       string
		searchName string
		want       string
		shouldFind bool
	}{
		{"exact match", "System.yaml", "System.yaml", true},
		{"lowercase search", "system.yaml", "System.yaml", true},
		{"leading slash", "/songs/battle.mid", "songs/Battle.MID", true},
		{"backslashes", "songs\\LOWERCASE.WAV", "songs/lowercase.wav", true},
		{"directory is not a file", "songs/nested", "", false},
		{"file not found", "nonexistent.txt", "", false},
		{"missing directory", "nowhere/file.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fsys.Find(tt.searchName)
			if !tt.shouldFind {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Find(%q) error = %v, want ErrNotFound", tt.searchName, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find(%q) error = %v", tt.searchName, err)
			}
			if got != tt.want {
				t.Errorf("Find(%q) = %q, want %q", tt.searchName, got, tt.want)
			}
		})
	}

	if _, ok := fsys.FindFirst("system.yml", "SYSTEM.YAML"); !ok {
		t.Error("FindFirst should fall back to the second candidate")
	}
	if data, err := fsys.ReadFile("SONGS/battle.mid"); err == nil {
		t.Errorf("directories are matched exactly, got %q", data)
	}
}

func TestDirFS(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "Heroes.YAML"), []byte("- id: 1\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	fsys := NewDirFS(tmpDir)
	if fsys.BasePath() != tmpDir {
		t.Errorf("BasePath() = %q, want %q", fsys.BasePath(), tmpDir)
	}
	data, err := fsys.ReadFile("heroes.yaml")
	if err != nil {
		t.Fatalf("ReadFile error = %v", err)
	}
	if string(data) != "- id: 1\n" {
		t.Errorf("ReadFile = %q", data)
	}
	if fsys.Exists("monsters.yaml") {
		t.Error("Exists(monsters.yaml) = true, want false")
	}
}

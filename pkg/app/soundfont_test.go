package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zurustar/paperrpg/pkg/cli"
)

func TestFindSoundFont(t *testing.T) {
	cwd := t.TempDir()
	project := t.TempDir()

	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)
	if err := os.Chdir(cwd); err != nil {
		t.Fatal(err)
	}

	t.Run("見つからない場合はnil", func(t *testing.T) {
		if loc := findSoundFont(cli.DefaultSoundFontName, project); loc != nil {
			t.Errorf("expected nil, got %+v", loc)
		}
	})

	t.Run("ファイル名が空の場合はnil", func(t *testing.T) {
		if loc := findSoundFont("", project); loc != nil {
			t.Errorf("expected nil, got %+v", loc)
		}
	})

	if err := os.WriteFile(filepath.Join(project, cli.DefaultSoundFontName), []byte("RIFF....sfbk"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("プロジェクトディレクトリから見つける", func(t *testing.T) {
		loc := findSoundFont(cli.DefaultSoundFontName, project)
		if loc == nil {
			t.Fatal("expected to find SoundFont in the project directory")
		}
		if loc.FileSystem.BasePath() != project {
			t.Errorf("BasePath() = %q, want %q", loc.FileSystem.BasePath(), project)
		}
		if !loc.FileSystem.Exists(loc.Path) {
			t.Errorf("%s must exist in %s", loc.Path, project)
		}
	})

	if err := os.WriteFile(filepath.Join(cwd, cli.DefaultSoundFontName), []byte("RIFF....sfbk"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("カレントディレクトリを優先する", func(t *testing.T) {
		loc := findSoundFont(cli.DefaultSoundFontName, project)
		if loc == nil {
			t.Fatal("expected to find SoundFont in the current directory")
		}
		if loc.FileSystem.BasePath() != "." {
			t.Errorf("BasePath() = %q, want .", loc.FileSystem.BasePath())
		}
	})
}

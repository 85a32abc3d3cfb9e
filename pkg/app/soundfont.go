package app

import (
	"os"
	"path/filepath"

	"github.com/zurustar/paperrpg/pkg/fileutil"
)

// SoundFontLocation はSoundFontファイルの場所を表す
type SoundFontLocation struct {
	// Path はFileSystem内でのファイル名
	Path string
	// FileSystem はファイルを読み込むFileSystem
	FileSystem *fileutil.FileSystem
}

// findSoundFont はSoundFontファイルを以下の順で検索する
//  1. カレントディレクトリ
//  2. プロジェクトディレクトリ
//
// 見つからない場合は nil を返す
func findSoundFont(name, projectPath string) *SoundFontLocation {
	if name == "" {
		return nil
	}
	for _, dir := range []string{".", projectPath} {
		if dir == "" {
			continue
		}
		if st, err := os.Stat(filepath.Join(dir, name)); err == nil && !st.IsDir() {
			return &SoundFontLocation{
				Path:       filepath.ToSlash(name),
				FileSystem: fileutil.NewDirFS(dir),
			}
		}
	}
	return nil
}

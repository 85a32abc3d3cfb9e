// Package fileutil provides case-insensitive access to the files of a game
// project, on disk or in any fs.FS.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// ErrNotFound is returned when no file matches a name.
var ErrNotFound = errors.New("file not found")

// FileSystem はプロジェクトのファイルへのアクセスを提供する
type FileSystem struct {
	fsys     fs.FS
	basePath string
}

// NewDirFS はディレクトリをルートとするFileSystemを作成する
func NewDirFS(dir string) *FileSystem {
	return &FileSystem{fsys: os.DirFS(dir), basePath: dir}
}

// NewFS は任意のfs.FS（embed.FS、fstest.MapFSなど）からFileSystemを作成する
func NewFS(fsys fs.FS) *FileSystem {
	return &FileSystem{fsys: fsys, basePath: "."}
}

// BasePath はベースパスを返す
func (f *FileSystem) BasePath() string {
	return f.basePath
}

// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
func (f *FileSystem) ReadFile(name string) ([]byte, error) {
	actual, err := f.Find(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(f.fsys, actual)
}

// Exists はファイルが存在するかどうかを返す（大文字小文字を無視）
func (f *FileSystem) Exists(name string) bool {
	_, err := f.Find(name)
	return err == nil
}

// FindFirst は候補の中で最初に見つかったファイルの実際のパスを返す
func (f *FileSystem) FindFirst(names ...string) (string, bool) {
	for _, name := range names {
		if actual, err := f.Find(name); err == nil {
			return actual, true
		}
	}
	return "", false
}

// Find は大文字小文字を無視してファイルを検索し、実際のパスを返す
func (f *FileSystem) Find(name string) (string, error) {
	p := clean(name)
	// まず直接アクセスを試みる
	if st, err := fs.Stat(f.fsys, p); err == nil && !st.IsDir() {
		return p, nil
	}
	return FindFileCaseInsensitiveFS(f.fsys, path.Dir(p), path.Base(p))
}

// clean は先頭の "/" や "\" を除去し、区切り文字を "/" に揃える
func clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "."
	}
	return path.Clean(name)
}

// FindFileCaseInsensitiveFS searches dir of fsys for a file named filename,
// ignoring case, and returns its actual path.
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s (%v)", ErrNotFound, path.Join(dir, filename), err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return path.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, filename, dir)
}

package proxy

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// Database files the journal may leave next to the docs.
var hiddenSuffixes = []string{".db", ".sqlite", ".sqlite3", ".db-journal", ".db-wal", ".db-shm"}

// hidden reports whether name must never be served: dotfiles (.env, .git) and database files.
func hidden(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	lower := strings.ToLower(path.Base(name))
	for _, suffix := range hiddenSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

type docsFS struct {
	root http.FileSystem
}

func (d docsFS) Open(name string) (http.File, error) {
	if hidden(name) {
		return nil, fs.ErrNotExist
	}
	f, err := d.root.Open(name)
	if err != nil {
		return nil, err
	}
	return docsFile{f}, nil
}

// docsFile drops hidden entries from directory listings.
type docsFile struct {
	http.File
}

func (f docsFile) Readdir(count int) ([]os.FileInfo, error) {
	infos, err := f.File.Readdir(count)
	visible := infos[:0]
	for _, info := range infos {
		if !hidden(info.Name()) {
			visible = append(visible, info)
		}
	}
	return visible, err
}

// Static serves the documentation files under dir. Dotfiles and database
// files answer 404 even when they sit in dir.
func Static(dir string) http.Handler {
	return http.FileServer(docsFS{root: http.Dir(dir)})
}

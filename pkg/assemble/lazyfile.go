package assemble

import (
	"os"
	"path/filepath"
)

// lazyFile is a NamedReader that opens its file on first Read and closes it
// once reading finishes. A retried send reads again from the start because
// the file reopens after EOF or an error.
type lazyFile struct {
	path string
	name string
	f    *os.File
}

func newLazyFile(path string) *lazyFile {
	return &lazyFile{path: path, name: filepath.Base(path)}
}

func (l *lazyFile) Name() string { return l.name }

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.f == nil {
		f, err := os.Open(l.path)
		if err != nil {
			return 0, err
		}
		l.f = f
	}
	n, err := l.f.Read(p)
	if err != nil {
		_ = l.f.Close()
		l.f = nil
	}
	return n, err
}

package backend

import (
	"os"

	"github.com/spf13/afero"
)

// AferoFS serves files from any afero filesystem, the OS one by default.
type AferoFS struct {
	Fs afero.Fs
}

func NewOSFileSystem() *AferoFS {
	return &AferoFS{Fs: afero.NewOsFs()}
}

func (a *AferoFS) Open(name string) (FileHandler, error) {
	return a.Fs.Open(name)
}

func (a *AferoFS) ReadFile(filename string) ([]byte, error) {
	return afero.ReadFile(a.Fs, filename)
}

func (a *AferoFS) Stat(name string) (os.FileInfo, error) {
	return a.Fs.Stat(name)
}

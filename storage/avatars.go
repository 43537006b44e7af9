package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	avatarsDir = "avatars"
	badgesDir  = "badges"
	// MediaURLPrefix is where the media root is mounted by the server.
	MediaURLPrefix = "/media"
	maxAvatarBytes = 10 << 20
	// maxAvatarPixels bounds the decoded size of an upload.
	maxAvatarPixels = 40_000_000
)

var (
	ErrUnsupportedImage = errors.New("unsupported or corrupted image")
	ErrImageTooLarge    = errors.New("image is too large")

	safeName = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// FSAvatarStorage is the AvatarStorage kept under <root>/<dir>.
type FSAvatarStorage struct {
	fs   afero.Fs
	root string
	dir  string
}

// NewFSAvatarStorage keeps user avatars under <root>/avatars.
func NewFSAvatarStorage(fs afero.Fs, root string) (*FSAvatarStorage, error) {
	return newFSImageStorage(fs, root, avatarsDir)
}

// NewFSBadgeStorage keeps badge images under <root>/badges, keyed by badge id.
func NewFSBadgeStorage(fs afero.Fs, root string) (*FSAvatarStorage, error) {
	return newFSImageStorage(fs, root, badgesDir)
}

func newFSImageStorage(fs afero.Fs, root, dir string) (*FSAvatarStorage, error) {
	if err := fs.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
	}
	return &FSAvatarStorage{fs: fs, root: root, dir: dir}, nil
}

func fileName(username, size string) string {
	if size == "" || size == SizeOriginal {
		return username + ".png"
	}
	return username + "_" + size + ".png"
}

func (s *FSAvatarStorage) file(username, size string) string {
	return filepath.Join(s.root, s.dir, fileName(username, size))
}

func (s *FSAvatarStorage) URL(username, size string) string {
	return path.Join(MediaURLPrefix, s.dir, fileName(username, size))
}

func (s *FSAvatarStorage) Save(username string, r io.Reader) (string, error) {
	if !safeName.MatchString(username) {
		return "", fmt.Errorf("invalid image name: %q", username)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxAvatarBytes {
		return "", ErrImageTooLarge
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxAvatarPixels {
		return "", fmt.Errorf("%w: %dx%d pixels", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	square := CropSquare(img)
	if err := s.write(s.file(username, SizeOriginal), square); err != nil {
		return "", err
	}
	for size, edge := range AvatarSizes {
		if err := s.write(s.file(username, size), Resize(square, edge)); err != nil {
			return "", err
		}
	}
	return s.URL(username, SizeOriginal), nil
}

func (s *FSAvatarStorage) write(name string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(name), err)
	}
	if err := afero.WriteFile(s.fs, name, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(name), err)
	}
	return nil
}

// Delete removes every size of the avatar. A missing avatar is not an error.
func (s *FSAvatarStorage) Delete(username string) error {
	for _, size := range []string{SizeOriginal, SizeSmall, SizeMedium, SizeLarge} {
		if err := s.fs.Remove(s.file(username, size)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove avatar: %w", err)
		}
	}
	return nil
}

func (s *FSAvatarStorage) Exists(username string) bool {
	ok, err := afero.Exists(s.fs, s.file(username, SizeOriginal))
	return err == nil && ok
}

func (s *FSAvatarStorage) FileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir(s.root)
}

// CropSquare returns the largest centred square of img.
func CropSquare(img image.Image) image.Image {
	b := img.Bounds()
	edge := b.Dx()
	if b.Dy() < edge {
		edge = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-edge)/2
	y0 := b.Min.Y + (b.Dy()-edge)/2

	dst := image.NewRGBA(image.Rect(0, 0, edge, edge))
	draw.Draw(dst, dst.Bounds(), img, image.Pt(x0, y0), draw.Src)
	return dst
}

// Resize scales img to an edge x edge square.
func Resize(img image.Image, edge int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, edge, edge))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

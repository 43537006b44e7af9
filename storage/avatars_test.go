package storage

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AvatarStorageTestSuite struct {
	suite.Suite
	fs      afero.Fs
	avatars *FSAvatarStorage
}

func TestAvatarStorageTestSuite(t *testing.T) {
	suite.Run(t, new(AvatarStorageTestSuite))
}

func (s *AvatarStorageTestSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	var err error
	s.avatars, err = NewFSAvatarStorage(s.fs, "/srv/media")
	s.Require().NoError(err)
}

func pngOf(w, h int) *bytes.Buffer {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return &buf
}

func (s *AvatarStorageTestSuite) decode(name string) image.Image {
	data, err := afero.ReadFile(s.fs, name)
	s.Require().NoError(err)
	img, err := png.Decode(bytes.NewReader(data))
	s.Require().NoError(err)
	return img
}

func (s *AvatarStorageTestSuite) TestSaveWritesEverySize() {
	url, err := s.avatars.Save("girik", pngOf(300, 200))
	s.Require().NoError(err)
	assert.Equal(s.T(), "/media/avatars/girik.png", url)

	original := s.decode("/srv/media/avatars/girik.png")
	assert.Equal(s.T(), 200, original.Bounds().Dx())
	assert.Equal(s.T(), 200, original.Bounds().Dy())

	for size, edge := range AvatarSizes {
		img := s.decode("/srv/media/avatars/girik_" + size + ".png")
		assert.Equal(s.T(), edge, img.Bounds().Dx(), size)
		assert.Equal(s.T(), edge, img.Bounds().Dy(), size)
	}
	assert.True(s.T(), s.avatars.Exists("girik"))
}

func (s *AvatarStorageTestSuite) TestSaveRejectsGarbage() {
	_, err := s.avatars.Save("girik", strings.NewReader("definitely not an image"))
	assert.ErrorIs(s.T(), err, ErrUnsupportedImage)
	assert.False(s.T(), s.avatars.Exists("girik"))

	_, err = s.avatars.Save("../etc/passwd", pngOf(10, 10))
	assert.Error(s.T(), err)
}

// pngHeader returns a PNG that declares w x h pixels but carries no image data.
func pngHeader(w, h uint32) *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA

	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return &buf
}

func (s *AvatarStorageTestSuite) TestSaveRejectsHugeDimensions() {
	_, err := s.avatars.Save("girik", pngHeader(50000, 50000))
	assert.ErrorIs(s.T(), err, ErrImageTooLarge)
	assert.False(s.T(), s.avatars.Exists("girik"))
}

func (s *AvatarStorageTestSuite) TestDelete() {
	_, err := s.avatars.Save("girik", pngOf(64, 64))
	s.Require().NoError(err)

	s.Require().NoError(s.avatars.Delete("girik"))
	assert.False(s.T(), s.avatars.Exists("girik"))
	for size := range AvatarSizes {
		exists, _ := afero.Exists(s.fs, "/srv/media/avatars/girik_"+size+".png")
		assert.False(s.T(), exists)
	}
	assert.NoError(s.T(), s.avatars.Delete("girik"))
}

func (s *AvatarStorageTestSuite) TestURL() {
	assert.Equal(s.T(), "/media/avatars/girik_small.png", s.avatars.URL("girik", SizeSmall))
	assert.Equal(s.T(), "/media/avatars/girik.png", s.avatars.URL("girik", SizeOriginal))
}

func TestBadgeStorageUsesOwnDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	badges, err := NewFSBadgeStorage(fs, "/srv/media")
	assert.NoError(t, err)

	url, err := badges.Save("7", pngOf(32, 32))
	assert.NoError(t, err)
	assert.Equal(t, "/media/badges/7.png", url)
	assert.Equal(t, "/media/badges/7_large.png", badges.URL("7", SizeLarge))

	exists, _ := afero.Exists(fs, "/srv/media/badges/7_small.png")
	assert.True(t, exists)
	exists, _ = afero.Exists(fs, "/srv/media/avatars/7.png")
	assert.False(t, exists)
}

func TestCropSquareKeepsCentre(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 30, 10))
	img.Set(15, 5, color.RGBA{R: 255, A: 255})

	square := CropSquare(img)
	assert.Equal(t, image.Rect(0, 0, 10, 10), square.Bounds())
	r, _, _, _ := square.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

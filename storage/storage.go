// Package storage keeps the media files served by the ledger server. Files live
// on an afero filesystem so tests can run against memory.
package storage

import (
	"io"
	"net/http"
)

// Avatar sizes and their edge in pixels. Original keeps the cropped upload as is.
const (
	SizeOriginal = "original"
	SizeSmall    = "small"
	SizeMedium   = "medium"
	SizeLarge    = "large"
)

var AvatarSizes = map[string]int{
	SizeSmall:  48,
	SizeMedium: 128,
	SizeLarge:  256,
}

// AvatarStorage stores one square PNG per name in several sizes. Avatars are
// named after the user, badge images after the badge id.
//
//   - Save decodes any supported image format, crops it to the central square and
//     writes the original and every size in AvatarSizes.
//
// - The returned path is the public URL path of the original file.
type AvatarStorage interface {
	Save(username string, r io.Reader) (string, error)
	Delete(username string) error
	// Exists reports whether username has an avatar.
	Exists(username string) bool
	// URL returns the public path of username's avatar in the given size.
	URL(username, size string) string
	// FileSystem exposes the media root for serving.
	FileSystem() http.FileSystem
}

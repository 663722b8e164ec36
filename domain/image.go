package domain

import (
	"io"
	"path"
	"strings"
)

const (
	// ImagesBaseDir determines the general storage location of uploaded images.
	ImagesBaseDir = "images"
	// MaxUploadSize determines the maximum filesize of an image to be uploaded.
	MaxUploadSize int64 = 5 << 20 // 5 Megabyte
)

// Image represents an image to be stored. Images have no dedicated database
// table; users and posts reference them by the URL the store hands back on
// upload. File contains the actual image data to be stored, Filename the name
// the file will be stored under (assigned during validation).
type Image struct {
	URL         string        `json:"url"`
	File        io.ReadSeeker `json:"-"`
	Filename    string        `json:"-"`
	Extension   string        `json:"-"`
	ContentType string        `json:"-"`
}

// ImageService is the surface of the media store: upload a new image, or
// delete a stored one by its public ID.
type ImageService interface {
	Upload(image *Image) error
	Destroy(publicID string) error
}

// PublicID derives the identifier of a stored image from its URL: the last
// path segment with the file extension cut off.
func PublicID(url string) string {
	base := path.Base(url)
	return strings.TrimSuffix(base, path.Ext(base))
}

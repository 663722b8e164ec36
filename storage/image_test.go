package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockApp/domain"
	"flockApp/errs"
)

// pngHeader is the magic-number prefix http.DetectContentType keys on.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func testImage() *domain.Image {
	return &domain.Image{
		File:     bytes.NewReader(append(pngHeader, make([]byte, 64)...)),
		Filename: "upload.png",
	}
}

func TestUploadAndDestroy(t *testing.T) {
	dir := t.TempDir()
	is := NewImageService(dir)

	img := testImage()
	require.NoError(t, is.Upload(img))

	// The image got a unique filename and a URL pointing at it.
	assert.NotEqual(t, "upload.png", img.Filename)
	assert.Equal(t, "/"+domain.ImagesBaseDir+"/"+img.Filename, img.URL)

	stored := filepath.Join(dir, img.Filename)
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngHeader))

	// The public ID round-trips from the URL back to the stored file.
	publicID := domain.PublicID(img.URL)
	require.NoError(t, is.Destroy(publicID))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
}

func TestDestroyMissingFileIsNoError(t *testing.T) {
	is := NewImageService(t.TempDir())
	require.NoError(t, is.Destroy("does-not-exist"))
}

func TestDestroyRejectsPathCharacters(t *testing.T) {
	is := NewImageService(t.TempDir())

	for _, publicID := range []string{"", "../escape", "a/b", `a\b`, "name.png"} {
		err := is.Destroy(publicID)
		require.Error(t, err)
		assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	}
}

func TestUploadRejectsInvalidImages(t *testing.T) {
	is := NewImageService(t.TempDir())

	// Wrong extension.
	img := testImage()
	img.Filename = "upload.gif"
	err := is.Upload(img)
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	// Content that isn't an image at all.
	img = &domain.Image{
		File:     bytes.NewReader([]byte("just some text")),
		Filename: "upload.png",
	}
	err = is.Upload(img)
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	// Extension not matching the actual content type.
	img = testImage()
	img.Filename = "upload.jpeg"
	err = is.Upload(img)
	require.Error(t, err)
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestPublicID(t *testing.T) {
	assert.Equal(t, "zmxorcxexpdbh8r0bkjb", domain.PublicID("https://cdn.example.com/v1712997552/zmxorcxexpdbh8r0bkjb.png"))
	assert.Equal(t, "abc", domain.PublicID("/images/abc.jpeg"))
	assert.Equal(t, "abc", domain.PublicID("abc.png"))
}

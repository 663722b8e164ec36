package storage

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"flockApp/domain"
	"flockApp/errs"
)

// ImageService stores uploaded images on disk and serves as the app's media
// store. It hands back a URL on upload and deletes stored images by their
// public ID (the filename without its extension).
// It implements the domain.ImageService interface.
type ImageService struct {
	imageValidator
}

// imageValidator runs validations on incoming Image data.
// On success, it passes the data on to imageStore.
type imageValidator struct {
	imageStore
}

// imageStore runs the actual filesystem operations.
// It assumes that data has been validated.
type imageStore struct {
	baseDir string
}

// NewImageService returns an instance of ImageService storing images under
// baseDir. An empty baseDir falls back to domain.ImagesBaseDir.
func NewImageService(baseDir string) *ImageService {
	if baseDir == "" {
		baseDir = domain.ImagesBaseDir
	}
	return &ImageService{
		imageValidator{
			imageStore{
				baseDir: baseDir,
			},
		},
	}
}

var _ domain.ImageService = &ImageService{}

// Upload runs validations needed for storing an image and writes it to disk.
// On success, the Image's URL field points at the stored file.
func (iv *imageValidator) Upload(img *domain.Image) error {
	err := runImageValFns(img,
		iv.extensionValid,
		iv.contentTypeValid,
		iv.contentTypeExtensionMatch,
		iv.belowMaxSize,
		iv.fileNameUnique,
	)
	if err != nil {
		return err
	}
	return iv.imageStore.Upload(img)
}

// Destroy checks that the public ID names a plain file and deletes it.
func (iv *imageValidator) Destroy(publicID string) error {
	if publicID == "" {
		return errs.Errorf(errs.EINVALID, "Image ID must not be empty.")
	}
	if strings.ContainsAny(publicID, "/\\.") {
		return errs.Errorf(errs.EINVALID, "Image ID contains invalid characters.")
	}
	return iv.imageStore.Destroy(publicID)
}

// runImageValFns runs any number of functions of type imageValFn on the passed in Image object.
func runImageValFns(img *domain.Image, fns ...imageValFn) error {
	for _, fn := range fns {
		if err := fn(img); err != nil {
			return err
		}
	}
	return nil
}

// A imageValFn is any function that takes in a pointer to a domain.Image object and returns an error.
type imageValFn func(img *domain.Image) error

// belowMaxSize makes sure that the image to be uploaded does not exceed domain.MaxUploadSize.
func (iv *imageValidator) belowMaxSize(img *domain.Image) error {
	size, err := img.File.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if err = resetFilePointer(img); err != nil {
		return err
	}
	if size > domain.MaxUploadSize {
		return errs.Errorf(
			errs.EINVALID,
			"Image "+img.Filename+" exceeds upload size limit of "+strconv.FormatInt(domain.MaxUploadSize/1000000, 10)+"MB.",
		)
	}
	return nil
}

// contentTypeValid makes sure that the image to be uploaded is a valid jpeg or png file.
func (iv *imageValidator) contentTypeValid(img *domain.Image) error {
	buffer := make([]byte, 512)
	_, err := img.File.Read(buffer)
	if err != nil && err != io.EOF {
		return err
	}
	if err = resetFilePointer(img); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return errs.Errorf(
			errs.EINVALID,
			"Image "+img.Filename+" invalid content-type, must be image/jpeg or image/png.",
		)
	}
	img.ContentType = contentType
	return nil
}

// contentTypeExtensionMatch makes sure the file extension matches the actual content type.
func (iv *imageValidator) contentTypeExtensionMatch(img *domain.Image) error {
	contentType := strings.TrimPrefix(img.ContentType, "image/")
	ext := strings.TrimPrefix(img.Extension, ".")
	if contentType != ext {
		return errs.Errorf(
			errs.EINVALID,
			"Image "+img.Filename+" content-type "+img.ContentType+" does not match extension "+img.Extension+".",
		)
	}
	return nil
}

// extensionValid makes sure the image has a jpeg or png file extension.
func (iv *imageValidator) extensionValid(img *domain.Image) error {
	ext := filepath.Ext(img.Filename)
	ext = strings.ToLower(ext)
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return errs.Errorf(
			errs.EINVALID,
			"Image "+img.Filename+" invalid extension, must be .jpeg or .png",
		)
	}
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	img.Extension = ext
	return nil
}

// fileNameUnique assigns the image a unique storage filename. Its stem is the
// image's public ID.
func (iv *imageValidator) fileNameUnique(img *domain.Image) error {
	img.Filename = uuid.New().String() + img.Extension
	return nil
}

// Upload writes the image file to disk and sets its URL.
func (is *imageStore) Upload(img *domain.Image) error {
	if err := os.MkdirAll(is.baseDir, 0755); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(is.baseDir, img.Filename))
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, img.File); err != nil {
		return err
	}
	img.URL = path.Join("/", domain.ImagesBaseDir, img.Filename)
	return nil
}

// Destroy deletes the stored file whose name starts with the public ID,
// whatever its extension. A missing file is not an error.
func (is *imageStore) Destroy(publicID string) error {
	matches, err := filepath.Glob(filepath.Join(is.baseDir, publicID+".*"))
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return err
		}
	}
	return nil
}

// resetFilePointer rewinds the image file so the next validation
// (or the final write) starts reading from the beginning again.
func resetFilePointer(img *domain.Image) error {
	_, err := img.File.Seek(0, io.SeekStart)
	return err
}

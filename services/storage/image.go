package storagesvc

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/mrhat05/Doubtroom/core"
)

const (
	imageFolder      = "questions"
	imageContentType = "image/jpeg"
	jpegQuality      = 85
)

var unsafeFilenameRegex = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// PrepareImage decodes an uploaded image, downscales it to at most maxWidth pixels wide
// and re-encodes it as JPEG.
func PrepareImage(upload core.Upload, maxWidth int) (*bytes.Buffer, error) {
	img, err := imaging.Decode(upload.Body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "photo", Error: "the photo is not a valid image"})
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err = imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf, nil
}

// objectKey returns a unique key of the form `questions/<date>-<uuid>-<name>.jpg`.
func objectKey(filename string) string {
	name := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	name = strings.Trim(unsafeFilenameRegex.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." {
		name = "photo"
	}
	return fmt.Sprintf("%s/%s-%s-%s.jpg", imageFolder, time.Now().UTC().Format("20060102"), uuid.New().String(), name)
}

func publicURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + key
}

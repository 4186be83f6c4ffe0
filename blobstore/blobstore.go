package blobstore

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"

	// decoders registered for format sniffing
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/exp/slices"
)

const (
	DriverCloudinary = "cloudinary"
	DriverFTP        = "ftp"
)

// AllowedFormats are the image formats the server accepts for upload
var AllowedFormats = []string{"jpg", "jpeg", "png"}

var (
	ErrEmptyImage        = errors.New("image is empty")
	ErrUnsupportedFormat = errors.New("image format is not allowed")
)

// Store uploads raw image bytes and returns a URL the image can be fetched from
type Store interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// DetectFormat sniffs the image header and returns its format
// (jpeg or png) if it is an allowed one
func DetectFormat(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrUnsupportedFormat
	}
	format = strings.ToLower(format)
	if !slices.Contains(AllowedFormats, format) {
		return "", ErrUnsupportedFormat
	}
	return format, nil
}

// Extension maps a detected format to the file extension used for storage
func Extension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

package avatar

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxBytes caps the decoded size of an avatar image.
const MaxBytes = 5 << 20

var (
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("image is too large")
	ErrDataURI  = errors.New("invalid data uri")
)

var allowedMIMEs = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
}

// Encode turns raw image bytes into a base64 data URI. The type is detected
// from the content; anything outside image/* is rejected.
func Encode(data []byte) (string, error) {
	if len(data) > MaxBytes {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Decode parses a base64 data URI and returns the bytes and the file
// extension for the detected image type.
func Decode(uri string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, "", ErrDataURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("%w: must be base64 encoded", ErrDataURI)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxBytes+3 {
		return nil, "", ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDataURI, err)
	}
	if len(data) > MaxBytes {
		return nil, "", ErrTooLarge
	}
	mt := mimetype.Detect(data).String()
	ext, ok := allowedMIMEs[mt]
	if !ok {
		return nil, "", fmt.Errorf("%w: unsupported type %s", ErrNotImage, mt)
	}
	return data, ext, nil
}

// IsDataURI reports whether s looks like an inline upload rather than a
// stored URL.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

package vision

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const MaxImageBytes = 8 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// DecodeImage accepts either a data URL ("data:image/png;base64,....") or
// bare base64. mimeType is used when the input carries none; with neither
// the type is sniffed from the bytes.
func DecodeImage(input, mimeType string) (Image, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Image{}, fmt.Errorf("%w: empty", ErrInvalidImage)
	}

	payload := input
	if strings.HasPrefix(input, "data:") {
		header, data, ok := strings.Cut(input, ",")
		if !ok {
			return Image{}, fmt.Errorf("%w: malformed data URL", ErrInvalidImage)
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return Image{}, fmt.Errorf("%w: data URL is not base64", ErrInvalidImage)
		}
		if t := strings.TrimSuffix(meta, ";base64"); t != "" {
			mimeType = t
		}
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	return newImage(data, mimeType)
}

func newImage(data []byte, mimeType string) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	if len(data) > MaxImageBytes {
		return Image{}, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxImageBytes)
	}

	mimeType, _, _ = strings.Cut(mimeType, ";")
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if !allowedImageTypes[mimeType] {
		return Image{}, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, mimeType)
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}

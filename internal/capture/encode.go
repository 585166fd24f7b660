package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
)

// EncodeJPEG compresses a frame into a base64 JPEG string at the given
// quality. The encoded image is self-contained; records embed it
// inline rather than referencing external files.
func EncodeJPEG(frame image.Image, quality int) (string, error) {
	if quality <= 0 || quality > 100 {
		quality = 60
	}
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, frame, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeFrame parses an uploaded frame (JPEG or PNG).
func DecodeFrame(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

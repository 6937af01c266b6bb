package core

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	// Decoders registered for image.Decode.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"
)

// BlobLoader reads the external files referenced by SetColumnFromDataFile
// fields.
type BlobLoader interface {
	// LoadImage decodes the image at path and re-encodes it as PNG. With
	// encode set the result is a base64 string, otherwise raw bytes.
	LoadImage(path string, encode bool) (any, error)
	// LoadFile returns the file contents and their detected MIME type.
	LoadFile(path string) (data []byte, mimeType string, err error)
}

// FileLoader is the BlobLoader for the local filesystem.
type FileLoader struct{}

func (FileLoader) LoadImage(path string, encode bool) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode %s image as png: %w", format, err)
	}

	if encode {
		return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

func (FileLoader) LoadFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return data, detectMimeType(data), nil
}

// detectMimeType returns the bare media type, without parameters.
func detectMimeType(data []byte) string {
	mt, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mt)
}

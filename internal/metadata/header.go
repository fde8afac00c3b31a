package metadata

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// header is the format and size read from the start of an image.
type header struct {
	format string
	width  int
	height int
}

// decodeHeader reads the image header in data. ok is false for unknown
// formats, broken headers and images without a positive size.
func decodeHeader(data []byte) (h header, ok bool) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return header{}, false
	}
	return header{format: format, width: cfg.Width, height: cfg.Height}, true
}

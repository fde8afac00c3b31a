// Package metadata inspects downloaded images. The image header is decoded
// with the standard image decoders plus golang.org/x/image (WebP, BMP, TIFF)
// to learn the format and pixel size, and the EXIF block is read with
// github.com/dsoprea/go-exif/v3. The result is recorded in the run history
// so that images carrying GPS coordinates or camera details can be spotted
// after the fact.
package metadata

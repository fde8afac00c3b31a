package metadata

import (
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/imageloader/internal/model"
)

// recordedTags are the EXIF tags copied into ImageMetadata.Tags.
var recordedTags = map[string]bool{
	"Make":               true,
	"Model":              true,
	"SerialNumber":       true,
	"BodySerialNumber":   true,
	"LensSerialNumber":   true,
	"Software":           true,
	"ProcessingSoftware": true,
	"HostComputer":       true,
	"Artist":             true,
	"Copyright":          true,
	"XPAuthor":           true,
	"DateTime":           true,
	"DateTimeOriginal":   true,
	"DateTimeDigitized":  true,
	"GPSLatitude":        true,
	"GPSLatitudeRef":     true,
	"GPSLongitude":       true,
	"GPSLongitudeRef":    true,
}

// Inspect extracts the image header and EXIF metadata from image bytes.
// It returns nil when data has neither a decodable header nor a readable
// EXIF block.
func Inspect(data []byte) (md *model.ImageMetadata) {
	// go-exif and some image decoders panic on truncated inputs.
	defer func() {
		if recover() != nil {
			md = nil
		}
	}()

	h, hasHeader := decodeHeader(data)
	md = readEXIF(data)
	if md == nil {
		if !hasHeader {
			return nil
		}
		md = &model.ImageMetadata{}
	}
	if hasHeader {
		md.Format = h.format
		md.Width = h.width
		md.Height = h.height
	}
	return md
}

// readEXIF returns the EXIF tags of data, or nil when there is no readable
// EXIF block. That is the normal case for PNG and GIF files.
func readEXIF(data []byte) *model.ImageMetadata {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || len(rawExif) == 0 {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	md := &model.ImageMetadata{
		HasEXIF: true,
		Tags:    make(map[string]string),
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.TagName, "GPS") {
			md.HasGPS = true
		}
		if recordedTags[entry.TagName] {
			md.Tags[entry.TagName] = strings.TrimSpace(entry.Formatted)
		}
	}

	return md
}

// media/types.go
package media

import (
	"path/filepath"
	"strings"
)

type Kind string

const (
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindUnsupported Kind = "unsupported"
)

var supportedExtensions = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".mp4":  KindVideo,
}

// KindOf classifies a file by its extension, case-insensitively
func KindOf(filename string) Kind {
	if kind, ok := supportedExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return kind
	}
	return KindUnsupported
}

// IsSupported checks if the filename has one of the importable extensions
func IsSupported(filename string) bool {
	return KindOf(filename) != KindUnsupported
}

// IsRasterImage checks if the filename is an image the tagging service can inspect
func IsRasterImage(filename string) bool {
	return KindOf(filename) == KindImage
}

// MIMEType returns the content type sent along with image bytes
func MIMEType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".mp4":
		return "video/mp4"
	default:
		return "image/jpeg"
	}
}

// Candidate is a scanned file paired with its extracted username, not yet persisted.
type Candidate struct {
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
	Username string `json:"username"`
}

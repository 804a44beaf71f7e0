package datasetgen

import (
	"context"
	"path/filepath"
	"strings"
)

// Storage persists exported images. Implementations can wrap a local
// directory (storage/local) or any object store client.
type Storage interface {
	// SaveFile saves image data and returns where it can be found.
	// The contentType is the image's MIME type (e.g., "image/jpeg").
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}

// StorageResult contains information about a saved image.
type StorageResult struct {
	// ImageID is the exported image
	ImageID string `json:"imageId"`

	// URL is where the image can be accessed
	URL string `json:"url"`

	// Path is the storage path/key where the image was saved
	Path string `json:"path"`

	// Size is the number of bytes saved
	Size int `json:"size"`
}

// ExportFilename returns the suggested download name for an image,
// generated-image-<first 8 chars of id>.<ext>.
func ExportFilename(img GeneratedImage) string {
	id := img.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "generated-image-" + id + "." + extensionFromMIME(img.Payload().MIMEType)
}

func GetMIMEType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return DefaultOutputMIMEType
	}
}

// extensionFromMIME returns a file extension for common image MIME types.
func extensionFromMIME(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpeg"
	}
}

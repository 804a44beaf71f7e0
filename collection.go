package datasetgen

import (
	"slices"
	"time"
)

// GeneratedImage is one entry of the result collection.
type GeneratedImage struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Labels    []string  `json:"labels"`
	ImageData string    `json:"base64"`
	MIMEType  string    `json:"mimeType"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsVariation reports whether the image belongs to another image's group.
func (img GeneratedImage) IsVariation() bool {
	return img.ParentID != ""
}

// Payload returns the image as sent to the external services.
func (img GeneratedImage) Payload() ImagePayload {
	mime := img.MIMEType
	if mime == "" {
		mime = DefaultOutputMIMEType
	}
	return ImagePayload{Data: img.ImageData, MIMEType: mime}
}

// VariationParent returns the group root id a variation of img must carry.
// Groups are one level deep, so a variation of a variation points at the
// original root rather than at img.
func VariationParent(img GeneratedImage) string {
	if img.ParentID != "" {
		return img.ParentID
	}
	return img.ID
}

// ResultCollection is the ordered list of generated images.
// It is not safe for concurrent use; Session serialises access to it.
type ResultCollection struct {
	images []GeneratedImage
}

// NewResultCollection returns an empty collection.
func NewResultCollection() *ResultCollection {
	return &ResultCollection{}
}

// AppendBatch appends images at the end, keeping their relative order.
func (c *ResultCollection) AppendBatch(images []GeneratedImage) {
	c.images = append(c.images, images...)
}

// InsertVariation places img right after the contiguous run of its group
// (the root plus the variations directly following it) and returns the index
// it was stored at. If the root is not in the collection img is appended.
func (c *ResultCollection) InsertVariation(img GeneratedImage) int {
	rootID := img.ParentID

	p := slices.IndexFunc(c.images, func(e GeneratedImage) bool { return e.ID == rootID })
	if rootID == "" || p < 0 {
		c.images = append(c.images, img)
		return len(c.images) - 1
	}

	last := p
	for i := p + 1; i < len(c.images); i++ {
		if c.images[i].ID != rootID && c.images[i].ParentID != rootID {
			break
		}
		last = i
	}

	c.images = slices.Insert(c.images, last+1, img)
	return last + 1
}

// Contains reports whether an image with the given id is present.
func (c *ResultCollection) Contains(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// Get returns the image with the given id.
func (c *ResultCollection) Get(id string) (GeneratedImage, bool) {
	for _, img := range c.images {
		if img.ID == id {
			return img, true
		}
	}
	return GeneratedImage{}, false
}

// Clear empties the collection.
func (c *ResultCollection) Clear() {
	c.images = nil
}

// Images returns a snapshot of the collection in order.
func (c *ResultCollection) Images() []GeneratedImage {
	return slices.Clone(c.images)
}

// Len returns the number of images.
func (c *ResultCollection) Len() int {
	return len(c.images)
}

package aisdk

// ContentType represents the type of content in a multimodal message
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
)

// ContentPart is a single piece of content in a multimodal message.
type ContentPart struct {
	Type  ContentType   `json:"type"`
	Text  string        `json:"text,omitempty"`
	Image *ImageContent `json:"image,omitempty"`
}

// ImageContent represents a base64 encoded image ready for transmission.
type ImageContent struct {
	MediaType string `json:"media_type"` // "image/png", "image/jpeg", ...
	Data      string `json:"data"`       // base64 payload without the data URI prefix
	Label     string `json:"label,omitempty"`
}

// DataURI returns the image as a data URI.
func (i ImageContent) DataURI() string {
	return FormatDataURI(i.MediaType, i.Data)
}

// NewTextPart creates a new text content part
func NewTextPart(text string) ContentPart {
	return ContentPart{Type: ContentTypeText, Text: text}
}

// NewImagePart creates a new image content part
func NewImagePart(img ImageContent) ContentPart {
	return ContentPart{Type: ContentTypeImage, Image: &img}
}

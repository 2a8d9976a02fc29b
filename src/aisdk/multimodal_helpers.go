package aisdk

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURI is returned when a string is not a base64 data URI.
var ErrInvalidDataURI = errors.New("invalid data URI")

const dataURIPrefix = "data:"

// IsDataURI reports whether s looks like a data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, dataURIPrefix)
}

// FormatDataURI builds a base64 data URI from a media type and payload.
func FormatDataURI(mediaType, data string) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, data)
}

// ParseDataURI splits a base64 data URI into its media type and payload.
func ParseDataURI(uri string) (ImageContent, error) {
	if !IsDataURI(uri) {
		return ImageContent{}, ErrInvalidDataURI
	}
	header, data, ok := strings.Cut(strings.TrimPrefix(uri, dataURIPrefix), ",")
	if !ok || data == "" {
		return ImageContent{}, ErrInvalidDataURI
	}
	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return ImageContent{}, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURI)
	}
	if mediaType == "" {
		mediaType = "image/png"
	}
	return ImageContent{MediaType: mediaType, Data: data}, nil
}

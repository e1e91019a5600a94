package family

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Attachment is a file stored inline on a person.
// Data is a data URL such as "data:image/png;base64,iVBOR...".
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// NewAttachment encodes raw bytes as a base64 data URL.
func NewAttachment(name, mediaType string, payload []byte) Attachment {
	return Attachment{
		Name: name,
		Type: mediaType,
		Data: "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(payload),
	}
}

// Decode returns the attachment payload.
func (a Attachment) Decode() ([]byte, error) {
	_, payload, err := ParseDataURL(a.Data)
	return payload, err
}

// ParseDataURL splits a data URL into its media type and decoded payload.
// Both base64 and percent-encoded payloads are accepted.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrInvalidDataURL)
	}

	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
		}
		return mediaType, data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mediaType, []byte(text), nil
}

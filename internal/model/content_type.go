package model

import (
	"encoding/json"
	"fmt"
)

// ContentType is the closed set of MIME types accepted for uploads.
type ContentType string

const (
	ContentTypePNG      ContentType = "image/png"
	ContentTypeJPEG     ContentType = "image/jpeg"
	ContentTypeGIF      ContentType = "image/gif"
	ContentTypeWebP     ContentType = "image/webp"
	ContentTypeSVG      ContentType = "image/svg+xml"
	ContentTypePDF      ContentType = "application/pdf"
	ContentTypeText     ContentType = "text/plain"
	ContentTypeMarkdown ContentType = "text/markdown"
	ContentTypeJSON     ContentType = "application/json"
	ContentTypeZip      ContentType = "application/zip"
	ContentTypeMP3      ContentType = "audio/mpeg"
	ContentTypeWAV      ContentType = "audio/wav"
)

var contentTypes = map[ContentType]struct{}{
	ContentTypePNG:      {},
	ContentTypeJPEG:     {},
	ContentTypeGIF:      {},
	ContentTypeWebP:     {},
	ContentTypeSVG:      {},
	ContentTypePDF:      {},
	ContentTypeText:     {},
	ContentTypeMarkdown: {},
	ContentTypeJSON:     {},
	ContentTypeZip:      {},
	ContentTypeMP3:      {},
	ContentTypeWAV:      {},
}

func ParseContentType(value string) (ContentType, error) {
	t := ContentType(value)
	if _, ok := contentTypes[t]; !ok {
		return "", fmt.Errorf("unsupported content type: %q", value)
	}
	return t, nil
}

func (t ContentType) String() string {
	return string(t)
}

func (t *ContentType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseContentType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

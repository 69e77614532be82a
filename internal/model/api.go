package model

import "encoding/json"

type AssetCreateRequest struct {
	FileName    string      `json:"file_name" binding:"required"`
	ContentType ContentType `json:"content_type" binding:"required"`
	Description *string     `json:"description"`
	Tags        []string    `json:"tags"`
	AssetType   *AssetType  `json:"asset_type"`
}

// AssetUpdateRequest is a partial patch. Fields absent from the request body
// are left untouched, so presence is tracked separately from the values.
type AssetUpdateRequest struct {
	Description *string    `json:"description"`
	Tags        []string   `json:"tags"`
	AssetType   *AssetType `json:"asset_type"`

	present map[string]bool
}

func (r *AssetUpdateRequest) UnmarshalJSON(data []byte) error {
	type plain AssetUpdateRequest
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	decoded.present = make(map[string]bool, len(fields))
	for name := range fields {
		decoded.present[name] = true
	}
	*r = AssetUpdateRequest(decoded)
	return nil
}

// Has reports whether the named field appeared in the request body.
func (r *AssetUpdateRequest) Has(field string) bool {
	return r.present[field]
}

type AssetMetadata struct {
	Asset
	DownloadURL *string `json:"download_url"`
}

type PresignedUpload struct {
	AssetID    string `json:"asset_id"`
	S3Key      string `json:"s3_key"`
	UploadURL  string `json:"upload_url"`
	HTTPMethod string `json:"http_method"`
}

type AssetPage struct {
	Assets     []AssetMetadata `json:"assets"`
	TotalCount int             `json:"total_count"`
	NextToken  *string         `json:"next_token"`
}

package model

// Asset is one metadata record in the assets table, keyed by
// (owner_id, asset_id). Timestamps are RFC 3339 UTC strings.
type Asset struct {
	OwnerID          string      `json:"owner_id" dynamodbav:"owner_id"`
	AssetID          string      `json:"asset_id" dynamodbav:"asset_id"`
	S3Key            string      `json:"s3_key" dynamodbav:"s3_key"`
	OriginalFileName string      `json:"original_file_name" dynamodbav:"original_file_name"`
	ContentType      ContentType `json:"content_type" dynamodbav:"content_type"`
	Description      *string     `json:"description" dynamodbav:"description"`
	Tags             []string    `json:"tags" dynamodbav:"tags"`
	AssetType        *AssetType  `json:"asset_type" dynamodbav:"asset_type"`
	UploadTimestamp  string      `json:"upload_timestamp" dynamodbav:"upload_timestamp"`
	LastModified     string      `json:"last_modified" dynamodbav:"last_modified"`
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/filestore"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/filter"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/model"
	appErr "github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errors"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/repo"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	uploadMethod = "PUT"
)

type AssetStore interface {
	Put(ctx context.Context, asset *model.Asset) error
	Get(ctx context.Context, ownerID, assetID string) (*model.Asset, error)
	List(ctx context.Context, req repo.ListAssetsRequest) (*repo.ListAssetsResult, error)
	Update(ctx context.Context, ownerID, assetID string, patch repo.AssetPatch) (*model.Asset, error)
	Delete(ctx context.Context, ownerID, assetID string) error
}

var _ AssetStore = (*repo.AssetRepo)(nil)

type FileStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
	DeleteObject(ctx context.Context, key string) error
}

var _ FileStore = (*filestore.Store)(nil)

type AssetService struct {
	assets AssetStore
	files  FileStore
	now    func() time.Time
	newID  func() string
}

func NewAssetService(assets AssetStore, files FileStore) *AssetService {
	return &AssetService{
		assets: assets,
		files:  files,
		now:    time.Now,
		newID:  newAssetID,
	}
}

func (s *AssetService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// InitiateUpload reserves an asset id, records its metadata, and hands back a
// presigned PUT URL. The actual bytes never pass through this service; the
// caller uploads straight to the object store.
func (s *AssetService) InitiateUpload(ctx context.Context, ownerID string, req *model.AssetCreateRequest) (*model.PresignedUpload, error) {
	if ownerID == "" {
		return nil, appErr.ErrUnauthorized
	}
	assetID := s.newID()
	s3Key := fmt.Sprintf("%s/%s/%s", ownerID, assetID, req.FileName)
	uploadURL, err := s.files.PresignUpload(ctx, s3Key, string(req.ContentType))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	now := s.timestamp()
	asset := &model.Asset{
		OwnerID:          ownerID,
		AssetID:          assetID,
		S3Key:            s3Key,
		OriginalFileName: req.FileName,
		ContentType:      req.ContentType,
		Description:      req.Description,
		Tags:             req.Tags,
		AssetType:        req.AssetType,
		UploadTimestamp:  now,
		LastModified:     now,
	}
	if err := s.assets.Put(ctx, asset); err != nil {
		return nil, fmt.Errorf("store asset metadata: %w", err)
	}
	logutil.GetLogger(ctx).Info("initiated asset upload",
		zap.String("owner_id", ownerID),
		zap.String("asset_id", assetID),
		zap.String("s3_key", s3Key),
	)
	return &model.PresignedUpload{
		AssetID:    assetID,
		S3Key:      s3Key,
		UploadURL:  uploadURL,
		HTTPMethod: uploadMethod,
	}, nil
}

type ListRequest struct {
	Tags          []string
	MatchAllTags  bool
	Types         []model.AssetType
	MatchAllTypes bool
	Limit         int32
	NextToken     string
}

func (s *AssetService) List(ctx context.Context, ownerID string, req ListRequest) (*model.AssetPage, error) {
	if ownerID == "" {
		return nil, appErr.ErrUnauthorized
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	out, err := s.assets.List(ctx, repo.ListAssetsRequest{
		OwnerID: ownerID,
		Filter:  buildListFilter(req),
		Limit:   limit,
		Cursor:  req.NextToken,
	})
	if err != nil {
		return nil, err
	}
	assets := make([]model.AssetMetadata, 0, len(out.Assets))
	for i := range out.Assets {
		assets = append(assets, model.AssetMetadata{Asset: out.Assets[i]})
	}
	page := &model.AssetPage{
		Assets:     assets,
		TotalCount: int(out.Count),
	}
	if out.NextCursor != "" {
		page.NextToken = &out.NextCursor
	}
	return page, nil
}

// buildListFilter mirrors the query parameters: match-all combines per-value
// predicates with And, otherwise the whole list becomes one In. Tag and type
// predicates combine with And when both are present.
func buildListFilter(req ListRequest) filter.Node {
	var tagNode filter.Node
	if len(req.Tags) > 0 {
		if req.MatchAllTags {
			children := make([]filter.Node, 0, len(req.Tags))
			for _, tag := range req.Tags {
				children = append(children, filter.Contains("tags", tag))
			}
			tagNode = filter.And(children...)
		} else {
			tagNode = filter.In("tags", req.Tags...)
		}
	}
	var typeNode filter.Node
	if len(req.Types) > 0 {
		if req.MatchAllTypes {
			children := make([]filter.Node, 0, len(req.Types))
			for _, assetType := range req.Types {
				children = append(children, filter.Equals("asset_type", string(assetType)))
			}
			typeNode = filter.And(children...)
		} else {
			values := make([]string, 0, len(req.Types))
			for _, assetType := range req.Types {
				values = append(values, string(assetType))
			}
			typeNode = filter.In("asset_type", values...)
		}
	}
	return filter.And(tagNode, typeNode)
}

func (s *AssetService) Get(ctx context.Context, ownerID, assetID string) (*model.AssetMetadata, error) {
	if ownerID == "" {
		return nil, appErr.ErrUnauthorized
	}
	asset, err := s.assets.Get(ctx, ownerID, assetID)
	if err != nil {
		return nil, err
	}
	downloadURL, err := s.files.PresignDownload(ctx, asset.S3Key)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}
	return &model.AssetMetadata{Asset: *asset, DownloadURL: &downloadURL}, nil
}

func (s *AssetService) Update(ctx context.Context, ownerID, assetID string, req *model.AssetUpdateRequest) (*model.AssetMetadata, error) {
	if ownerID == "" {
		return nil, appErr.ErrUnauthorized
	}
	patch := repo.AssetPatch{LastModified: s.timestamp()}
	if req.Has("description") {
		patch.Description = req.Description
		patch.HasDescription = true
	}
	if req.Has("tags") {
		patch.Tags = req.Tags
		patch.HasTags = true
	}
	if req.Has("asset_type") {
		patch.AssetType = req.AssetType
		patch.HasAssetType = true
	}
	asset, err := s.assets.Update(ctx, ownerID, assetID, patch)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("updated asset metadata",
		zap.String("owner_id", ownerID),
		zap.String("asset_id", assetID),
	)
	return &model.AssetMetadata{Asset: *asset}, nil
}

// Delete removes the metadata record first, then the object. A missing
// object after the metadata delete is reported as ErrFileMissing; the record
// is already gone at that point and stays gone.
func (s *AssetService) Delete(ctx context.Context, ownerID, assetID string) error {
	if ownerID == "" {
		return appErr.ErrUnauthorized
	}
	asset, err := s.assets.Get(ctx, ownerID, assetID)
	if err != nil {
		return err
	}
	if err := s.assets.Delete(ctx, ownerID, assetID); err != nil {
		return err
	}
	exists, err := s.files.ObjectExists(ctx, asset.S3Key)
	if err != nil {
		return err
	}
	if !exists {
		return appErr.ErrFileMissing
	}
	if err := s.files.DeleteObject(ctx, asset.S3Key); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("deleted asset",
		zap.String("owner_id", ownerID),
		zap.String("asset_id", assetID),
		zap.String("s3_key", asset.S3Key),
	)
	return nil
}

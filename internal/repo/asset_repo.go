package repo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/filter"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/model"
	appErr "github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errors"
)

// AssetRepo persists asset metadata in a table keyed by owner_id (hash) and
// asset_id (range). Every read and write is scoped to one owner, so a key
// lookup is already an ownership check.
type AssetRepo struct {
	store *Store
}

func NewAssetRepo(store *Store) *AssetRepo {
	return &AssetRepo{store: store}
}

func assetKey(ownerID, assetID string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"owner_id": &ddbtypes.AttributeValueMemberS{Value: ownerID},
		"asset_id": &ddbtypes.AttributeValueMemberS{Value: assetID},
	}
}

func (r *AssetRepo) Put(ctx context.Context, asset *model.Asset) error {
	item, err := attributevalue.MarshalMap(asset)
	if err != nil {
		return fmt.Errorf("marshal asset: %w", err)
	}
	return r.store.PutItem(ctx, item)
}

func (r *AssetRepo) Get(ctx context.Context, ownerID, assetID string) (*model.Asset, error) {
	item, ok, err := r.store.GetItem(ctx, assetKey(ownerID, assetID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErr.ErrNotFound
	}
	var asset model.Asset
	if err := attributevalue.UnmarshalMap(item, &asset); err != nil {
		return nil, fmt.Errorf("unmarshal asset: %w", err)
	}
	return &asset, nil
}

type ListAssetsRequest struct {
	OwnerID string
	Filter  filter.Node
	Limit   int32
	Cursor  string
}

type ListAssetsResult struct {
	Assets     []model.Asset
	Count      int32
	NextCursor string
}

// List returns one page of the owner's assets. Filters run server-side, so a
// page can come back shorter than the limit even when more items remain.
func (r *AssetRepo) List(ctx context.Context, req ListAssetsRequest) (*ListAssetsResult, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("owner_id").Equal(expression.Value(req.OwnerID)))
	if req.Filter != nil {
		builder = builder.WithFilter(req.Filter.Condition())
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build list expression: %w", err)
	}
	var startKey map[string]ddbtypes.AttributeValue
	if req.Cursor != "" {
		startKey, err = decodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
	}
	out, err := r.store.Query(ctx, QueryRequest{
		Expr:              expr,
		Limit:             req.Limit,
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &assets); err != nil {
		return nil, fmt.Errorf("unmarshal assets: %w", err)
	}
	result := &ListAssetsResult{Assets: assets, Count: out.Count}
	if len(out.LastEvaluatedKey) > 0 {
		cursor, err := encodeCursor(out.LastEvaluatedKey)
		if err != nil {
			return nil, err
		}
		result.NextCursor = cursor
	}
	return result, nil
}

// AssetPatch carries the mutable fields of an update. The Has flags separate
// "not sent" from "sent as null"; only sent fields reach the update
// expression.
type AssetPatch struct {
	Description    *string
	HasDescription bool
	Tags           []string
	HasTags        bool
	AssetType      *model.AssetType
	HasAssetType   bool
	LastModified   string
}

// Update rewrites the sent fields plus last_modified, conditioned on the
// record already existing so a patch can never create a row.
func (r *AssetRepo) Update(ctx context.Context, ownerID, assetID string, patch AssetPatch) (*model.Asset, error) {
	update := expression.Set(expression.Name("last_modified"), expression.Value(patch.LastModified))
	if patch.HasDescription {
		update = update.Set(expression.Name("description"), expression.Value(patch.Description))
	}
	if patch.HasTags {
		update = update.Set(expression.Name("tags"), expression.Value(patch.Tags))
	}
	if patch.HasAssetType {
		update = update.Set(expression.Name("asset_type"), expression.Value(patch.AssetType))
	}
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("owner_id"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}
	attrs, err := r.store.UpdateItem(ctx, assetKey(ownerID, assetID), expr)
	if err != nil {
		var conditionFailed *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil, appErr.ErrNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	var asset model.Asset
	if err := attributevalue.UnmarshalMap(attrs, &asset); err != nil {
		return nil, fmt.Errorf("unmarshal asset: %w", err)
	}
	return &asset, nil
}

func (r *AssetRepo) Delete(ctx context.Context, ownerID, assetID string) error {
	return r.store.DeleteItem(ctx, assetKey(ownerID, assetID))
}

// ScanAll reads every asset in the table regardless of owner. Export-only;
// request paths always go through owner-keyed reads.
func (r *AssetRepo) ScanAll(ctx context.Context) ([]model.Asset, error) {
	items, err := r.store.Scan(ctx)
	if err != nil {
		return nil, err
	}
	assets := make([]model.Asset, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &assets); err != nil {
		return nil, fmt.Errorf("unmarshal assets: %w", err)
	}
	return assets, nil
}

func (r *AssetRepo) BatchPut(ctx context.Context, assets []model.Asset) error {
	items := make([]map[string]ddbtypes.AttributeValue, 0, len(assets))
	for i := range assets {
		item, err := attributevalue.MarshalMap(&assets[i])
		if err != nil {
			return fmt.Errorf("marshal asset %s: %w", assets[i].AssetID, err)
		}
		items = append(items, item)
	}
	return r.store.BatchWrite(ctx, items)
}

type pageKey struct {
	OwnerID string `json:"owner_id" dynamodbav:"owner_id"`
	AssetID string `json:"asset_id" dynamodbav:"asset_id"`
}

func encodeCursor(key map[string]ddbtypes.AttributeValue) (string, error) {
	var pk pageKey
	if err := attributevalue.UnmarshalMap(key, &pk); err != nil {
		return "", fmt.Errorf("decode page key: %w", err)
	}
	raw, err := json.Marshal(pk)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(cursor string) (map[string]ddbtypes.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed next token", appErr.ErrInvalid)
	}
	var pk pageKey
	if err := json.Unmarshal(raw, &pk); err != nil {
		return nil, fmt.Errorf("%w: malformed next token", appErr.ErrInvalid)
	}
	if pk.OwnerID == "" || pk.AssetID == "" {
		return nil, fmt.Errorf("%w: malformed next token", appErr.ErrInvalid)
	}
	return assetKey(pk.OwnerID, pk.AssetID), nil
}

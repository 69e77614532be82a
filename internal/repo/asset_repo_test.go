package repo

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/filter"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/model"
	appErr "github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errors"
)

func sampleAsset() *model.Asset {
	assetType := model.AssetTypeWorldMap
	return &model.Asset{
		OwnerID:          "alice",
		AssetID:          "4a9f62d0-0b5a-4f2e-9e2e-0d6f9e1c7a11",
		S3Key:            "alice/4a9f62d0-0b5a-4f2e-9e2e-0d6f9e1c7a11/map.png",
		OriginalFileName: "map.png",
		ContentType:      model.ContentTypePNG,
		Tags:             []string{"forest", "night"},
		AssetType:        &assetType,
		UploadTimestamp:  "2025-06-01T10:00:00.000000Z",
		LastModified:     "2025-06-01T10:00:00.000000Z",
	}
}

func mustMarshal(t *testing.T, asset *model.Asset) map[string]ddbtypes.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(asset)
	require.NoError(t, err)
	return item
}

func TestAssetRepoPutKeepsNullAttributes(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	asset := sampleAsset()
	asset.Description = nil
	require.NoError(t, repo.Put(context.Background(), asset))

	require.Len(t, fake.putIn, 1)
	item := fake.putIn[0].Item
	require.Equal(t, strAttr("alice"), item["owner_id"])
	require.Equal(t, strAttr("map.png"), item["original_file_name"])
	require.IsType(t, &ddbtypes.AttributeValueMemberNULL{}, item["description"])
}

func TestAssetRepoGetNotFound(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	_, err := repo.Get(context.Background(), "alice", "a1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestAssetRepoGetRoundTrip(t *testing.T) {
	want := sampleAsset()
	fake := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: mustMarshal(t, want)}}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	got, err := repo.Get(context.Background(), want.OwnerID, want.AssetID)
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, assetKey(want.OwnerID, want.AssetID), fake.getIn[0].Key)
}

func TestAssetRepoListBuildsQuery(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	_, err := repo.List(context.Background(), ListAssetsRequest{
		OwnerID: "alice",
		Filter:  filter.Equals("asset_type", string(model.AssetTypeNPC)),
		Limit:   20,
	})
	require.NoError(t, err)

	require.Len(t, fake.queryIn, 1)
	in := fake.queryIn[0]
	require.NotNil(t, in.KeyConditionExpression)
	require.NotNil(t, in.FilterExpression)
	require.Equal(t, int32(20), *in.Limit)
	names := make([]string, 0, len(in.ExpressionAttributeNames))
	for _, name := range in.ExpressionAttributeNames {
		names = append(names, name)
	}
	require.Contains(t, names, "owner_id")
	require.Contains(t, names, "asset_type")
}

func TestAssetRepoListWithoutFilter(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	_, err := repo.List(context.Background(), ListAssetsRequest{OwnerID: "alice", Limit: 5})
	require.NoError(t, err)
	require.Nil(t, fake.queryIn[0].FilterExpression)
}

func TestAssetRepoListCursorRoundTrip(t *testing.T) {
	asset := sampleAsset()
	fake := &fakeDynamo{
		queryOut: &dynamodb.QueryOutput{
			Items:            []map[string]ddbtypes.AttributeValue{mustMarshal(t, asset)},
			Count:            1,
			LastEvaluatedKey: assetKey("alice", asset.AssetID),
		},
	}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	page, err := repo.List(context.Background(), ListAssetsRequest{OwnerID: "alice", Limit: 1})
	require.NoError(t, err)
	require.Equal(t, int32(1), page.Count)
	require.NotEmpty(t, page.NextCursor)

	_, err = repo.List(context.Background(), ListAssetsRequest{OwnerID: "alice", Limit: 1, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Equal(t, assetKey("alice", asset.AssetID), fake.queryIn[1].ExclusiveStartKey)
}

func TestAssetRepoListRejectsBadCursor(t *testing.T) {
	repo := NewAssetRepo(NewStore(&fakeDynamo{}, "metadata"))

	for _, cursor := range []string{"%%%not-base64%%%", "e30"} {
		_, err := repo.List(context.Background(), ListAssetsRequest{OwnerID: "alice", Cursor: cursor})
		if err == nil {
			t.Fatalf("cursor %q: expected error", cursor)
		}
		require.ErrorIs(t, err, appErr.ErrInvalid)
	}
}

func TestAssetRepoUpdateSetsOnlySentFields(t *testing.T) {
	fake := &fakeDynamo{
		updateOut: &dynamodb.UpdateItemOutput{Attributes: mustMarshal(t, sampleAsset())},
	}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	desc := "night market"
	_, err := repo.Update(context.Background(), "alice", "a1", AssetPatch{
		Description:    &desc,
		HasDescription: true,
		LastModified:   "2025-06-02T00:00:00.000000Z",
	})
	require.NoError(t, err)

	in := fake.updateIn[0]
	require.NotNil(t, in.ConditionExpression)
	names := make([]string, 0, len(in.ExpressionAttributeNames))
	for _, name := range in.ExpressionAttributeNames {
		names = append(names, name)
	}
	require.Contains(t, names, "last_modified")
	require.Contains(t, names, "description")
	require.NotContains(t, names, "tags")
	require.NotContains(t, names, "asset_type")
}

func TestAssetRepoUpdateClearsWithNull(t *testing.T) {
	fake := &fakeDynamo{
		updateOut: &dynamodb.UpdateItemOutput{Attributes: mustMarshal(t, sampleAsset())},
	}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	_, err := repo.Update(context.Background(), "alice", "a1", AssetPatch{
		Description:    nil,
		HasDescription: true,
		LastModified:   "2025-06-02T00:00:00.000000Z",
	})
	require.NoError(t, err)

	var foundNull bool
	for _, value := range fake.updateIn[0].ExpressionAttributeValues {
		if _, ok := value.(*ddbtypes.AttributeValueMemberNULL); ok {
			foundNull = true
		}
	}
	require.True(t, foundNull)
}

func TestAssetRepoUpdateMissingRecord(t *testing.T) {
	fake := &fakeDynamo{
		updateErr: &ddbtypes.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")},
	}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	_, err := repo.Update(context.Background(), "alice", "a1", AssetPatch{LastModified: "2025-06-02T00:00:00.000000Z"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestAssetRepoUpdateReturnsStoredRecord(t *testing.T) {
	want := sampleAsset()
	fake := &fakeDynamo{
		updateOut: &dynamodb.UpdateItemOutput{Attributes: mustMarshal(t, want)},
	}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	got, err := repo.Update(context.Background(), want.OwnerID, want.AssetID, AssetPatch{LastModified: want.LastModified})
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAssetRepoDelete(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	require.NoError(t, repo.Delete(context.Background(), "alice", "a1"))
	require.Equal(t, assetKey("alice", "a1"), fake.deleteIn[0].Key)
}

func TestAssetRepoScanAll(t *testing.T) {
	first := sampleAsset()
	second := sampleAsset()
	second.AssetID = "b2"
	second.OwnerID = "bob"
	fake := &fakeDynamo{
		scanOut: []*dynamodb.ScanOutput{
			{
				Items:            []map[string]ddbtypes.AttributeValue{mustMarshal(t, first)},
				LastEvaluatedKey: assetKey(first.OwnerID, first.AssetID),
			},
			{Items: []map[string]ddbtypes.AttributeValue{mustMarshal(t, second)}},
		},
	}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	assets, err := repo.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.Equal(t, "bob", assets[1].OwnerID)
}

func TestAssetRepoBatchPut(t *testing.T) {
	fake := &fakeDynamo{}
	repo := NewAssetRepo(NewStore(fake, "metadata"))

	assets := []model.Asset{*sampleAsset(), *sampleAsset(), *sampleAsset()}
	require.NoError(t, repo.BatchPut(context.Background(), assets))
	require.Len(t, fake.batchIn, 1)
	require.Len(t, fake.batchIn[0].RequestItems["metadata"], 3)
}

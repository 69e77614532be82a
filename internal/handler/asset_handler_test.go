package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/model"
	appErr "github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errors"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/repo"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/service"
)

type stubAssets struct {
	putIn   []*model.Asset
	putErr  error
	getOut  *model.Asset
	getErr  error
	listIn  []repo.ListAssetsRequest
	listOut *repo.ListAssetsResult
	listErr error
	updOut  *model.Asset
	updErr  error
	deleted []string
	delErr  error
}

func (s *stubAssets) Put(_ context.Context, asset *model.Asset) error {
	s.putIn = append(s.putIn, asset)
	return s.putErr
}

func (s *stubAssets) Get(_ context.Context, ownerID, assetID string) (*model.Asset, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.getOut, nil
}

func (s *stubAssets) List(_ context.Context, req repo.ListAssetsRequest) (*repo.ListAssetsResult, error) {
	s.listIn = append(s.listIn, req)
	if s.listErr != nil {
		return nil, s.listErr
	}
	if s.listOut != nil {
		return s.listOut, nil
	}
	return &repo.ListAssetsResult{Assets: []model.Asset{}}, nil
}

func (s *stubAssets) Update(_ context.Context, ownerID, assetID string, patch repo.AssetPatch) (*model.Asset, error) {
	if s.updErr != nil {
		return nil, s.updErr
	}
	return s.updOut, nil
}

func (s *stubAssets) Delete(_ context.Context, ownerID, assetID string) error {
	s.deleted = append(s.deleted, ownerID+"/"+assetID)
	return s.delErr
}

type stubFiles struct {
	exists bool
}

func (s *stubFiles) PresignUpload(_ context.Context, key, contentType string) (string, error) {
	return "https://bucket.example/" + key + "?sig=put", nil
}

func (s *stubFiles) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://bucket.example/" + key + "?sig=get", nil
}

func (s *stubFiles) ObjectExists(_ context.Context, key string) (bool, error) {
	return s.exists, nil
}

func (s *stubFiles) DeleteObject(_ context.Context, key string) error {
	return nil
}

type stubAllowlist struct {
	ips []string
	err error
}

func (s *stubAllowlist) AllowedIPs(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ips, nil
}

// httptest requests arrive from 192.0.2.1, so the default allowlist admits
// that address.
func newTestRouter(assets *stubAssets, files *stubFiles, allow *stubAllowlist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if allow == nil {
		allow = &stubAllowlist{ips: []string{"192.0.2.1"}}
	}
	svc := service.NewAssetService(assets, files)
	return NewRouter(RouterDeps{
		Assets:     NewAssetHandler(svc),
		Allowlist:  allow,
		APIPrefix:  "/api/v1",
		AuthHeader: "x-cck-username-password",
	})
}

func doRequest(r *gin.Engine, method, path, body string, withAuth bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth {
		req.Header.Set("x-cck-username-password", base64.StdEncoding.EncodeToString([]byte("alice:wonderland")))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Message
}

func routerAsset() *model.Asset {
	assetType := model.AssetTypeWorldMap
	return &model.Asset{
		OwnerID:          "alice",
		AssetID:          "4a9f62d0-0b5a-4f2e-9e2e-0d6f9e1c7a11",
		S3Key:            "alice/4a9f62d0-0b5a-4f2e-9e2e-0d6f9e1c7a11/map.png",
		OriginalFileName: "map.png",
		ContentType:      model.ContentTypePNG,
		Tags:             []string{"forest"},
		AssetType:        &assetType,
		UploadTimestamp:  "2025-06-01T10:00:00Z",
		LastModified:     "2025-06-01T10:00:00Z",
	}
}

func TestInitiateUploadEndpoint(t *testing.T) {
	assets := &stubAssets{}
	r := newTestRouter(assets, &stubFiles{exists: true}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/assets/initiate-upload",
		`{"file_name":"map.png","content_type":"image/png","tags":["forest"]}`, true)
	require.Equal(t, http.StatusCreated, w.Code)

	var out model.PresignedUpload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	_, err := uuid.Parse(out.AssetID)
	require.NoError(t, err)
	require.Equal(t, "alice/"+out.AssetID+"/map.png", out.S3Key)
	require.Equal(t, "PUT", out.HTTPMethod)
	require.Contains(t, out.UploadURL, out.S3Key)

	require.Len(t, assets.putIn, 1)
	require.Equal(t, "alice", assets.putIn[0].OwnerID)
}

func TestInitiateUploadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing file name", body: `{"content_type":"image/png"}`},
		{name: "unknown content type", body: `{"file_name":"map.png","content_type":"application/x-msdownload"}`},
		{name: "unknown asset type", body: `{"file_name":"map.png","content_type":"image/png","asset_type":"Weapon"}`},
		{name: "not json", body: `plain text`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets := &stubAssets{}
			r := newTestRouter(assets, &stubFiles{exists: true}, nil)
			w := doRequest(r, http.MethodPost, "/api/v1/assets/initiate-upload", tt.body, true)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, "Invalid request body", errorMessage(t, w))
			require.Empty(t, assets.putIn)
		})
	}
}

func TestListEndpoint(t *testing.T) {
	assets := &stubAssets{
		listOut: &repo.ListAssetsResult{
			Assets:     []model.Asset{*routerAsset()},
			Count:      1,
			NextCursor: "cursor-1",
		},
	}
	r := newTestRouter(assets, &stubFiles{exists: true}, nil)

	w := doRequest(r, http.MethodGet,
		"/api/v1/assets?tags=forest&tags=night&match_all_tags=true&asset_types=World+Map&limit=5&next_token=cursor-0", "", true)
	require.Equal(t, http.StatusOK, w.Code)

	var page model.AssetPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 1, page.TotalCount)
	require.Len(t, page.Assets, 1)
	require.Nil(t, page.Assets[0].DownloadURL)
	require.NotNil(t, page.NextToken)
	require.Equal(t, "cursor-1", *page.NextToken)

	require.Len(t, assets.listIn, 1)
	in := assets.listIn[0]
	require.Equal(t, "alice", in.OwnerID)
	require.Equal(t, int32(5), in.Limit)
	require.Equal(t, "cursor-0", in.Cursor)
	require.NotNil(t, in.Filter)
	require.True(t, in.Filter.Matches(map[string]any{"tags": []string{"forest", "night"}, "asset_type": "World Map"}))
	require.False(t, in.Filter.Matches(map[string]any{"tags": []string{"forest"}, "asset_type": "World Map"}))
}

func TestListEndpointValidation(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		message string
	}{
		{name: "limit too small", query: "limit=0", message: "Invalid limit value"},
		{name: "limit too large", query: "limit=101", message: "Invalid limit value"},
		{name: "limit not a number", query: "limit=ten", message: "Invalid limit value"},
		{name: "unknown asset type", query: "asset_types=Weapon", message: "Invalid asset type filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubAssets{}, &stubFiles{exists: true}, nil)
			w := doRequest(r, http.MethodGet, "/api/v1/assets?"+tt.query, "", true)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, tt.message, errorMessage(t, w))
		})
	}
}

func TestListEndpointBadNextToken(t *testing.T) {
	assets := &stubAssets{listErr: appErr.ErrInvalid}
	r := newTestRouter(assets, &stubFiles{exists: true}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/assets?next_token=garbage", "", true)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEndpoint(t *testing.T) {
	asset := routerAsset()
	assets := &stubAssets{getOut: asset}
	r := newTestRouter(assets, &stubFiles{exists: true}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/assets/"+asset.AssetID, "", true)
	require.Equal(t, http.StatusOK, w.Code)

	var out model.AssetMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, asset.AssetID, out.AssetID)
	require.NotNil(t, out.DownloadURL)
	require.Contains(t, *out.DownloadURL, asset.S3Key)
}

func TestGetEndpointNotFound(t *testing.T) {
	assets := &stubAssets{getErr: appErr.ErrNotFound}
	r := newTestRouter(assets, &stubFiles{exists: true}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/assets/"+uuid.NewString(), "", true)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Asset not found or access denied", errorMessage(t, w))
}

func TestGetEndpointBadAssetID(t *testing.T) {
	r := newTestRouter(&stubAssets{}, &stubFiles{exists: true}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/assets/not-a-uuid", "", true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid asset ID format", errorMessage(t, w))
}

func TestUpdateEndpoint(t *testing.T) {
	asset := routerAsset()
	assets := &stubAssets{updOut: asset}
	r := newTestRouter(assets, &stubFiles{exists: true}, nil)

	w := doRequest(r, http.MethodPut, "/api/v1/assets/"+asset.AssetID, `{"description":"night market"}`, true)
	require.Equal(t, http.StatusOK, w.Code)

	var out model.AssetMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, asset.AssetID, out.AssetID)
	require.Nil(t, out.DownloadURL)
}

func TestUpdateEndpointNotFound(t *testing.T) {
	assets := &stubAssets{updErr: appErr.ErrNotFound}
	r := newTestRouter(assets, &stubFiles{exists: true}, nil)

	w := doRequest(r, http.MethodPut, "/api/v1/assets/"+uuid.NewString(), `{"description":"x"}`, true)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Asset not found or access denied", errorMessage(t, w))
}

func TestDeleteEndpoint(t *testing.T) {
	asset := routerAsset()
	assets := &stubAssets{getOut: asset}
	r := newTestRouter(assets, &stubFiles{exists: true}, nil)

	w := doRequest(r, http.MethodDelete, "/api/v1/assets/"+asset.AssetID, "", true)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())
	require.Equal(t, []string{"alice/" + asset.AssetID}, assets.deleted)
}

func TestDeleteEndpointMissingObject(t *testing.T) {
	asset := routerAsset()
	assets := &stubAssets{getOut: asset}
	r := newTestRouter(assets, &stubFiles{exists: false}, nil)

	w := doRequest(r, http.MethodDelete, "/api/v1/assets/"+asset.AssetID, "", true)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Asset file not found in S3", errorMessage(t, w))
}

func TestEndpointsRequireCredentials(t *testing.T) {
	r := newTestRouter(&stubAssets{}, &stubFiles{exists: true}, nil)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/assets/initiate-upload"},
		{http.MethodGet, "/api/v1/assets"},
		{http.MethodGet, "/api/v1/assets/" + uuid.NewString()},
		{http.MethodPut, "/api/v1/assets/" + uuid.NewString()},
		{http.MethodDelete, "/api/v1/assets/" + uuid.NewString()},
	} {
		w := doRequest(r, route.method, route.path, "", false)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
		require.Equal(t, "Unauthorized", errorMessage(t, w))
	}
}

func TestEndpointsBehindSourceIPGate(t *testing.T) {
	t.Run("unlisted address", func(t *testing.T) {
		r := newTestRouter(&stubAssets{}, &stubFiles{exists: true}, &stubAllowlist{ips: []string{"203.0.113.9"}})
		w := doRequest(r, http.MethodGet, "/api/v1/assets", "", true)
		require.Equal(t, http.StatusForbidden, w.Code)
		require.Equal(t, "Access from your IP address is not permitted.", errorMessage(t, w))
	})

	t.Run("allowlist unavailable", func(t *testing.T) {
		r := newTestRouter(&stubAssets{}, &stubFiles{exists: true}, &stubAllowlist{err: appErr.ErrUnavailable})
		w := doRequest(r, http.MethodGet, "/api/v1/assets", "", true)
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		require.Equal(t, "Service is temporarily unavailable due to a configuration issue.", errorMessage(t, w))
	})
}

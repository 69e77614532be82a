package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/model"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errcode"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/response"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/service"
)

type AssetHandler struct {
	assets *service.AssetService
}

func NewAssetHandler(assets *service.AssetService) *AssetHandler {
	return &AssetHandler{assets: assets}
}

func (h *AssetHandler) InitiateUpload(c *gin.Context) {
	var req model.AssetCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "Invalid request body")
		return
	}
	out, err := h.assets.InitiateUpload(c.Request.Context(), ownerID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, out)
}

func (h *AssetHandler) List(c *gin.Context) {
	req := service.ListRequest{
		Tags:          c.QueryArray("tags"),
		MatchAllTags:  boolQuery(c, "match_all_tags"),
		MatchAllTypes: boolQuery(c, "match_all_types"),
		NextToken:     c.Query("next_token"),
		Limit:         service.DefaultListLimit,
	}
	for _, value := range c.QueryArray("asset_types") {
		assetType, err := model.ParseAssetType(value)
		if err != nil {
			response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "Invalid asset type filter")
			return
		}
		req.Types = append(req.Types, assetType)
	}
	if value := c.Query("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 || parsed > service.MaxListLimit {
			response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "Invalid limit value")
			return
		}
		req.Limit = int32(parsed)
	}
	page, err := h.assets.List(c.Request.Context(), ownerID(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, page)
}

func (h *AssetHandler) Get(c *gin.Context) {
	assetID, ok := assetIDParam(c)
	if !ok {
		return
	}
	asset, err := h.assets.Get(c.Request.Context(), ownerID(c), assetID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, asset)
}

func (h *AssetHandler) Update(c *gin.Context) {
	assetID, ok := assetIDParam(c)
	if !ok {
		return
	}
	var req model.AssetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "Invalid request body")
		return
	}
	asset, err := h.assets.Update(c.Request.Context(), ownerID(c), assetID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, asset)
}

func (h *AssetHandler) Delete(c *gin.Context) {
	assetID, ok := assetIDParam(c)
	if !ok {
		return
	}
	if err := h.assets.Delete(c.Request.Context(), ownerID(c), assetID); err != nil {
		handleError(c, err)
		return
	}
	response.NoContent(c)
}

// assetIDParam validates the path parameter as a UUID; asset ids are never
// any other shape, so anything else is rejected without a store lookup.
func assetIDParam(c *gin.Context) (string, bool) {
	assetID := c.Param("asset_id")
	if _, err := uuid.Parse(assetID); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "Invalid asset ID format")
		return "", false
	}
	return assetID, true
}

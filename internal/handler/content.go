package handler

import (
	"net/http"

	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/service"
	"aecoin-store-api/pkg/response"

	"go.uber.org/zap"
)

// RankingHandler handles leaderboard requests.
type RankingHandler struct {
	rankings *service.RankingService
	logger   *zap.Logger
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(rankings *service.RankingService, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{rankings: rankings, logger: orNop(logger)}
}

// RankingRequest is the body for upserting a leaderboard entry.
type RankingRequest struct {
	UserID     string  `json:"user_id" validate:"required,max=128"`
	PlayerName string  `json:"player_name" validate:"required,max=64"`
	Stars      int     `json:"stars" validate:"gte=0"`
	Rank       int     `json:"rank" validate:"required,gte=1"`
	ImageURL   *string `json:"image_url" validate:"omitempty,max=512"`
}

// RankingPatchRequest is the body for updating a leaderboard entry.
type RankingPatchRequest struct {
	PlayerName *string `json:"player_name" validate:"omitempty,min=1,max=64"`
	Stars      *int    `json:"stars" validate:"omitempty,gte=0"`
	Rank       *int    `json:"rank" validate:"omitempty,gte=1"`
	ImageURL   *string `json:"image_url" validate:"omitempty,max=512"`
}

// List handles GET /api/v1/rankings
func (h *RankingHandler) List(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.rankings.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, rankings)
}

// Get handles GET /api/v1/admin/rankings/{id}
func (h *RankingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := idParam(r, "id")
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	p, err := h.rankings.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, p)
}

// Upsert handles POST /api/v1/admin/rankings
func (h *RankingHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req RankingRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	p := &model.PlayerRanking{
		UserID:     req.UserID,
		PlayerName: req.PlayerName,
		Stars:      req.Stars,
		Rank:       req.Rank,
		ImageURL:   req.ImageURL,
	}
	if err := h.rankings.Upsert(r.Context(), p); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, p)
}

// Update handles PATCH /api/v1/admin/rankings/{id}
func (h *RankingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, apiErr := idParam(r, "id")
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	var req RankingPatchRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	p, err := h.rankings.Update(r.Context(), id, service.RankingPatch{
		PlayerName: req.PlayerName,
		Stars:      req.Stars,
		Rank:       req.Rank,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, p)
}

// Delete handles DELETE /api/v1/admin/rankings/{id}
func (h *RankingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, apiErr := idParam(r, "id")
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	if err := h.rankings.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.NoContent(w)
}

// Seed handles POST /api/v1/admin/rankings/seed
func (h *RankingHandler) Seed(w http.ResponseWriter, r *http.Request) {
	seeded, err := h.rankings.Seed(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, seeded)
}

// HeroHandler handles storefront banner requests.
type HeroHandler struct {
	heroes *service.HeroService
	logger *zap.Logger
}

// NewHeroHandler creates a new hero handler.
func NewHeroHandler(heroes *service.HeroService, logger *zap.Logger) *HeroHandler {
	return &HeroHandler{heroes: heroes, logger: orNop(logger)}
}

// HeroRequest is the body for creating a hero setting.
type HeroRequest struct {
	BackgroundImage string  `json:"background_image" validate:"required,max=512"`
	VideoThumbnail  *string `json:"video_thumbnail" validate:"omitempty,max=512"`
	IsActive        bool    `json:"is_active"`
}

// HeroPatchRequest is the body for updating a hero setting.
type HeroPatchRequest struct {
	BackgroundImage *string `json:"background_image" validate:"omitempty,min=1,max=512"`
	VideoThumbnail  *string `json:"video_thumbnail" validate:"omitempty,max=512"`
	IsActive        *bool   `json:"is_active"`
}

// Active handles GET /api/v1/hero
func (h *HeroHandler) Active(w http.ResponseWriter, r *http.Request) {
	hero, err := h.heroes.Active(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, hero)
}

// List handles GET /api/v1/admin/hero
func (h *HeroHandler) List(w http.ResponseWriter, r *http.Request) {
	heroes, err := h.heroes.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, heroes)
}

// Create handles POST /api/v1/admin/hero
func (h *HeroHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req HeroRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	hero := &model.HeroSetting{
		BackgroundImage: req.BackgroundImage,
		VideoThumbnail:  req.VideoThumbnail,
		IsActive:        req.IsActive,
	}
	if err := h.heroes.Create(r.Context(), hero); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, hero)
}

// Update handles PATCH /api/v1/admin/hero/{id}
func (h *HeroHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, apiErr := idParam(r, "id")
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	var req HeroPatchRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	hero, err := h.heroes.Update(r.Context(), id, service.HeroPatch{
		BackgroundImage: req.BackgroundImage,
		VideoThumbnail:  req.VideoThumbnail,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.OK(w, hero)
}

// Delete handles DELETE /api/v1/admin/hero/{id}
func (h *HeroHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, apiErr := idParam(r, "id")
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}
	if err := h.heroes.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.NoContent(w)
}

// Package httpapi exposes the assistant over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"

	"carsales/internal/assets"
	"carsales/internal/domain"
	"carsales/internal/service"
)

const (
	errInvalidID    = "invalid car id"
	errUnknownCar   = "car not found"
	errInvalidThumb = "thumb must be a positive integer"
)

// Assistant is the subset of the assistant the API serves.
type Assistant interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
	Cars() []domain.Car
	Car(id int) (domain.Car, bool)
}

type Handler struct {
	assistant Assistant
	assets    domain.AssetStore
	pages     *assets.PageCounter
	logger    *slog.Logger
}

func NewHandler(assistant Assistant, store domain.AssetStore) *Handler {
	h := &Handler{
		assistant: assistant,
		assets:    store,
		logger:    slog.Default().With("component", "httpapi"),
	}
	if store != nil {
		h.pages = assets.NewPageCounter(store)
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/cars", h.listCars)
		api.POST("/ask", h.ask)
		api.GET("/cars/:id/image", h.image)
		api.GET("/cars/:id/brochure", h.brochure)
	}
}

func (h *Handler) listCars(c *gin.Context) {
	c.JSON(http.StatusOK, CarsResponse{Cars: h.assistant.Cars()})
}

func (h *Handler) ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}
	ctx := c.Request.Context()
	ans, err := h.assistant.Ask(ctx, req.Question)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(err.Error()))
			return
		}
		h.logger.Error("ask failed", "err", err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}

	resp := AskResponse{
		Question: ans.Question,
		Answer:   ans.Text,
		Strategy: ans.Strategy,
		Cached:   ans.Cached,
		Matches:  make([]MatchResponse, 0, len(ans.Matches)),
	}
	for _, m := range ans.Matches {
		resp.Matches = append(resp.Matches, h.describe(ctx, m))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) describe(ctx context.Context, m domain.Match) MatchResponse {
	out := MatchResponse{ID: m.Car.ID, Name: m.Car.Name, BrochureLink: m.Car.BrochureURL}
	if m.Scored {
		score := m.Score
		out.Score = &score
	}
	if h.available(ctx, m.Car.ImagePath) {
		out.ImageURL = fmt.Sprintf("/api/v1/cars/%d/image", m.Car.ID)
	}
	if info, ok := h.stat(ctx, m.Car.BrochurePath); ok {
		out.BrochureURL = fmt.Sprintf("/api/v1/cars/%d/brochure", m.Car.ID)
		pages, err := h.pages.Pages(ctx, info)
		if err != nil {
			h.logger.Warn("failed to read brochure", "car", m.Car.Name, "err", err)
		}
		out.BrochurePages = pages
	}
	return out
}

func (h *Handler) available(ctx context.Context, p string) bool {
	_, ok := h.stat(ctx, p)
	return ok
}

func (h *Handler) stat(ctx context.Context, p string) (domain.AssetInfo, bool) {
	if h.assets == nil || p == "" {
		return domain.AssetInfo{}, false
	}
	info, err := h.assets.Stat(ctx, p)
	return info, err == nil
}

func (h *Handler) image(c *gin.Context) {
	car, ok := h.car(c)
	if !ok {
		return
	}
	size := 0
	if raw := c.Query("thumb"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(errInvalidThumb))
			return
		}
		size = n
	}
	if !h.available(c.Request.Context(), car.ImagePath) {
		c.JSON(http.StatusNotFound, NewErrorResponse(fmt.Sprintf("Gambar untuk %s tidak tersedia.", car.Name)))
		return
	}
	rc, info, err := h.assets.Open(c.Request.Context(), car.ImagePath)
	if err != nil {
		h.assetError(c, err)
		return
	}
	defer rc.Close()

	if size == 0 {
		c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, nil)
		return
	}
	thumb, err := assets.Thumbnail(rc, size)
	if err != nil {
		h.logger.Error("thumbnail failed", "car", car.Name, "err", err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error()))
		return
	}
	c.DataFromReader(http.StatusOK, int64(len(thumb)), "image/jpeg", bytes.NewReader(thumb), nil)
}

func (h *Handler) brochure(c *gin.Context) {
	car, ok := h.car(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if !h.available(ctx, car.BrochurePath) {
		c.JSON(http.StatusNotFound, NewErrorResponse(fmt.Sprintf("Brosur untuk %s belum tersedia.", car.Name)))
		return
	}
	url, err := h.assets.DownloadURL(ctx, car.BrochurePath)
	if err != nil {
		h.assetError(c, err)
		return
	}
	if url != "" {
		c.Redirect(http.StatusFound, url)
		return
	}
	rc, info, err := h.assets.Open(ctx, car.BrochurePath)
	if err != nil {
		h.assetError(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, info.Size, "application/pdf", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", path.Base(car.BrochurePath)),
	})
}

func (h *Handler) car(c *gin.Context) (domain.Car, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(errInvalidID))
		return domain.Car{}, false
	}
	car, ok := h.assistant.Car(id)
	if !ok {
		c.JSON(http.StatusNotFound, NewErrorResponse(errUnknownCar))
		return domain.Car{}, false
	}
	return car, true
}

func (h *Handler) assetError(c *gin.Context, err error) {
	if errors.Is(err, assets.ErrAssetNotFound) {
		c.JSON(http.StatusNotFound, NewErrorResponse(err.Error()))
		return
	}
	h.logger.Error("asset access failed", "err", err)
	c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error()))
}

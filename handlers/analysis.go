package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sentix/models"
	"sentix/store"
)

// ScanLister reads the scan journal.
type ScanLister interface {
	Recent(ctx context.Context, n int) ([]models.ScanRecord, error)
}

type RefreshRequest struct {
	APIKey string `json:"apiKey"`
}

type SelectRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

type ViewRequest struct {
	View string `json:"view" binding:"required"`
}

// GetAnalysis returns the store snapshot.
func (h *Handler) GetAnalysis(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// StartRefresh begins a scan. With ?wait=true it runs the scan within the
// request and reports the outcome; otherwise it answers 202 immediately.
func (h *Handler) StartRefresh(c *gin.Context) {
	var request RefreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		err := h.store.Load(c.Request.Context(), request.APIKey)
		switch {
		case errors.Is(err, store.ErrLoadInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "scan already in progress"})
		case err != nil:
			c.JSON(http.StatusBadGateway, h.store.Snapshot())
		default:
			c.JSON(http.StatusOK, h.store.Snapshot())
		}
		return
	}

	if !h.store.Refresh(h.ctx, request.APIKey) {
		c.JSON(http.StatusConflict, gin.H{"error": "scan already in progress"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"state": store.Loading})
}

// SelectStock sets the selected symbol.
func (h *Handler) SelectStock(c *gin.Context) {
	var request SelectRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !h.store.SelectStock(request.Symbol) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Symbol not in current analysis"})
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// ChangeView sets the active view.
func (h *Handler) ChangeView(c *gin.Context) {
	var request ViewRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	view, err := models.ParseView(request.View)
	if err == nil {
		err = h.store.SetView(view)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// GetScans lists recent load attempts.
func (h *Handler) GetScans(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusOK, []models.ScanRecord{})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.scanLimit)))
	if err != nil || limit <= 0 {
		limit = h.scanLimit
	}

	scans, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, scans)
}

// Health reports liveness and the scan state.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": h.store.State()})
}

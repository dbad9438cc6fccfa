package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"sentix/logging"
	"sentix/models"
	"sentix/store"
)

// Handler serves the dashboard pages and the JSON API from one store.
type Handler struct {
	store   *store.Store
	journal ScanLister
	// ctx bounds background refreshes; request contexts end too early.
	ctx         context.Context
	pollSeconds int
	scanLimit   int
}

// New creates a Handler. journal may be nil.
func New(ctx context.Context, st *store.Store, journal ScanLister, pollSeconds, scanLimit int) *Handler {
	if pollSeconds <= 0 {
		pollSeconds = 3
	}
	if scanLimit <= 0 {
		scanLimit = 50
	}
	return &Handler{
		store:       st,
		journal:     journal,
		ctx:         ctx,
		pollSeconds: pollSeconds,
		scanLimit:   scanLimit,
	}
}

// PageData is what index.html renders.
type PageData struct {
	Snapshot    store.Snapshot
	Range       models.TimeRange
	Ranges      []models.TimeRange
	PollSeconds int
}

// ListView is one ranked list on the page.
type ListView struct {
	Title    string
	Tone     string
	Stocks   []models.StockSentiment
	Selected string
	Range    models.TimeRange
}

// List returns the "positive" or "negative" list for rendering.
func (p PageData) List(kind string) ListView {
	v := ListView{Tone: kind, Selected: p.Snapshot.SelectedSymbol, Range: p.Range}
	if kind == "negative" {
		v.Title = "Bearish Movers"
		if p.Snapshot.Analysis != nil {
			v.Stocks = p.Snapshot.Analysis.TopNegative
		}
		return v
	}
	v.Title = "Bullish Movers"
	if p.Snapshot.Analysis != nil {
		v.Stocks = p.Snapshot.Analysis.TopPositive
	}
	return v
}

// Dashboard renders the current view.
func (h *Handler) Dashboard(c *gin.Context) {
	data := PageData{
		Snapshot:    h.store.Snapshot(),
		Range:       models.ParseTimeRange(c.DefaultQuery("range", string(models.Days90))),
		Ranges:      models.TimeRanges,
		PollSeconds: h.pollSeconds,
	}
	c.HTML(http.StatusOK, "index.html", data)
}

// Refresh starts a scan. An api_key form value applies to this scan only.
func (h *Handler) Refresh(c *gin.Context) {
	if !h.store.Refresh(h.ctx, c.PostForm("api_key")) {
		logging.Debug("Refresh requested while scan running")
	}
	redirectToDashboard(c)
}

// Select points the detail panel at a symbol.
func (h *Handler) Select(c *gin.Context) {
	symbol := c.Param("symbol")
	if !h.store.SelectStock(symbol) {
		logging.Debug("Ignoring selection of unknown symbol", "symbol", symbol)
	}
	redirectToDashboard(c)
}

// SetView switches between dashboard and leaderboard.
func (h *Handler) SetView(c *gin.Context) {
	view, err := models.ParseView(c.PostForm("view"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.SetView(view); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	redirectToDashboard(c)
}

func redirectToDashboard(c *gin.Context) {
	target := "/dashboard"
	if r := c.PostForm("range"); r != "" {
		target += "?range=" + url.QueryEscape(string(models.ParseTimeRange(r)))
	}
	c.Redirect(http.StatusSeeOther, target)
}

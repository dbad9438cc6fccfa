package models

import (
	"fmt"
	"strings"
	"time"
)

// Source is a citation the model used to justify a sentiment reading.
type Source struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// PlatformSentiment splits a score by channel. Each value is in [-100, 100].
type PlatformSentiment struct {
	Twitter int `json:"twitter"`
	Reddit  int `json:"reddit"`
	News    int `json:"news"`
}

// StockSentiment is one ranked instrument.
type StockSentiment struct {
	Symbol            string            `json:"symbol"`
	Name              string            `json:"name"`
	CurrentScore      int               `json:"currentScore"`
	Change24h         float64           `json:"change24h"`
	Change90d         float64           `json:"change90d"`
	RankChange        int               `json:"rankChange"`
	Volume            int64             `json:"volume"`
	Description       string            `json:"description"`
	History           []int             `json:"history"`
	Sources           []Source          `json:"sources"`
	PlatformBreakdown PlatformSentiment `json:"platformBreakdown"`
}

// MarketAnalysis is the aggregate returned by one scan. Rank is the position
// in each list; the order is whatever the provider returned.
type MarketAnalysis struct {
	TopPositive []StockSentiment `json:"topPositive"`
	TopNegative []StockSentiment `json:"topNegative"`
	Timestamp   string           `json:"timestamp"`
}

// Find looks a symbol up in both lists, positives first.
func (a *MarketAnalysis) Find(symbol string) (StockSentiment, bool) {
	if a == nil || symbol == "" {
		return StockSentiment{}, false
	}
	for _, s := range a.TopPositive {
		if s.Symbol == symbol {
			return s, true
		}
	}
	for _, s := range a.TopNegative {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return StockSentiment{}, false
}

// Clone returns a deep copy so callers can hand it out without sharing slices.
func (a *MarketAnalysis) Clone() *MarketAnalysis {
	if a == nil {
		return nil
	}
	return &MarketAnalysis{
		TopPositive: cloneStocks(a.TopPositive),
		TopNegative: cloneStocks(a.TopNegative),
		Timestamp:   a.Timestamp,
	}
}

func cloneStocks(in []StockSentiment) []StockSentiment {
	if in == nil {
		return nil
	}
	out := make([]StockSentiment, len(in))
	for i, s := range in {
		s.History = append([]int(nil), s.History...)
		s.Sources = append([]Source(nil), s.Sources...)
		out[i] = s
	}
	return out
}

// View is the active dashboard tab.
type View string

const (
	ViewDashboard   View = "dashboard"
	ViewLeaderboard View = "leaderboard"
)

// ParseView accepts the view names case-insensitively.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewDashboard:
		return ViewDashboard, nil
	case ViewLeaderboard:
		return ViewLeaderboard, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// TimeRange is the chart window over a stock's history.
type TimeRange string

const (
	Days30 TimeRange = "30D"
	Days60 TimeRange = "60D"
	Days90 TimeRange = "90D"
)

// TimeRanges lists the selectable chart windows in display order.
var TimeRanges = []TimeRange{Days30, Days60, Days90}

// ParseTimeRange falls back to 90D for anything unrecognised.
func ParseTimeRange(s string) TimeRange {
	switch TimeRange(strings.ToUpper(strings.TrimSpace(s))) {
	case Days30:
		return Days30
	case Days60:
		return Days60
	}
	return Days90
}

// Days returns the number of history points the range covers.
func (r TimeRange) Days() int {
	switch r {
	case Days30:
		return 30
	case Days60:
		return 60
	}
	return 90
}

// ScanRecord is one journal row describing a load attempt. It never holds a
// credential or the analysis payload.
type ScanRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	StartedAt  time.Time `json:"started_at" gorm:"index"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind"`
	Message    string    `json:"message"`
	Model      string    `json:"model"`
	Positive   int       `json:"positive"`
	Negative   int       `json:"negative"`
}

// Duration is the wall time the attempt took.
func (r ScanRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

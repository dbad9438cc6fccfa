package gemini

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"sentix/apperror"
	"sentix/logging"
	"sentix/models"
)

// Soft bounds requested in the prompt. Longer values are truncated.
const (
	MaxListLen    = 10
	MaxHistoryLen = 90
	MaxSources    = 3
	scoreLimit    = 100
)

var (
	openFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	closeFence = regexp.MustCompile("\r?\n?```$")
)

// StripFence removes a surrounding markdown code fence, if any.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	text = openFence.ReplaceAllString(text, "")
	text = closeFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// wire types mirror the schema with loose numeric types; pointers mark the
// keys whose absence is a schema violation.
type wireAnalysis struct {
	TopPositive *[]wireStock `json:"topPositive"`
	TopNegative *[]wireStock `json:"topNegative"`
	Timestamp   *string      `json:"timestamp"`
}

type wireStock struct {
	Symbol            string          `json:"symbol"`
	Name              string          `json:"name"`
	CurrentScore      float64         `json:"currentScore"`
	Change24h         float64         `json:"change24h"`
	Change90d         float64         `json:"change90d"`
	RankChange        float64         `json:"rankChange"`
	Volume            float64         `json:"volume"`
	Description       string          `json:"description"`
	History           []float64       `json:"history"`
	Sources           []models.Source `json:"sources"`
	PlatformBreakdown struct {
		Twitter float64 `json:"twitter"`
		Reddit  float64 `json:"reddit"`
		News    float64 `json:"news"`
	} `json:"platformBreakdown"`
}

// DecodeAnalysis turns the model's text payload into a MarketAnalysis.
// Structural problems are fatal; soft-bound violations are coerced.
func DecodeAnalysis(text string) (*models.MarketAnalysis, error) {
	body := StripFence(text)
	if body == "" {
		return nil, apperror.New(apperror.KindEmptyResponse, "decode analysis", "no data returned from model")
	}

	var w wireAnalysis
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, apperror.Wrap(apperror.KindSchemaViolation, "decode analysis", err)
	}

	var missing []string
	if w.TopPositive == nil {
		missing = append(missing, "topPositive")
	}
	if w.TopNegative == nil {
		missing = append(missing, "topNegative")
	}
	if w.Timestamp == nil {
		missing = append(missing, "timestamp")
	}
	if len(missing) > 0 {
		return nil, apperror.New(apperror.KindSchemaViolation, "decode analysis",
			"missing required keys: "+strings.Join(missing, ", "))
	}

	return &models.MarketAnalysis{
		TopPositive: coerceList("topPositive", *w.TopPositive),
		TopNegative: coerceList("topNegative", *w.TopNegative),
		Timestamp:   *w.Timestamp,
	}, nil
}

func coerceList(list string, in []wireStock) []models.StockSentiment {
	out := make([]models.StockSentiment, 0, min(len(in), MaxListLen))
	seen := make(map[string]bool, len(in))
	dropped := 0
	for _, ws := range in {
		symbol := strings.TrimSpace(ws.Symbol)
		if symbol == "" || seen[symbol] {
			dropped++
			continue
		}
		if len(out) == MaxListLen {
			dropped++
			continue
		}
		seen[symbol] = true
		out = append(out, coerceStock(symbol, ws))
	}
	if dropped > 0 {
		logging.Warn("Dropped entries from model response", "list", list, "dropped", dropped, "kept", len(out))
	}
	return out
}

func coerceStock(symbol string, ws wireStock) models.StockSentiment {
	history := ws.History
	if len(history) > MaxHistoryLen {
		history = history[len(history)-MaxHistoryLen:]
	}
	points := make([]int, len(history))
	for i, v := range history {
		points[i] = score(v)
	}

	sources := ws.Sources
	if len(sources) > MaxSources {
		sources = sources[:MaxSources]
	}

	volume := roundClamp(ws.Volume, 0, math.MaxInt64)

	return models.StockSentiment{
		Symbol:       symbol,
		Name:         strings.TrimSpace(ws.Name),
		CurrentScore: score(ws.CurrentScore),
		Change24h:    ws.Change24h,
		Change90d:    ws.Change90d,
		RankChange:   int(roundClamp(ws.RankChange, math.MinInt32, math.MaxInt32)),
		Volume:       volume,
		Description:  strings.TrimSpace(ws.Description),
		History:      points,
		Sources:      append([]models.Source(nil), sources...),
		PlatformBreakdown: models.PlatformSentiment{
			Twitter: score(ws.PlatformBreakdown.Twitter),
			Reddit:  score(ws.PlatformBreakdown.Reddit),
			News:    score(ws.PlatformBreakdown.News),
		},
	}
}

// score rounds v and clamps it to [-100, 100].
func score(v float64) int {
	return int(roundClamp(v, -scoreLimit, scoreLimit))
}

// roundClamp rounds v into [lo, hi]. The clamp happens on the float so the
// integer conversion never overflows.
func roundClamp(v float64, lo, hi int64) int64 {
	r := math.Round(v)
	switch {
	case math.IsNaN(r):
		return 0
	case r <= float64(lo):
		return lo
	case r >= float64(hi):
		return hi
	}
	return int64(r)
}

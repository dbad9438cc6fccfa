package web

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"sentix/models"
)

// Funcs are the helpers available to the page templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"signed":    Signed,
		"kilo":      Kilo,
		"comma":     Comma,
		"abs":       Abs,
		"rank":      func(i int) int { return i + 1 },
		"tone":      Tone,
		"barWidth":  BarWidth,
		"chart":     func(h []int, r models.TimeRange) Chart { return NewChart(h, r, ChartWidth, ChartHeight) },
		"isView":    func(v models.View, name string) bool { return string(v) == name },
		"eqSymbol":  func(a, b string) bool { return a != "" && a == b },
		"rangeName": func(r models.TimeRange) string { return string(r) },
		"list":      func(items ...string) []string { return items },
	}
}

// Signed formats a number with an explicit sign, e.g. "+87", "-4.5", "0".
func Signed(v interface{}) string {
	switch n := v.(type) {
	case int:
		return signedString(float64(n), strconv.Itoa(n))
	case int64:
		return signedString(float64(n), strconv.FormatInt(n, 10))
	case float64:
		return signedString(n, strconv.FormatFloat(n, 'f', -1, 64))
	}
	return fmt.Sprint(v)
}

func signedString(f float64, s string) string {
	if f > 0 {
		return "+" + s
	}
	return s
}

// Kilo renders a discussion volume in thousands, e.g. 12345 -> "12.3k".
func Kilo(v int64) string {
	return strconv.FormatFloat(float64(v)/1000, 'f', 1, 64) + "k"
}

// Comma groups digits in threes.
func Comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Abs is the absolute value of an int or float.
func Abs(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return -n
		}
		return n
	case float64:
		if n < 0 {
			return -n
		}
		return n
	}
	return v
}

// Tone is the CSS class for a signed value.
func Tone(v interface{}) string {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	}
	switch {
	case f > 0:
		return "pos"
	case f < 0:
		return "neg"
	}
	return "flat"
}

// BarWidth maps a score in [-100, 100] to a 0-100 percentage width.
func BarWidth(score int) int {
	if score < 0 {
		score = -score
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Window returns the last r.Days() points of history.
func Window(history []int, r models.TimeRange) []int {
	n := r.Days()
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

const (
	ChartWidth  = 600
	ChartHeight = 200
)

// Chart is an SVG rendering of a score series on a fixed [-100, 100] axis.
type Chart struct {
	Width, Height int
	// Line is a polyline points attribute; Area closes it against the zero line.
	Line     string
	Area     string
	ZeroY    float64
	Positive bool
	Days     int
}

// NewChart lays out the r window of history in a w x h box.
func NewChart(history []int, r models.TimeRange, w, h int) Chart {
	pts := Window(history, r)
	c := Chart{Width: w, Height: h, ZeroY: float64(h) / 2, Days: len(pts)}
	if len(pts) == 0 {
		return c
	}
	c.Positive = pts[len(pts)-1] >= 0

	step := 0.0
	if len(pts) > 1 {
		step = float64(w) / float64(len(pts)-1)
	}
	coords := make([]string, len(pts))
	for i, v := range pts {
		if v > 100 {
			v = 100
		} else if v < -100 {
			v = -100
		}
		x := step * float64(i)
		y := c.ZeroY - float64(v)/100*c.ZeroY
		coords[i] = fmt.Sprintf("%.1f,%.1f", x, y)
	}
	c.Line = strings.Join(coords, " ")

	last := step * float64(len(pts)-1)
	c.Area = fmt.Sprintf("0.0,%.1f %s %.1f,%.1f", c.ZeroY, c.Line, last, c.ZeroY)
	return c
}

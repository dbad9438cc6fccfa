package gemini

// Schema is the subset of the Gemini OpenAPI schema object the analysis
// request needs.
type Schema struct {
	Type             string             `json:"type"`
	Properties       map[string]*Schema `json:"properties,omitempty"`
	Items            *Schema            `json:"items,omitempty"`
	Required         []string           `json:"required,omitempty"`
	PropertyOrdering []string           `json:"propertyOrdering,omitempty"`
}

const (
	typeObject  = "OBJECT"
	typeArray   = "ARRAY"
	typeString  = "STRING"
	typeNumber  = "NUMBER"
	typeInteger = "INTEGER"
)

func object(order []string, props map[string]*Schema) *Schema {
	return &Schema{
		Type:             typeObject,
		Properties:       props,
		Required:         order,
		PropertyOrdering: order,
	}
}

func arrayOf(items *Schema) *Schema { return &Schema{Type: typeArray, Items: items} }

func scalar(t string) *Schema { return &Schema{Type: t} }

// stockSchema describes one StockSentiment. Every field is required.
func stockSchema() *Schema {
	return object(
		[]string{
			"symbol", "name", "currentScore", "change24h", "change90d", "rankChange",
			"volume", "description", "history", "sources", "platformBreakdown",
		},
		map[string]*Schema{
			"symbol":       scalar(typeString),
			"name":         scalar(typeString),
			"currentScore": scalar(typeNumber),
			"change24h":    scalar(typeNumber),
			"change90d":    scalar(typeNumber),
			"rankChange":   scalar(typeInteger),
			"volume":       scalar(typeInteger),
			"description":  scalar(typeString),
			"history":      arrayOf(scalar(typeNumber)),
			"sources": arrayOf(object(
				[]string{"title", "url", "domain"},
				map[string]*Schema{
					"title":  scalar(typeString),
					"url":    scalar(typeString),
					"domain": scalar(typeString),
				},
			)),
			"platformBreakdown": object(
				[]string{"twitter", "reddit", "news"},
				map[string]*Schema{
					"twitter": scalar(typeNumber),
					"reddit":  scalar(typeNumber),
					"news":    scalar(typeNumber),
				},
			),
		},
	)
}

// AnalysisSchema is the response schema sent with every request.
func AnalysisSchema() *Schema {
	return object(
		[]string{"topPositive", "topNegative", "timestamp"},
		map[string]*Schema{
			"topPositive": arrayOf(stockSchema()),
			"topNegative": arrayOf(stockSchema()),
			"timestamp":   scalar(typeString),
		},
	)
}

// Prompt is the fixed task given to the model. List sizes and history length
// are requested here; the schema cannot enforce them.
const Prompt = `You are a real-time financial sentiment analysis engine.

Step 1: Use Google Search to scan the last 7 days of data for S&P 500 and Nasdaq 100 stocks.
Step 2: Specifically look for discussions on:
   - Twitter/X ($CASHTAGS)
   - Reddit (r/wallstreetbets, r/stocks, r/investing)
   - Mainstream Financial News (Bloomberg, CNBC, Reuters)

Step 3: Identify the top 10 stocks with the most significant POSITIVE sentiment shifts and the top 10 with NEGATIVE sentiment shifts.
Order each list by the strength of the shift, strongest first.

For each stock found:
- Determine a composite sentiment score (-100 to 100).
- Estimate separate sentiment scores for Twitter, Reddit, and News based on the tone of those specific search results.
- Estimate volume of discussion (low/med/high converted to a number 500-50000).
- Provide a short explanation (description).
- Include 2-3 specific "sources" (URLs) that justify this sentiment.
- Generate a "history" array of 90 numbers (oldest first) representing the daily sentiment trend.

Rank Change Logic:
- If the stock is breaking news today, rank change is high (+10 to +50).
- If it's a lingering story, rank change is low (+/- 1-5).

Set "timestamp" to the current time in ISO 8601 format.`

package upstream

// Domain models returned to handlers. Only the fields the proxy keys on or
// re-serves are mapped; the vendor payload carries far more.

// Suggestion is one symbol-search match.
type Suggestion struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// SearchResult is the payload for the search namespace.
type SearchResult struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Quote is the snapshot payload for the stock namespace.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        float64 `json:"volume"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
}

// Candle is one OHLCV bar. Price mirrors Close for chart consumers.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	Price  float64 `json:"price"`
}

// History is the payload for the history namespace.
type History struct {
	Candles []Candle `json:"history"`
}

// LivePrice is the payload for the live namespace.
type LivePrice struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// NewsItem is one article reference.
type NewsItem struct {
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	Link        string `json:"link"`
	PublishedAt int64  `json:"published_at"`
	Type        string `json:"type"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// NewsList is the payload for the news namespace.
type NewsList struct {
	Items []NewsItem `json:"news"`
}

// Wire shapes for the vendor's chart and search endpoints. Numeric series
// use pointers because the vendor emits explicit nulls for halted bars.

type chartResponse struct {
	Chart struct {
		Result []chartResult  `json:"result"`
		Error  *upstreamError `json:"error"`
	} `json:"chart"`
}

type upstreamError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []quoteSeries `json:"quote"`
	} `json:"indicators"`
}

type chartMeta struct {
	Symbol                     string  `json:"symbol"`
	InstrumentType             string  `json:"instrumentType"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketVolume        float64 `json:"regularMarketVolume"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
}

type quoteSeries struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type searchResponse struct {
	Quotes []searchQuote `json:"quotes"`
	News   []searchNews  `json:"news"`
}

type searchQuote struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname"`
	Exchange  string `json:"exchange"`
}

type searchNews struct {
	Title               string `json:"title"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
	Type                string `json:"type"`
	Thumbnail           struct {
		Resolutions []struct {
			URL string `json:"url"`
		} `json:"resolutions"`
	} `json:"thumbnail"`
}

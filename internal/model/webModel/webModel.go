package webModel

// JSON payloads of the dashboard API. Decimal values are converted to float64
// at this boundary; absent values (no data, failed beta lookups) are null.

type SectorsResponse struct {
	Sectors       []string `json:"sectors"`
	DefaultSector string   `json:"default_sector"`
}

type TickersResponse struct {
	Sector  string   `json:"sector"`
	Tickers []string `json:"tickers"`
}

type Averages struct {
	MarketCap *float64 `json:"avg_market_cap"`
	Price     *float64 `json:"avg_price"`
	Beta      *float64 `json:"avg_beta"`
}

type TickerBeta struct {
	Ticker string   `json:"ticker"`
	Beta   *float64 `json:"beta"`
}

type SummaryResponse struct {
	Sector   string       `json:"sector"`
	Records  int          `json:"records"`
	Averages Averages     `json:"averages"`
	Betas    []TickerBeta `json:"betas,omitempty"`
}

// TrendSeries carries parallel date/price arrays, one series per ticker,
// ready to hand to the chart library.
type TrendSeries struct {
	Ticker string    `json:"ticker"`
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

type TrendResponse struct {
	Sector string        `json:"sector"`
	Series []TrendSeries `json:"series"`
}

type ComparisonResponse struct {
	Sector     string    `json:"sector"`
	Tickers    []string  `json:"tickers"`
	MarketCaps []float64 `json:"market_caps"`
}

type DatasetResponse struct {
	Ready   bool   `json:"ready"`
	Rows    int    `json:"rows"`
	Tickers int    `json:"tickers"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Source  string `json:"source,omitempty"`
	BuiltAt string `json:"built_at,omitempty"`
}

type RefreshResponse struct {
	Status string `json:"status"`
}

// RefreshEvent is pushed to websocket clients when a dataset rebuild lands.
type RefreshEvent struct {
	Event   string          `json:"event"`
	Dataset DatasetResponse `json:"dataset"`
}

type ShareResponse struct {
	Link string `json:"link"`
}

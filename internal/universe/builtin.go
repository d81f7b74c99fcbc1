package universe

// builtinSectors is the default catalog: ten sectors, ten large-cap US
// tickers each. Technology comes first and is the dashboard default.
var builtinSectors = []Sector{
	{Name: "Technology", Tickers: []string{"AAPL", "MSFT", "GOOG", "NVDA", "AMD", "ORCL", "CRM", "ADBE", "INTC", "HPQ"}},
	{Name: "Healthcare", Tickers: []string{"JNJ", "PFE", "MRK", "LLY", "ABT", "TMO", "BMY", "AMGN", "CVS", "GILD"}},
	{Name: "Energy", Tickers: []string{"XOM", "CVX", "BP", "TOT", "COP", "ENB", "EOG", "KMI", "SLB", "OXY"}},
	{Name: "Finance", Tickers: []string{"JPM", "BAC", "C", "WFC", "GS", "MS", "SCHW", "AXP", "USB", "TD"}},
	{Name: "Consumer Discretionary", Tickers: []string{"TSLA", "AMZN", "HD", "MCD", "NKE", "SBUX", "DIS", "BKNG", "LOW", "TGT"}},
	{Name: "Consumer Staples", Tickers: []string{"PG", "KO", "PEP", "WMT", "COST", "MDLZ", "CL", "KHC", "KR", "TAP"}},
	{Name: "Industrials", Tickers: []string{"MMM", "HON", "GE", "BA", "CAT", "RTX", "LMT", "DE", "UPS", "FDX"}},
	{Name: "Utilities", Tickers: []string{"NEE", "DUK", "SO", "AEP", "EXC", "SRE", "D", "PEG", "ED", "XEL"}},
	{Name: "Real Estate", Tickers: []string{"AMT", "PLD", "CCI", "EQIX", "SPG", "PSA", "O", "WELL", "VTR", "HST"}},
	{Name: "Materials", Tickers: []string{"LIN", "APD", "SHW", "ECL", "NUE", "DOW", "DD", "FCX", "ALB", "CE"}},
}

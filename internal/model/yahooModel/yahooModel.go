package yahooModel

// RawQuoteSummary is the quoteSummary envelope as Yahoo returns it. Only the
// fields the dashboard needs are mapped; beta sits in the summaryDetail
// module as a raw/fmt pair.
type RawQuoteSummary struct {
	QuoteSummary struct {
		Result []QuoteSummaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type QuoteSummaryResult struct {
	SummaryDetail struct {
		Beta RawValue `json:"beta"`
	} `json:"summaryDetail"`
}

type RawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

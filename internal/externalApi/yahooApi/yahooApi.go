package yahooApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/KotFed0t/sector_dashboard/config"
	"github.com/KotFed0t/sector_dashboard/internal/externalApi"
	"github.com/KotFed0t/sector_dashboard/internal/model/yahooModel"
	"github.com/KotFed0t/sector_dashboard/utils"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

type YahooApi struct {
	client *resty.Client
	cfg    *config.Config
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.YahooApi.Url).
		SetHeader("User-Agent", cfg.API.YahooApi.UserAgent)
	return &YahooApi{client: client, cfg: cfg}
}

// GetBeta returns the summaryDetail beta for one ticker. Tickers Yahoo
// doesn't know, or knows without a beta, come back as externalApi.ErrNotFound.
func (a *YahooApi) GetBeta(ctx context.Context, ticker string) (float64, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := fmt.Sprintf("/v10/finance/quoteSummary/%s", ticker)

	slog.Debug("start YahooApi.GetBeta request", slog.String("rqID", rqID), slog.String("ticker", ticker))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("modules", "summaryDetail").
		Get(url)

	if err != nil {
		slog.Error("error while dialing YahooApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return 0, err
	}

	rawQuoteSummary := yahooModel.RawQuoteSummary{}
	err = json.Unmarshal(resp.Body(), &rawQuoteSummary)
	if err != nil {
		slog.Error("can't unmarshall response into yahooModel.RawQuoteSummary", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return 0, err
	}

	beta, err := a.parseBeta(rawQuoteSummary)
	if err != nil {
		slog.Debug("no beta in YahooApi response", slog.String("err", err.Error()), slog.String("ticker", ticker), slog.String("rqID", rqID))
		return 0, err
	}

	slog.Debug("YahooApi.GetBeta request complete", slog.String("rqID", rqID), slog.String("ticker", ticker))

	return beta, nil
}

// GetBetas fans GetBeta out over the tickers with a bounded number of
// in-flight requests. Lookups that fail are skipped, not fatal: the
// result map simply has no entry for them.
func (a *YahooApi) GetBetas(ctx context.Context, tickers []string) (map[string]float64, error) {
	res := make(map[string]float64, len(tickers))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.API.YahooApi.Concurrency)

	for _, ticker := range tickers {
		g.Go(func() error {
			beta, err := a.GetBeta(ctx, ticker)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return nil
			}
			mu.Lock()
			res[ticker] = beta
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *YahooApi) parseBeta(raw yahooModel.RawQuoteSummary) (float64, error) {
	if raw.QuoteSummary.Error != nil {
		return 0, fmt.Errorf("yahoo responded with error code=%s description=%s", raw.QuoteSummary.Error.Code, raw.QuoteSummary.Error.Description)
	}
	if len(raw.QuoteSummary.Result) == 0 {
		return 0, externalApi.ErrNotFound
	}
	beta := raw.QuoteSummary.Result[0].SummaryDetail.Beta
	if beta.Raw == nil {
		return 0, externalApi.ErrNotFound
	}
	return *beta.Raw, nil
}

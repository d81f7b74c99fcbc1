package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/KotFed0t/sector_dashboard/config"
	"github.com/KotFed0t/sector_dashboard/internal/model"
	"github.com/KotFed0t/sector_dashboard/utils"
	"github.com/redis/go-redis/v9"
)

const (
	betaKeyPrefix  = "beta:"
	statsKeyPrefix = "sector_stats:"
)

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

// SetBetas stores successful beta lookups. Failed lookups are never cached,
// so they are retried on the next refresh.
func (r *RedisCache) SetBetas(ctx context.Context, betas map[string]float64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetBetas start", slog.String("rqID", rqID), slog.Int("count", len(betas)))

	pipe := r.redis.Pipeline()
	for ticker, beta := range betas {
		betaJson, err := json.Marshal(beta)
		if err != nil {
			slog.Error(
				"can't marshall beta in SetBetas",
				slog.String("rqID", rqID),
				slog.String("err", err.Error()),
				slog.String("ticker", ticker),
			)
			return errors.New("can't marshall beta")
		}

		pipe.Set(ctx, betaKeyPrefix+ticker, betaJson, r.cfg.Cache.BetaExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetBetas completed", slog.String("rqID", rqID))

	return nil
}

// GetBetas returns the cached subset of the requested tickers. Tickers
// without a cached value are simply absent from the result.
func (r *RedisCache) GetBetas(ctx context.Context, tickers []string) (map[string]float64, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetBetas start", slog.String("rqID", rqID), slog.Int("count", len(tickers)))

	if len(tickers) == 0 {
		return map[string]float64{}, nil
	}

	keys := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		keys = append(keys, betaKeyPrefix+ticker)
	}

	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Error("failed on redis.MGet", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}

	betas := make(map[string]float64, len(tickers))
	for i, v := range values {
		str, ok := v.(string)
		if !ok { // cache miss
			continue
		}

		var beta float64
		if err := json.Unmarshal([]byte(str), &beta); err != nil {
			slog.Error(
				"can't unmarshall beta in GetBetas",
				slog.String("rqID", rqID),
				slog.String("err", err.Error()),
				slog.String("resultFromRedis", str),
			)
			continue
		}
		betas[tickers[i]] = beta
	}

	slog.Debug("GetBetas finished", slog.String("rqID", rqID), slog.Int("hits", len(betas)))

	return betas, nil
}

func (r *RedisCache) SetSectorStats(ctx context.Context, stats model.SectorStats) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetSectorStats start", slog.String("rqID", rqID), slog.String("sector", stats.Sector))

	statsJson, err := json.Marshal(stats)
	if err != nil {
		slog.Error("can't marshall stats in SetSectorStats", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return errors.New("can't marshall stats")
	}

	err = r.redis.Set(ctx, statsKeyPrefix+stats.Sector, statsJson, r.cfg.Cache.StatsExpiration).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetSectorStats completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetSectorStats(ctx context.Context, sector string) (model.SectorStats, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetSectorStats start", slog.String("rqID", rqID), slog.String("sector", sector))

	res, err := r.redis.Get(ctx, statsKeyPrefix+sector).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("sector", sector))
		}
		return model.SectorStats{}, err
	}

	stats := model.SectorStats{}
	err = json.Unmarshal([]byte(res), &stats)
	if err != nil {
		slog.Error(
			"can't unmarshall stats in GetSectorStats",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return model.SectorStats{}, errors.New("can't unmarshall stats")
	}

	slog.Debug("GetSectorStats finished", slog.String("rqID", rqID))

	return stats, nil
}

// FlushSectorStats drops the cached averages for the given sectors. Called
// synchronously after a dataset refresh so readers never see stale stats.
func (r *RedisCache) FlushSectorStats(ctx context.Context, sectors []string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("FlushSectorStats start", slog.String("rqID", rqID), slog.Int("sectors", len(sectors)))

	if len(sectors) == 0 {
		return nil
	}

	keys := make([]string, 0, len(sectors))
	for _, sector := range sectors {
		keys = append(keys, statsKeyPrefix+sector)
	}

	err := r.redis.Del(ctx, keys...).Err()
	if err != nil {
		slog.Error("failed on redis.Del", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("FlushSectorStats completed", slog.String("rqID", rqID))

	return nil
}

package query

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/providers"
	"github.com/samber/lo"
)

const (
	DefaultKlineInterval = "1D"
	DefaultKlineTimeout  = 15 * time.Second
	DefaultKlineWindow   = 7 * 24 * time.Hour
)

var klineIntervals = []model.KlineInterval{
	{Name: "1m", Seconds: 60},
	{Name: "15m", Seconds: 900},
	{Name: "30m", Seconds: 1800},
	{Name: "1h", Seconds: 3600},
	{Name: "4h", Seconds: 14400},
	{Name: "1D", Seconds: 86400},
	{Name: "1W", Seconds: 604800},
}

// KlineIntervals lists the supported candle periods, shortest first.
func KlineIntervals() []model.KlineInterval {
	return append([]model.KlineInterval(nil), klineIntervals...)
}

func intervalSeconds(name string) (int64, bool) {
	iv, ok := lo.Find(klineIntervals, func(iv model.KlineInterval) bool { return iv.Name == name })
	return iv.Seconds, ok
}

type KlineQuery struct {
	PairID   string
	Interval string
	// From and To accept unix seconds, unix milliseconds or a date string.
	// Empty values select the last seven days.
	From    string
	To      string
	Timeout time.Duration
}

func (s *Service) FetchKline(ctx context.Context, q KlineQuery) (model.KlineResult, error) {
	if s.klines == nil {
		return model.KlineResult{}, clierr.New(clierr.CodeInternal, "kline provider is not configured")
	}
	pairID := strings.TrimSpace(q.PairID)
	if pairID == "" {
		return model.KlineResult{}, clierr.New(clierr.CodeUsage, "pair id is required")
	}
	interval := strings.TrimSpace(q.Interval)
	if interval == "" {
		interval = DefaultKlineInterval
	}
	period, ok := intervalSeconds(interval)
	if !ok {
		names := lo.Map(klineIntervals, func(iv model.KlineInterval, _ int) string { return iv.Name })
		return model.KlineResult{}, clierr.Newf(clierr.CodeUsage, "Invalid interval: %s. Use: %s", interval, strings.Join(names, ", "))
	}

	now := s.now()
	fromMS := now.Add(-DefaultKlineWindow).UnixMilli()
	toMS := now.UnixMilli()
	var err error
	if strings.TrimSpace(q.From) != "" {
		if fromMS, err = ParseTimestamp(q.From); err != nil {
			return model.KlineResult{}, err
		}
	}
	if strings.TrimSpace(q.To) != "" {
		if toMS, err = ParseTimestamp(q.To); err != nil {
			return model.KlineResult{}, err
		}
	}
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = DefaultKlineTimeout
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	bars, err := s.klines.Klines(fetchCtx, providers.KlineRequest{
		ChainID:       s.network.ChainID,
		PairID:        pairID,
		PeriodSeconds: period,
		FromMS:        fromMS,
		ToMS:          toMS,
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return model.KlineResult{}, clierr.Newf(clierr.CodeUnavailable, "K-line fetch timed out after %dms. The pair-id may be invalid.", timeout.Milliseconds())
		}
		return model.KlineResult{}, err
	}
	if bars == nil {
		bars = []model.KlineBar{}
	}
	return model.KlineResult{
		PairID:        pairID,
		Interval:      interval,
		PeriodSeconds: period,
		From:          isoMillis(fromMS),
		To:            isoMillis(toMS),
		Count:         len(bars),
		Bars:          bars,
	}, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp returns unix milliseconds. Numbers above 1e12 are taken
// as milliseconds and numbers above 1e9 as seconds; anything else must be
// a date.
func ParseTimestamp(value string) (int64, error) {
	raw := strings.TrimSpace(value)
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		switch {
		case n > 1e12:
			return int64(n), nil
		case n > 1e9:
			return int64(n * 1000), nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, clierr.Newf(clierr.CodeUsage, "Invalid date: %s", value)
}

func isoMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

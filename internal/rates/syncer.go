package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nadlan/internal/models"
)

// RateSource quotes a base currency in a fixed quote currency.
type RateSource interface {
	GetRate(ctx context.Context, base string) (float64, error)
	QuoteCurrency() string
}

// SettingWriter persists a setting value.
type SettingWriter interface {
	PutSetting(ctx context.Context, key, value string) error
}

// Result summarizes one sync cycle.
type Result struct {
	Pair     string
	Value    string
	Duration time.Duration
}

// Syncer copies the market rate into the exchangeRate setting.
type Syncer struct {
	source RateSource
	writer SettingWriter
	base   string
	log    *zap.SugaredLogger
}

// NewSyncer creates a syncer for base against the source's quote currency.
func NewSyncer(source RateSource, writer SettingWriter, base string, log *zap.SugaredLogger) *Syncer {
	return &Syncer{source: source, writer: writer, base: base, log: log}
}

// Run fetches the current rate, rounds it to four decimal places and stores it.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	pair := s.base + "/" + s.source.QuoteCurrency()

	rate, err := s.source.GetRate(ctx, s.base)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pair, err)
	}
	value := decimal.NewFromFloat(rate).Round(4).String()

	if err := s.writer.PutSetting(ctx, models.SettingExchangeRate, value); err != nil {
		return nil, fmt.Errorf("storing %s: %w", pair, err)
	}

	result := &Result{Pair: pair, Value: value, Duration: time.Since(start)}
	s.log.Infow("exchange rate synced", "pair", pair, "value", value, "duration", result.Duration.String())
	return result, nil
}

// Package filestore persists the risk state as a JSON file. Writes go
// through a temp file and rename so a crash never leaves a torn file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/risk/app"
	"github.com/dpolo-eth/flasharb/business/risk/domain"
	"github.com/dpolo-eth/flasharb/internal/apperror"
	"github.com/dpolo-eth/flasharb/internal/logger"
)

// Ensure Store implements StateStore.
var _ app.StateStore = (*Store)(nil)

// On-disk schema. The daily block resets each UTC day, the total block
// never does; the two booleans encode the state machine position.
// Monetary fields are JSON numbers in USD.
type dailyDTO struct {
	Date                string  `json:"date"`
	GasSpent            float64 `json:"gasSpent"`
	Profit              float64 `json:"profit"`
	Loss                float64 `json:"loss"`
	TradesOK            int     `json:"tradesOk"`
	TradesFailed        int     `json:"tradesFailed"`
	ConsecutiveFailures int     `json:"consecutiveFailures"`
}

type totalDTO struct {
	GasSpent float64 `json:"gasSpent"`
	Profit   float64 `json:"profit"`
	Loss     float64 `json:"loss"`
	Trades   int     `json:"trades"`
}

type stateDTO struct {
	Daily              dailyDTO `json:"daily"`
	Total              totalDTO `json:"total"`
	CircuitBreakerOpen bool     `json:"circuitBreakerOpen"`
	EmergencyStopped   bool     `json:"emergencyStopped"`
}

// Store reads and writes the risk state file.
type Store struct {
	path   string
	logger logger.LoggerInterface
}

// NewStore creates a Store at the given path. Parent directories are
// created on the first save.
func NewStore(path string, log logger.LoggerInterface) *Store {
	return &Store{path: path, logger: log}
}

// Load reads the state file. A missing file is not an error: it means
// no state has been persisted yet.
func (s *Store) Load(ctx context.Context) (*domain.RiskState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperror.New(apperror.CodePersistence,
			apperror.WithCause(err),
			apperror.WithContext("reading risk state file"))
	}

	var dto stateDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, apperror.New(apperror.CodePersistence,
			apperror.WithCause(err),
			apperror.WithContext("parsing risk state file"))
	}

	state := fromDTO(&dto)

	s.logger.Debug(ctx, "risk state loaded", "path", s.path, "day", state.Day)

	return state, nil
}

// Save writes the state atomically: marshal, write a temp file in the
// same directory, then rename over the target.
func (s *Store) Save(ctx context.Context, state *domain.RiskState) error {
	dto := toDTO(state)

	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return apperror.New(apperror.CodePersistence,
			apperror.WithCause(err),
			apperror.WithContext("encoding risk state"))
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperror.New(apperror.CodePersistence,
			apperror.WithCause(err),
			apperror.WithContext("creating state directory"))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return apperror.New(apperror.CodePersistence,
			apperror.WithCause(err),
			apperror.WithContext("creating temp state file"))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperror.New(apperror.CodePersistence,
			apperror.WithCause(err),
			apperror.WithContext("writing temp state file"))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperror.New(apperror.CodePersistence,
			apperror.WithCause(err),
			apperror.WithContext("closing temp state file"))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return apperror.New(apperror.CodePersistence,
			apperror.WithCause(err),
			apperror.WithContext("replacing state file"))
	}

	return nil
}

func toDTO(state *domain.RiskState) *stateDTO {
	return &stateDTO{
		Daily: dailyDTO{
			Date:                state.Day,
			GasSpent:            state.DailyGasSpendUSD.InexactFloat64(),
			Profit:              state.DailyProfitUSD.InexactFloat64(),
			Loss:                state.DailyLossUSD.InexactFloat64(),
			TradesOK:            state.DailyTradesOK,
			TradesFailed:        state.DailyTradesFailed,
			ConsecutiveFailures: state.ConsecutiveFailures,
		},
		Total: totalDTO{
			GasSpent: state.TotalGasSpendUSD.InexactFloat64(),
			Profit:   state.TotalProfitUSD.InexactFloat64(),
			Loss:     state.TotalLossUSD.InexactFloat64(),
			Trades:   state.TradesExecuted,
		},
		CircuitBreakerOpen: state.Status == domain.StatusCircuitOpen,
		EmergencyStopped:   state.Status == domain.StatusEmergencyStopped,
	}
}

func fromDTO(dto *stateDTO) *domain.RiskState {
	// The emergency stop wins when both flags are set: it is the
	// stricter of the two and the only one that survives a rollover.
	status := domain.StatusNormal
	if dto.CircuitBreakerOpen {
		status = domain.StatusCircuitOpen
	}
	if dto.EmergencyStopped {
		status = domain.StatusEmergencyStopped
	}

	return &domain.RiskState{
		Status:              status,
		Day:                 dto.Daily.Date,
		DailyGasSpendUSD:    decimal.NewFromFloat(dto.Daily.GasSpent),
		DailyProfitUSD:      decimal.NewFromFloat(dto.Daily.Profit),
		DailyLossUSD:        decimal.NewFromFloat(dto.Daily.Loss),
		DailyTradesOK:       dto.Daily.TradesOK,
		DailyTradesFailed:   dto.Daily.TradesFailed,
		ConsecutiveFailures: dto.Daily.ConsecutiveFailures,
		TotalGasSpendUSD:    decimal.NewFromFloat(dto.Total.GasSpent),
		TotalProfitUSD:      decimal.NewFromFloat(dto.Total.Profit),
		TotalLossUSD:        decimal.NewFromFloat(dto.Total.Loss),
		TradesExecuted:      dto.Total.Trades,
	}
}

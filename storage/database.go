package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// DATABASE - Decision log, trade history, adaptive threshold state
// ═══════════════════════════════════════════════════════════════════════════════

type Database struct {
	db          *gorm.DB
	decisionCap int
	enabled     bool
}

// Models

// DecisionRecord is one gate output. The log is append-only and capped: the
// oldest rows are trimmed past the cap.
type DecisionRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Symbol     string `gorm:"index"`
	Bias       string
	Mode       string
	Action     string
	Confidence float64
	RR         float64
	PlanValid  bool
	Entry      decimal.Decimal `gorm:"type:decimal(18,8)"`
	Stop       decimal.Decimal `gorm:"type:decimal(18,8)"`
	TP1        decimal.Decimal `gorm:"type:decimal(18,8)"`
	TP2        decimal.Decimal `gorm:"type:decimal(18,8)"`
	RiskPct    float64
	Size       decimal.Decimal `gorm:"type:decimal(20,6)"`
	Commentary string
	CreatedAt  time.Time `gorm:"index"`
}

// TradeRecord is a closed paper trade.
type TradeRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Symbol   string `gorm:"index"`
	Side     string
	Entry    decimal.Decimal `gorm:"type:decimal(18,8)"`
	Exit     decimal.Decimal `gorm:"type:decimal(18,8)"`
	Size     decimal.Decimal `gorm:"type:decimal(20,6)"`
	PnL      decimal.Decimal `gorm:"type:decimal(20,6)"`
	Reason   string
	OpenedAt time.Time
	ClosedAt time.Time `gorm:"index"`
}

// ThresholdState holds the advisory adaptive drift, a single row.
type ThresholdState struct {
	ID                uint `gorm:"primaryKey"`
	SniperDelta       float64
	ContinuationDelta float64
	UpdatedAt         time.Time
}

// New opens the database: a postgres:// DSN connects to PostgreSQL, anything
// else is a SQLite path. An empty path disables persistence entirely.
func New(path string, decisionCap int) (*Database, error) {
	if path == "" {
		log.Warn().Msg("DATABASE_PATH not set, running without persistence")
		return &Database{enabled: false}, nil
	}

	var db *gorm.DB
	var err error

	if strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://") {
		db, err = gorm.Open(postgres.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("💾 Database connected (PostgreSQL)")
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("💾 Database initialized (SQLite)")
	}

	if err := db.AutoMigrate(&DecisionRecord{}, &TradeRecord{}, &ThresholdState{}); err != nil {
		return nil, err
	}

	if decisionCap <= 0 {
		decisionCap = 500
	}
	return &Database{db: db, decisionCap: decisionCap, enabled: true}, nil
}

// Decision log

func (d *Database) SaveDecision(dec types.Decision) error {
	if !d.enabled {
		return nil
	}
	rec := DecisionRecord{
		Symbol:     dec.Symbol,
		Bias:       string(dec.Bias),
		Mode:       string(dec.Mode),
		Action:     string(dec.Action),
		Confidence: dec.Confidence,
		RiskPct:    dec.RiskPct,
		Size:       dec.Size,
		Commentary: dec.Commentary,
		CreatedAt:  dec.CreatedAt,
	}
	if dec.Plan != nil {
		rec.PlanValid = true
		rec.RR = dec.Plan.RR
		rec.Entry = dec.Plan.Entry.Dec
		rec.Stop = dec.Plan.Stop.Dec
		rec.TP1 = dec.Plan.TP1.Dec
		rec.TP2 = dec.Plan.TP2.Dec
	}
	if err := d.db.Create(&rec).Error; err != nil {
		return err
	}
	// Trim past the cap, oldest first.
	return d.db.Exec(
		"DELETE FROM decision_records WHERE id NOT IN (SELECT id FROM decision_records ORDER BY id DESC LIMIT ?)",
		d.decisionCap,
	).Error
}

func (d *Database) RecentDecisions(limit int) ([]DecisionRecord, error) {
	if !d.enabled {
		return nil, nil
	}
	var recs []DecisionRecord
	err := d.db.Order("id DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// FireStats counts decisions and fires over the most recent window of the log.
func (d *Database) FireStats(window int) (total, fires int64, err error) {
	if !d.enabled {
		return 0, 0, nil
	}
	sub := d.db.Model(&DecisionRecord{}).Order("id DESC").Limit(window).Select("action")
	if err = d.db.Table("(?) as recent", sub).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = d.db.Table("(?) as recent", sub).
		Where("action IN ?", []string{string(types.ActionBuyNow), string(types.ActionSellNow)}).
		Count(&fires).Error
	return total, fires, err
}

// Trade history

func (d *Database) SaveTrade(t types.Trade) error {
	if !d.enabled {
		return nil
	}
	return d.db.Create(&TradeRecord{
		Symbol:   t.Symbol,
		Side:     t.Side,
		Entry:    t.Entry,
		Exit:     t.Exit,
		Size:     t.Size,
		PnL:      t.PnL,
		Reason:   t.Reason,
		OpenedAt: t.OpenedAt,
		ClosedAt: t.ClosedAt,
	}).Error
}

func (d *Database) RecentTrades(limit int) ([]TradeRecord, error) {
	if !d.enabled {
		return nil, nil
	}
	var recs []TradeRecord
	err := d.db.Order("closed_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// WinStats counts wins and losses over the most recent trades.
func (d *Database) WinStats(window int) (wins, losses int64, err error) {
	if !d.enabled {
		return 0, 0, nil
	}
	var recs []TradeRecord
	if err = d.db.Order("id DESC").Limit(window).Find(&recs).Error; err != nil {
		return 0, 0, err
	}
	for _, r := range recs {
		if r.PnL.IsPositive() {
			wins++
		} else if r.PnL.IsNegative() {
			losses++
		}
	}
	return wins, losses, nil
}

// Adaptive threshold state

func (d *Database) LoadThresholds() (ThresholdState, error) {
	if !d.enabled {
		return ThresholdState{ID: 1}, nil
	}
	var st ThresholdState
	err := d.db.FirstOrCreate(&st, ThresholdState{ID: 1}).Error
	return st, err
}

func (d *Database) SaveThresholds(st ThresholdState) error {
	if !d.enabled {
		return nil
	}
	st.ID = 1
	st.UpdatedAt = time.Now()
	return d.db.Save(&st).Error
}

// Close releases the underlying connection.
func (d *Database) Close() error {
	if !d.enabled {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/dexscout/pkg/core"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type snapshotRow struct {
	ID        uint       `gorm:"primaryKey"`
	Sequence  int64      `gorm:"index"`
	RunID     string     `gorm:"size:36;index"`
	Timestamp time.Time  `gorm:"index"`
	Count     int        `gorm:"not null"`
	Tokens    []tokenRow `gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
}

func (snapshotRow) TableName() string {
	return "snapshots"
}

type tokenRow struct {
	ID            uint    `gorm:"primaryKey"`
	SnapshotID    uint    `gorm:"index"`
	Position      int     `gorm:"not null"`
	Address       string  `gorm:"size:64;index"`
	Symbol        string  `gorm:"size:64"`
	Name          string  `gorm:"size:255"`
	MarketCap     float64 `gorm:"column:market_cap"`
	Volume5m      float64 `gorm:"column:volume_5m"`
	Liquidity     float64 `gorm:"column:liquidity"`
	PriceUSD      float64 `gorm:"column:price_usd"`
	PairCreatedAt int64   `gorm:"column:created_timestamp"`
	URL           string  `gorm:"size:255"`
	Source        string  `gorm:"size:32"`
	Platform      string  `gorm:"size:32"`
}

func (tokenRow) TableName() string {
	return "snapshot_tokens"
}

// SQLStorage keeps snapshots in a relational database through GORM
type SQLStorage struct {
	db *gorm.DB
}

// FromSQL opens the database and migrates the snapshot tables
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&snapshotRow{}, &tokenRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// Save inserts the snapshot and its tokens in one transaction
func (s *SQLStorage) Save(ctx context.Context, snapshot core.Snapshot) error {
	row := snapshotRow{
		Sequence:  snapshot.Sequence,
		RunID:     snapshot.RunID,
		Timestamp: snapshot.Timestamp,
		Count:     snapshot.Count,
		Tokens: lo.Map(snapshot.Tokens, func(token core.TokenRecord, i int) tokenRow {
			return tokenRow{
				Position:  i,
				Address:   token.Address,
				Symbol:    token.Symbol,
				Name:      token.Name,
				MarketCap: token.MarketCap,
				Volume5m:  token.Volume5m,
				Liquidity: token.Liquidity,
				PriceUSD:  token.PriceUSD,
				URL:       token.URL,
				Source:    token.Source,
				Platform:  token.Platform,

				PairCreatedAt: token.CreatedAt,
			}
		}),
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	return nil
}

// Snapshots loads every snapshot with its tokens and applies filters in memory
func (s *SQLStorage) Snapshots(filters ...core.SnapshotFilter) ([]*core.Snapshot, error) {
	var rows []snapshotRow

	result := s.db.
		Preload("Tokens", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("sequence, id").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", result.Error)
	}

	snapshots := lo.Map(rows, func(row snapshotRow, _ int) *core.Snapshot {
		return &core.Snapshot{
			Sequence:  row.Sequence,
			RunID:     row.RunID,
			Timestamp: row.Timestamp,
			Count:     row.Count,
			Tokens: lo.Map(row.Tokens, func(token tokenRow, _ int) core.TokenRecord {
				return core.TokenRecord{
					Address:   token.Address,
					Symbol:    token.Symbol,
					Name:      token.Name,
					MarketCap: token.MarketCap,
					Volume5m:  token.Volume5m,
					Liquidity: token.Liquidity,
					PriceUSD:  token.PriceUSD,
					CreatedAt: token.PairCreatedAt,
					URL:       token.URL,
					Source:    token.Source,
					Platform:  token.Platform,
				}
			}),
		}
	})

	return lo.Filter(snapshots, func(snapshot *core.Snapshot, _ int) bool {
		return matches(*snapshot, filters)
	}), nil
}

func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}

var _ core.SnapshotStorage = (*SQLStorage)(nil)

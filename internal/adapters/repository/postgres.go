package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// journalEntryModel maps to the journal_entries table.
type journalEntryModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Text      string    `gorm:"not null"`
	Mood      string    `gorm:"not null"`
	TopLabel  string    `gorm:"not null;size:32"`
	Level     string    `gorm:"not null;size:16"`
	Days      int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (journalEntryModel) TableName() string {
	return "journal_entries"
}

func entryToModel(e Entry) journalEntryModel {
	return journalEntryModel{
		ID:        e.ID,
		Text:      e.Text,
		Mood:      e.Mood,
		TopLabel:  e.TopLabel,
		Level:     e.Level,
		Days:      e.Days,
		CreatedAt: e.CreatedAt.UTC(),
	}
}

func entryFromModel(m journalEntryModel) Entry {
	return Entry{
		ID:        m.ID,
		Text:      m.Text,
		Mood:      m.Mood,
		TopLabel:  m.TopLabel,
		Level:     m.Level,
		Days:      m.Days,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// PostgresStore keeps entries in PostgreSQL through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// OpenPostgres connects to databaseURL, pings it and migrates the table.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&journalEntryModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	record := entryToModel(e)
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	var records []journalEntryModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		out = append(out, entryFromModel(r))
	}
	return out, nil
}

func (s *PostgresStore) Prune(ctx context.Context, before time.Time) (int, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&journalEntryModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&journalEntryModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count journal: %w", err)
	}
	return int(n), nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

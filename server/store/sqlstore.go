package store

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/server/internal/peer"
)

type SqlStore struct {
	db *gorm.DB
}

func NewSqlStore(path string) (*SqlStore, error) {
	if path == "" {
		return nil, errors.New("sqlite db file path required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(1)"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	if path == ":memory:" {
		// every pooled connection would otherwise open its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}

	return &SqlStore{db: db}, nil
}

func (s *SqlStore) RecordCreated(ctx context.Context, p peer.Peer) error {
	rec := recordFromPeer(p)
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *SqlStore) RecordEvicted(ctx context.Context, key keys.PublicKey, at time.Time, cause string) error {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("public_key = ? AND evict_cause = ?", key.EncodeToString(), "").
		Order("id desc").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return s.db.WithContext(ctx).Model(&rec).Updates(map[string]any{
		"evicted_at":  at,
		"evict_cause": cause,
	}).Error
}

func (s *SqlStore) ListRecords(ctx context.Context, limit int) ([]Record, error) {
	records := make([]Record, 0)
	err := s.db.WithContext(ctx).
		Order("id desc").
		Limit(normalizeLimit(limit)).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *SqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

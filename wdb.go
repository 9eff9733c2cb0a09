package hns

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/hotdogs-ns/hns/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	sqliteName = "hns.sqlite"
)

// Wdb is the SQL activity archive.
type Wdb struct {
	Db *gorm.DB
}

func NewMysqlDb(dsn string) (*Wdb, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 200,
	})
	if err != nil {
		return nil, err
	}
	log.Info("connect mysql db success")
	return &Wdb{Db: db}, nil
}

func NewSqliteDb(dbDir string) (*Wdb, error) {
	if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, sqliteName)), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 200,
	})
	if err != nil {
		return nil, err
	}
	log.Info("connect sqlite db success", "dir", dbDir)
	return &Wdb{Db: db}, nil
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.ArchivedEvent{})
}

func toArchived(ev schema.ActivityEvent) (schema.ArchivedEvent, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return schema.ArchivedEvent{}, fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	return schema.ArchivedEvent{
		EventId:     ev.ID,
		Tld:         ev.Tld,
		Type:        ev.Type,
		Domain:      ev.Domain,
		TxHash:      ev.TxHash,
		BlockNumber: ev.BlockNumber,
		TokenId:     ev.TokenId,
		Timestamp:   ev.Timestamp,
		From:        ev.From,
		To:          ev.To,
		Expiration:  ev.Expiration,
		Raw:         raw,
	}, nil
}

// InsertEvents stores events, ignoring ids already archived.
// It returns the rows actually written.
func (w *Wdb) InsertEvents(events []schema.ActivityEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	rows := make([]schema.ArchivedEvent, 0, len(events))
	for _, ev := range events {
		row, err := toArchived(ev)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	res := w.Db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	return res.RowsAffected, res.Error
}

// GetEvents pages through the archive of tld, newest first. page starts at 1.
func (w *Wdb) GetEvents(tld string, page, limit int) ([]schema.ArchivedEvent, error) {
	if page < 1 {
		page = 1
	}
	res := make([]schema.ArchivedEvent, 0, limit)
	err := w.Db.Model(&schema.ArchivedEvent{}).Where("tld = ?", tld).
		Order("timestamp desc").Order("id desc").
		Limit(limit).Offset((page - 1) * limit).Find(&res).Error
	return res, err
}

func (w *Wdb) CountEvents(tld string) (int64, error) {
	var n int64
	err := w.Db.Model(&schema.ArchivedEvent{}).Where("tld = ?", tld).Count(&n).Error
	return n, err
}

func (w *Wdb) Close() {
	sqlDb, err := w.Db.DB()
	if err != nil {
		return
	}
	sqlDb.Close()
}

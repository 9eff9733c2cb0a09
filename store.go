package hns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/hotdogs-ns/hns/rawdb"
	"github.com/hotdogs-ns/hns/schema"
)

// Store keeps the sync state of the service: the last TLD snapshot and the
// per-TLD archive cursors.
type Store struct {
	KVDb rawdb.KeyValueDB
}

func NewBoltStore(boltDirPath string) (*Store, error) {
	Db, err := rawdb.NewBoltDB(boltDirPath)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: Db}, nil
}

func NewMongoStore(ctx context.Context, uri, database string) (*Store, error) {
	Db, err := rawdb.NewMongoDB(ctx, uri, database)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: Db}, nil
}

func (s *Store) Close() error {
	return s.KVDb.Close()
}

func tldKey(i int) string {
	return fmt.Sprintf("%06d", i)
}

// SaveTlds replaces the persisted snapshot with entries, keeping their order.
func (s *Store) SaveTlds(entries []schema.TldEntry, at time.Time) error {
	kvs := make(map[string][]byte, len(entries))
	for i, e := range entries {
		by, err := json.Marshal(e)
		if err != nil {
			return err
		}
		kvs[tldKey(i)] = by
	}
	if err := s.KVDb.Replace(schema.TldBucket, kvs); err != nil {
		return err
	}
	return s.KVDb.Put(schema.ConstantsBucket, schema.TldSnapshotTimeKey, []byte(strconv.FormatInt(at.Unix(), 10)))
}

// LoadTlds returns the persisted snapshot; a store that never saw one returns
// an empty list and the zero time.
func (s *Store) LoadTlds() ([]schema.TldEntry, time.Time, error) {
	keys, err := s.KVDb.GetAllKey(schema.TldBucket)
	if err != nil {
		return nil, time.Time{}, err
	}
	sort.Strings(keys)
	entries := make([]schema.TldEntry, 0, len(keys))
	for _, k := range keys {
		by, err := s.KVDb.Get(schema.TldBucket, k)
		if err != nil {
			return nil, time.Time{}, err
		}
		e := schema.TldEntry{}
		if err := json.Unmarshal(by, &e); err != nil {
			return nil, time.Time{}, err
		}
		entries = append(entries, e)
	}

	by, err := s.KVDb.Get(schema.ConstantsBucket, schema.TldSnapshotTimeKey)
	if errors.Is(err, schema.ErrNotExist) {
		return entries, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	sec, err := strconv.ParseInt(string(by), 10, 64)
	if err != nil {
		return nil, time.Time{}, err
	}
	return entries, time.Unix(sec, 0), nil
}

func (s *Store) SaveArchiveCursor(tld string, block uint64) error {
	return s.KVDb.Put(schema.ArchiveCursorBucket, tld, []byte(strconv.FormatUint(block, 10)))
}

// LoadArchiveCursor returns the next block to archive for tld, 0 when none.
func (s *Store) LoadArchiveCursor(tld string) (uint64, error) {
	by, err := s.KVDb.Get(schema.ArchiveCursorBucket, tld)
	if errors.Is(err, schema.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(by), 10, 64)
}

package rawdb

import (
	"errors"
	"fmt"
	"os"
	"path"
	"reflect"
	"time"

	"github.com/hotdogs-ns/hns/schema"
	bolt "go.etcd.io/bbolt"
)

const (
	boltName = "hns.db"
	BoltType = "boltdb"
)

// BoltDB is the single-node sync store. The service writes a handful of keys
// per job run, so every call is its own transaction.
type BoltDB struct {
	Db *bolt.DB
}

func NewBoltDB(boltDirPath string) (*BoltDB, error) {
	if len(boltDirPath) == 0 {
		return nil, errors.New("boltDb dir path can not null")
	}
	if err := os.MkdirAll(boltDirPath, os.ModePerm); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path.Join(boltDirPath, boltName), 0660, &bolt.Options{Timeout: 2 * time.Second})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("%s is locked by another hns process", path.Join(boltDirPath, boltName))
	}
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range bucketNames() {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info("run with bolt db", "dir", boltDirPath)
	return &BoltDB{Db: db}, nil
}

func (s *BoltDB) Type() string {
	return BoltType
}

func bucketOf(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	bkt := tx.Bucket([]byte(name))
	if bkt == nil {
		return nil, fmt.Errorf("%w: %s", bolt.ErrBucketNotFound, name)
	}
	return bkt, nil
}

func asBytes(value interface{}) ([]byte, error) {
	by, ok := value.([]byte)
	if !ok {
		return nil, fmt.Errorf("unknown data type: %s, db: bolt db", reflect.TypeOf(value))
	}
	return by, nil
}

func (s *BoltDB) Put(bucket, key string, value interface{}) error {
	by, err := asBytes(value)
	if err != nil {
		return err
	}
	return s.Db.Update(func(tx *bolt.Tx) error {
		bkt, err := bucketOf(tx, bucket)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(key), by)
	})
}

// Replace swaps the whole content of bucket for kvs in one transaction.
func (s *BoltDB) Replace(bucket string, kvs map[string][]byte) error {
	return s.Db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucket)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		bkt, err := tx.CreateBucket([]byte(bucket))
		if err != nil {
			return err
		}
		for k, v := range kvs {
			if err := bkt.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltDB) Get(bucket, key string) (data []byte, err error) {
	err = s.Db.View(func(tx *bolt.Tx) error {
		bkt, err := bucketOf(tx, bucket)
		if err != nil {
			return err
		}
		val := bkt.Get([]byte(key))
		if val == nil {
			return schema.ErrNotExist
		}
		// bolt values are only valid inside the tx
		data = append([]byte(nil), val...)
		return nil
	})
	return
}

// GetAllKey returns the keys in byte order.
func (s *BoltDB) GetAllKey(bucket string) ([]string, error) {
	keys := make([]string, 0)
	err := s.Db.View(func(tx *bolt.Tx) error {
		bkt, err := bucketOf(tx, bucket)
		if err != nil {
			return err
		}
		c := bkt.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

func (s *BoltDB) Delete(bucket, key string) error {
	return s.Db.Update(func(tx *bolt.Tx) error {
		bkt, err := bucketOf(tx, bucket)
		if err != nil {
			return err
		}
		return bkt.Delete([]byte(key))
	})
}

func (s *BoltDB) Exist(bucket, key string) bool {
	found := false
	s.Db.View(func(tx *bolt.Tx) error {
		if bkt := tx.Bucket([]byte(bucket)); bkt != nil {
			found = bkt.Get([]byte(key)) != nil
		}
		return nil
	})
	return found
}

func (s *BoltDB) Close() error {
	return s.Db.Close()
}

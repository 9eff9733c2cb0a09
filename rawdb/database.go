package rawdb

import (
	"github.com/hotdogs-ns/hns/common"
	"github.com/hotdogs-ns/hns/schema"
)

var log = common.NewLog("rawdb")

type KeyValueDB interface {
	Put(bucket, key string, value interface{}) (err error)

	// Replace swaps the content of bucket for kvs.
	Replace(bucket string, kvs map[string][]byte) (err error)

	Get(bucket, key string) (data []byte, err error)

	GetAllKey(bucket string) (keys []string, err error)

	Delete(bucket, key string) (err error)

	Close() (err error)

	Type() string

	Exist(bucket, key string) bool
}

func bucketNames() []string {
	return []string{
		schema.TldBucket,
		schema.ConstantsBucket,
		schema.ArchiveCursorBucket,
	}
}

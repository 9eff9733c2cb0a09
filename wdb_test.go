package hns

import (
	"encoding/json"
	"testing"

	"github.com/hotdogs-ns/hns/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWdb(t *testing.T) *Wdb {
	db, err := NewSqliteDb(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(db.Close)
	return db
}

func TestWdb_InsertEvents(t *testing.T) {
	db := newTestWdb(t)
	events := []schema.ActivityEvent{
		{ID: "0xa-0", Type: schema.ActivityRegister, Domain: "alice", Tld: "hotdogs", Timestamp: 10, BlockNumber: 1},
		{ID: "0xb-0", Type: schema.ActivityRenew, Domain: "alice", Tld: "hotdogs", Timestamp: 30, BlockNumber: 3},
		{ID: "0xc-0", Type: schema.ActivityTransfer, Domain: "bob", Tld: "hotdogs", Timestamp: 20, BlockNumber: 2, From: "0x1", To: "0x2"},
		{ID: "0xd-0", Type: schema.ActivityExpire, Domain: "carol", Tld: "abs", Timestamp: 40, BlockNumber: 4},
	}
	n, err := db.InsertEvents(events)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// re-archiving the same ids is a no-op
	n, err = db.InsertEvents(events[:2])
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	total, err := db.CountEvents("hotdogs")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	page, err := db.GetEvents("hotdogs", 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "0xb-0", page[0].EventId)
	assert.Equal(t, "0xc-0", page[1].EventId)
	assert.Equal(t, events[2], page[1].Event())

	page, err = db.GetEvents("hotdogs", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uint64(10), page[0].Timestamp)
}

func TestToArchived_KeepsRawEvent(t *testing.T) {
	ev := schema.ActivityEvent{ID: "0xa-1", Type: schema.ActivityRenew, Domain: "alice", Tld: "hotdogs", Expiration: "900"}
	row, err := toArchived(ev)
	require.NoError(t, err)
	assert.Equal(t, ev, row.Event())

	got := schema.ActivityEvent{}
	require.NoError(t, json.Unmarshal([]byte(row.Raw), &got))
	assert.Equal(t, ev, got)
}

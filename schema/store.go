package schema

var (
	// bucket
	TldBucket           = "tld-bucket"            // key: zero-padded enumeration index, val: json(TldEntry)
	ConstantsBucket     = "constants-bucket"      // key: constant name, val: raw bytes
	ArchiveCursorBucket = "archive-cursor-bucket" // key: tld, val: next block number to archive
)

const (
	TldSnapshotTimeKey = "tld-snapshot-time"
)

package audit

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the Mongo collection backing the import audit log. The
// master repository writes into it inside the publish transaction, so the
// name is shared rather than private to this package.
const Collection = "import_audit_logs"

type EntryStatus string

const (
	StatusSuccess EntryStatus = "success"
	StatusPartial EntryStatus = "partial"
	StatusFailed  EntryStatus = "failed"
)

type Action string

const (
	ActionPublish Action = "publish"
)

// ImportAuditLog is one append-only record of a publish action. Entries are
// never updated or deleted after creation.
type ImportAuditLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	Actor        string             `bson:"actor" json:"actor"`
	Action       Action             `bson:"action" json:"action"`
	Master       string             `bson:"master" json:"master"`
	RecordCount  int                `bson:"record_count" json:"record_count"`
	Status       EntryStatus        `bson:"status" json:"status"`
	SuccessCount int                `bson:"success_count" json:"success_count"`
	SkippedCount int                `bson:"skipped_count" json:"skipped_count"`
	ErrorCount   int                `bson:"error_count" json:"error_count"`
	ErrorMessage string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
}

// QueryFilters narrows audit queries. Zero values mean "no filter".
type QueryFilters struct {
	Master       string
	Status       EntryStatus
	UserContains string
	From         time.Time
	To           time.Time
}

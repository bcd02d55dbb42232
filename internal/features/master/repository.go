package master

import (
	"context"
	"time"

	"go-erp/internal/database"
	"go-erp/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	recordsCollection = "master_records"
	statusCollection  = "master_status"
)

// ReferencedCreate is a new record for a referenced master, produced by a
// CreateNew conflict resolution. Inserted before the importing rows so the
// rows can point at its id.
type ReferencedCreate struct {
	Master string
	Label  string
}

// BulkApplyInput is the atomic commit unit of a publish. Everything in it
// becomes visible together or not at all.
type BulkApplyInput struct {
	Master string
	Actor  string
	// RefFields maps record field keys to the master they reference, for
	// rewriting raw labels to created record ids.
	RefFields map[string]string
	Creates   []ReferencedCreate
	Records   []Record
	Audit     audit.ImportAuditLog
}

type BulkApplyResult struct {
	Inserted    int   `json:"inserted"`
	CreatedRefs int   `json:"created_refs"`
	State       State `json:"state"`
}

type MasterRepository interface {
	ListExisting(ctx context.Context, masterKey string) ([]RecordOption, error)
	States(ctx context.Context) (map[string]State, error)
	CountRecords(ctx context.Context, masterKey string) (int64, error)
	SetRecordCount(ctx context.Context, masterKey string, count int64) error
	BulkApply(ctx context.Context, input BulkApplyInput) (BulkApplyResult, error)
	EnsureIndexes(ctx context.Context) error
}

type MasterRepositoryImpl struct {
	client   *mongo.Client
	records  *mongo.Collection
	status   *mongo.Collection
	auditCol *mongo.Collection
	registry *Registry
}

func NewMasterRepository(mongodb *database.MongodbDB, registry *Registry) MasterRepository {
	return &MasterRepositoryImpl{
		client:   mongodb.Client,
		records:  mongodb.DB.Collection(recordsCollection),
		status:   mongodb.DB.Collection(statusCollection),
		auditCol: mongodb.DB.Collection(audit.Collection),
		registry: registry,
	}
}

func (r *MasterRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.records.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "master", Value: 1}, {Key: "label", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = r.status.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "master", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MasterRepositoryImpl) ListExisting(ctx context.Context, masterKey string) ([]RecordOption, error) {
	opts := options.Find().SetSort(bson.M{"label": 1})
	cursor, err := r.records.Find(ctx, bson.M{"master": masterKey}, opts)
	if err != nil {
		return nil, err
	}
	var recs []Record
	if err = cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	out := make([]RecordOption, 0, len(recs))
	for _, rec := range recs {
		out = append(out, RecordOption{ID: rec.ID.Hex(), Label: rec.Label})
	}
	return out, nil
}

func (r *MasterRepositoryImpl) States(ctx context.Context) (map[string]State, error) {
	cursor, err := r.status.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var states []State
	if err = cursor.All(ctx, &states); err != nil {
		return nil, err
	}
	out := make(map[string]State, len(states))
	for _, s := range states {
		out[s.Master] = s
	}
	return out, nil
}

func (r *MasterRepositoryImpl) CountRecords(ctx context.Context, masterKey string) (int64, error) {
	return r.records.CountDocuments(ctx, bson.M{"master": masterKey})
}

func (r *MasterRepositoryImpl) SetRecordCount(ctx context.Context, masterKey string, count int64) error {
	_, err := r.status.UpdateOne(ctx,
		bson.M{"master": masterKey},
		bson.M{"$set": bson.M{"record_count": count, "updated_at": time.Now()}},
	)
	return err
}

// BulkApply runs the whole publish write set in one Mongo transaction:
// referenced-record creates, row inserts, status transition and the audit
// append. A failure aborts the transaction and surfaces as StoreError with
// nothing committed.
func (r *MasterRepositoryImpl) BulkApply(ctx context.Context, input BulkApplyInput) (BulkApplyResult, error) {
	var result BulkApplyResult

	session, err := r.client.StartSession()
	if err != nil {
		return result, &StoreError{Op: "session", Err: err}
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now()

		// 1. Insert referenced-record creates and remember their ids.
		createdIDs := make(map[string]string, len(input.Creates))
		createsPerMaster := make(map[string]int)
		for _, c := range input.Creates {
			refType, err := r.registry.Get(c.Master)
			if err != nil {
				return nil, err
			}
			rec := Record{
				ID:        primitive.NewObjectID(),
				Master:    c.Master,
				Label:     c.Label,
				Fields:    map[string]string{refType.LabelField: c.Label},
				CreatedBy: input.Actor,
				CreatedAt: now,
			}
			if _, err := r.records.InsertOne(sc, rec); err != nil {
				return nil, err
			}
			createdIDs[c.Master+"\x00"+NormalizeValue(c.Label)] = rec.ID.Hex()
			createsPerMaster[c.Master]++
		}

		// 2. Rewrite reference cells still holding a created label.
		docs := make([]interface{}, 0, len(input.Records))
		for _, rec := range input.Records {
			for field, refMaster := range input.RefFields {
				v := rec.Fields[field]
				if v == "" {
					continue
				}
				if id, ok := createdIDs[refMaster+"\x00"+NormalizeValue(v)]; ok {
					rec.Fields[field] = id
				}
			}
			if rec.ID.IsZero() {
				rec.ID = primitive.NewObjectID()
			}
			rec.Master = input.Master
			rec.CreatedBy = input.Actor
			rec.CreatedAt = now
			docs = append(docs, rec)
		}
		if len(docs) > 0 {
			if _, err := r.records.InsertMany(sc, docs); err != nil {
				return nil, err
			}
		}

		// 3. Status transition for the published master.
		var prev State
		err := r.status.FindOne(sc, bson.M{"master": input.Master}).Decode(&prev)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, err
		}
		next := ApplyCompletion(prev, input.Master, len(docs), now)
		_, err = r.status.UpdateOne(sc,
			bson.M{"master": input.Master},
			bson.M{"$set": next},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return nil, err
		}

		// 4. Referenced masters only accumulate count; their status is
		// owned by their own imports.
		for m, n := range createsPerMaster {
			_, err = r.status.UpdateOne(sc,
				bson.M{"master": m},
				bson.M{
					"$inc":         bson.M{"record_count": n},
					"$set":         bson.M{"updated_at": now},
					"$setOnInsert": bson.M{"status": StatusNotStarted},
				},
				options.Update().SetUpsert(true),
			)
			if err != nil {
				return nil, err
			}
		}

		// 5. Audit append, inside the same transaction.
		entry := input.Audit
		if entry.ID.IsZero() {
			entry.ID = primitive.NewObjectID()
		}
		if _, err := r.auditCol.InsertOne(sc, entry); err != nil {
			return nil, err
		}

		result = BulkApplyResult{
			Inserted:    len(docs),
			CreatedRefs: len(input.Creates),
			State:       next,
		}
		return nil, nil
	})
	if err != nil {
		return BulkApplyResult{}, &StoreError{Op: "bulk_apply", Err: err}
	}

	return result, nil
}

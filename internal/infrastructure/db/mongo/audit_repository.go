package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/military-registry/personnel-api/internal/core/domain"
)

const auditCollection = "personnel_audit"

// AuditRepository stores the change history of personnel records.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(auditCollection)}
}

type mongoAuditEvent struct {
	ID          string    `bson:"_id"`
	Action      string    `bson:"action"`
	PersonnelID string    `bson:"personnelId"`
	ActorID     string    `bson:"actorId"`
	ActorRole   string    `bson:"actorRole"`
	Fields      []string  `bson:"fields,omitempty"`
	Timestamp   time.Time `bson:"timestamp"`
}

// Insert persists one event. Re-inserting an existing event id is a no-op.
func (r *AuditRepository) Insert(ctx context.Context, e *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, mongoAuditEvent{
		ID:          e.ID,
		Action:      string(e.Action),
		PersonnelID: e.PersonnelID,
		ActorID:     e.ActorID,
		ActorRole:   string(e.ActorRole),
		Fields:      e.Fields,
		Timestamp:   e.Timestamp.UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByPersonnel returns up to limit events for a record, newest first.
func (r *AuditRepository) ListByPersonnel(ctx context.Context, personnelID string, limit int) ([]*domain.AuditEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, bson.M{"personnelId": personnelID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAuditEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]*domain.AuditEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, &domain.AuditEvent{
			ID:          d.ID,
			Action:      domain.AuditAction(d.Action),
			PersonnelID: d.PersonnelID,
			ActorID:     d.ActorID,
			ActorRole:   domain.Role(d.ActorRole),
			Fields:      d.Fields,
			Timestamp:   d.Timestamp,
		})
	}
	return events, nil
}

func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "personnelId", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

package mongo

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/military-registry/personnel-api/internal/core/domain"
	"github.com/military-registry/personnel-api/internal/core/ports"
)

const (
	personnelCollection = "militarypersonnels"
	topGroups           = 5
	recentAdditions     = 5
)

// PersonnelRepository implements ports.PersonnelRepository on MongoDB.
type PersonnelRepository struct {
	col *mongo.Collection
}

func NewPersonnelRepository(db *mongo.Database) *PersonnelRepository {
	return &PersonnelRepository{col: db.Collection(personnelCollection)}
}

type mongoContact struct {
	Name         string `bson:"name,omitempty"`
	Phone        string `bson:"phone,omitempty"`
	Relationship string `bson:"relationship,omitempty"`
}

type mongoMedical struct {
	BloodType   string `bson:"bloodType,omitempty"`
	Allergies   string `bson:"allergies,omitempty"`
	Medications string `bson:"medications,omitempty"`
}

type mongoPersonnel struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	MilitaryID       string             `bson:"militaryId"`
	LastName         string             `bson:"lastName"`
	FirstName        string             `bson:"firstName"`
	MiddleName       string             `bson:"middleName,omitempty"`
	BirthDate        time.Time          `bson:"birthDate"`
	Rank             string             `bson:"rank"`
	Position         string             `bson:"position"`
	Unit             string             `bson:"unit"`
	Phone            string             `bson:"phone,omitempty"`
	Email            string             `bson:"email,omitempty"`
	Address          string             `bson:"address,omitempty"`
	EmergencyContact *mongoContact      `bson:"emergencyContact,omitempty"`
	MedicalInfo      *mongoMedical      `bson:"medicalInfo,omitempty"`
	ServiceStartDate time.Time          `bson:"serviceStartDate"`
	Status           string             `bson:"status"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

func toMongoPersonnel(p *domain.Personnel) mongoPersonnel {
	return mongoPersonnel{
		MilitaryID:       p.MilitaryID,
		LastName:         p.LastName,
		FirstName:        p.FirstName,
		MiddleName:       p.MiddleName,
		BirthDate:        p.BirthDate.UTC(),
		Rank:             p.Rank,
		Position:         p.Position,
		Unit:             p.Unit,
		Phone:            p.Phone,
		Email:            p.Email,
		Address:          p.Address,
		EmergencyContact: toMongoContact(p.EmergencyContact),
		MedicalInfo:      toMongoMedical(p.MedicalInfo),
		ServiceStartDate: p.ServiceStartDate.UTC(),
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt.UTC(),
		UpdatedAt:        p.UpdatedAt.UTC(),
	}
}

func toMongoContact(c *domain.EmergencyContact) *mongoContact {
	if c == nil {
		return nil
	}
	return &mongoContact{Name: c.Name, Phone: c.Phone, Relationship: c.Relationship}
}

func toMongoMedical(m *domain.MedicalInfo) *mongoMedical {
	if m == nil {
		return nil
	}
	return &mongoMedical{BloodType: m.BloodType, Allergies: m.Allergies, Medications: m.Medications}
}

func (mp *mongoPersonnel) toDomain() *domain.Personnel {
	p := &domain.Personnel{
		ID:               mp.ID.Hex(),
		MilitaryID:       mp.MilitaryID,
		LastName:         mp.LastName,
		FirstName:        mp.FirstName,
		MiddleName:       mp.MiddleName,
		BirthDate:        mp.BirthDate,
		Rank:             mp.Rank,
		Position:         mp.Position,
		Unit:             mp.Unit,
		Phone:            mp.Phone,
		Email:            mp.Email,
		Address:          mp.Address,
		ServiceStartDate: mp.ServiceStartDate,
		Status:           domain.PersonnelStatus(mp.Status),
		CreatedAt:        mp.CreatedAt,
		UpdatedAt:        mp.UpdatedAt,
	}
	if c := mp.EmergencyContact; c != nil {
		p.EmergencyContact = &domain.EmergencyContact{Name: c.Name, Phone: c.Phone, Relationship: c.Relationship}
	}
	if m := mp.MedicalInfo; m != nil {
		p.MedicalInfo = &domain.MedicalInfo{BloodType: m.BloodType, Allergies: m.Allergies, Medications: m.Medications}
	}
	return p
}

// Create inserts a new personnel document.
func (r *PersonnelRepository) Create(ctx context.Context, p *domain.Personnel) (*domain.Personnel, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	doc := toMongoPersonnel(p)
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateMilitaryID
		}
		return nil, fmt.Errorf("insert personnel: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *PersonnelRepository) FindByID(ctx context.Context, id string) (*domain.Personnel, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc mongoPersonnel
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrPersonnelNotFound
		}
		return nil, fmt.Errorf("find personnel: %w", err)
	}
	return doc.toDomain(), nil
}

// Update sets the patched fields plus updatedAt and returns the new document.
func (r *PersonnelRepository) Update(ctx context.Context, id string, patch domain.PersonnelPatch) (*domain.Personnel, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := patchToSet(patch)
	set["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoPersonnel
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		switch {
		case isNoDocuments(err):
			return nil, domain.ErrPersonnelNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrDuplicateMilitaryID
		}
		return nil, fmt.Errorf("update personnel: %w", err)
	}
	return doc.toDomain(), nil
}

func patchToSet(p domain.PersonnelPatch) bson.M {
	set := bson.M{}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	str("militaryId", p.MilitaryID)
	str("lastName", p.LastName)
	str("firstName", p.FirstName)
	str("middleName", p.MiddleName)
	str("rank", p.Rank)
	str("position", p.Position)
	str("unit", p.Unit)
	str("phone", p.Phone)
	str("email", p.Email)
	str("address", p.Address)
	if p.BirthDate != nil {
		set["birthDate"] = p.BirthDate.UTC()
	}
	if p.ServiceStartDate != nil {
		set["serviceStartDate"] = p.ServiceStartDate.UTC()
	}
	if p.EmergencyContact != nil {
		set["emergencyContact"] = toMongoContact(p.EmergencyContact)
	}
	if p.MedicalInfo != nil {
		set["medicalInfo"] = toMongoMedical(p.MedicalInfo)
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	return set
}

func (r *PersonnelRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete personnel: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPersonnelNotFound
	}
	return nil
}

func listFilter(f ports.ListPersonnelFilter) bson.M {
	filter := bson.M{}
	if f.Unit != "" {
		filter["unit"] = f.Unit
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"lastName": re},
			bson.M{"firstName": re},
			bson.M{"militaryId": re},
		}
	}
	return filter
}

// List returns a page of records, newest first, and the total match count.
func (r *PersonnelRepository) List(ctx context.Context, f ports.ListPersonnelFilter) ([]*domain.Personnel, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := listFilter(f)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip(f.Page, f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list personnel: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoPersonnel
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode personnel: %w", err)
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count personnel: %w", err)
	}

	items := make([]*domain.Personnel, 0, len(docs))
	for i := range docs {
		items = append(items, docs[i].toDomain())
	}
	return items, total, nil
}

// Units returns the distinct unit names.
func (r *PersonnelRepository) Units(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	values, err := r.col.Distinct(ctx, "unit", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct units: %w", err)
	}
	units := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			units = append(units, s)
		}
	}
	return units, nil
}

// Statistics runs the counts and group-bys concurrently.
func (r *PersonnelRepository) Statistics(ctx context.Context, unit string) (*domain.PersonnelStatistics, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := bson.M{}
	if unit != "" {
		base["unit"] = unit
	}
	withStatus := func(s domain.PersonnelStatus) bson.M {
		m := bson.M{"status": string(s)}
		for k, v := range base {
			m[k] = v
		}
		return m
	}
	bloodMatch := bson.M{"medicalInfo.bloodType": bson.M{"$nin": bson.A{nil, ""}}}
	for k, v := range base {
		bloodMatch[k] = v
	}

	var stats domain.PersonnelStatistics
	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int64, filter bson.M) func() error {
		return func() error {
			n, err := r.col.CountDocuments(gctx, filter)
			if err != nil {
				return fmt.Errorf("count personnel: %w", err)
			}
			*dst = n
			return nil
		}
	}
	g.Go(count(&stats.Total, base))
	g.Go(count(&stats.Active, withStatus(domain.StatusActive)))
	g.Go(count(&stats.Inactive, withStatus(domain.StatusInactive)))
	g.Go(count(&stats.OnLeave, withStatus(domain.StatusLeave)))

	g.Go(func() (err error) {
		stats.RankStats, err = r.groupCount(gctx, base, "$rank", topGroups)
		return err
	})
	g.Go(func() (err error) {
		stats.UnitStats, err = r.groupCount(gctx, base, "$unit", topGroups)
		return err
	})
	g.Go(func() (err error) {
		stats.BloodTypeStats, err = r.groupCount(gctx, bloodMatch, "$medicalInfo.bloodType", 0)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentAdditions, err = r.recent(gctx, base)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// groupCount groups match by field and sorts by count descending. limit <= 0
// returns every group.
func (r *PersonnelRepository) groupCount(ctx context.Context, match bson.M, field string, limit int) ([]domain.GroupCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: field}, {Key: "count", Value: bson.M{"$sum": 1}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", field, err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s groups: %w", field, err)
	}

	out := make([]domain.GroupCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.GroupCount{Key: row.Key, Count: row.Count})
	}
	return out, nil
}

func (r *PersonnelRepository) recent(ctx context.Context, filter bson.M) ([]domain.PersonnelSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(recentAdditions).
		SetProjection(bson.M{"firstName": 1, "lastName": 1, "rank": 1, "createdAt": 1})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("recent personnel: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoPersonnel
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode recent personnel: %w", err)
	}

	out := make([]domain.PersonnelSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.PersonnelSummary{
			ID:        d.ID.Hex(),
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Rank:      d.Rank,
			CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

// EnsureIndexes creates the search and uniqueness indexes.
func (r *PersonnelRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}}},
		{Keys: bson.D{{Key: "militaryId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "unit", Value: 1}}},
	})
	return err
}

// skip returns the documents to skip for a 1-based page, never negative.
func skip(page, limit int) int64 {
	if page < 1 || limit < 1 {
		return 0
	}
	n := int64(page-1) * int64(limit)
	if n < 0 || n/int64(limit) != int64(page-1) {
		return math.MaxInt64
	}
	return n
}

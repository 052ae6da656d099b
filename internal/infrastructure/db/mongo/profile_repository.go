package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/account-dashboard/internal/core/domain"
)

const collectionProfiles = "profiles"

// ProfileRepository implements ports.ProfileRepository and
// ports.ProfileProvisioner using MongoDB. Profiles are keyed by user ID.
type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(collectionProfiles)}
}

type profileDocument struct {
	ID        string    `bson:"_id"`
	FirstName *string   `bson:"first_name,omitempty"`
	LastName  *string   `bson:"last_name,omitempty"`
	Email     *string   `bson:"email,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d profileDocument) toDomain() *domain.Profile {
	return &domain.Profile{
		ID:        d.ID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Fetch returns the profile of userID.
func (r *ProfileRepository) Fetch(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc profileDocument
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("fetch profile: %w: %w", domain.ErrTransient, err)
	}
	return doc.toDomain(), nil
}

// Update applies patch in a single atomic write. The stored updated_at
// becomes max(now, previous+1ms) so it strictly increases with every write.
// A non-zero IfUnmodifiedSince that no longer matches yields ErrConflict.
func (r *ProfileRepository) Update(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc profileDocument
	err := r.col.FindOneAndUpdate(ctx, updateFilter(userID, patch), updatePipeline(patch), opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update profile: %w: %w", domain.ErrTransient, err)
	}
	if patch.IfUnmodifiedSince.IsZero() {
		return nil, domain.ErrProfileNotFound
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w: %w", domain.ErrTransient, err)
	}
	if n == 0 {
		return nil, domain.ErrProfileNotFound
	}
	return nil, domain.ErrConflict
}

// Provision inserts the profile of a new account. The store stamps
// created_at and updated_at; the caller's timestamps are ignored. A profile
// that already exists is reported as ErrUserExists and left untouched.
func (r *ProfileRepository) Provision(ctx context.Context, p *domain.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// The filter never matches an existing profile, so the upsert either
	// inserts or fails on the _id key.
	_, err := r.col.UpdateOne(ctx, provisionFilter(p.ID), provisionPipeline(p), options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("provision profile %s: %w", p.ID, domain.ErrUserExists)
		}
		return fmt.Errorf("provision profile: %w: %w", domain.ErrTransient, err)
	}
	return nil
}

func provisionFilter(userID string) bson.D {
	return bson.D{
		{Key: "_id", Value: userID},
		{Key: "created_at", Value: bson.M{"$exists": false}},
	}
}

func provisionPipeline(p *domain.Profile) mongo.Pipeline {
	set := bson.D{}
	if p.FirstName != nil {
		set = append(set, bson.E{Key: "first_name", Value: bson.M{"$literal": *p.FirstName}})
	}
	if p.LastName != nil {
		set = append(set, bson.E{Key: "last_name", Value: bson.M{"$literal": *p.LastName}})
	}
	if p.Email != nil {
		set = append(set, bson.E{Key: "email", Value: bson.M{"$literal": *p.Email}})
	}
	set = append(set,
		bson.E{Key: "created_at", Value: "$$NOW"},
		bson.E{Key: "updated_at", Value: "$$NOW"},
	)
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// EnsureIndexes creates necessary indexes on the profiles collection.
func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func updateFilter(userID string, patch domain.ProfilePatch) bson.D {
	filter := bson.D{{Key: "_id", Value: userID}}
	if !patch.IfUnmodifiedSince.IsZero() {
		filter = append(filter, bson.E{Key: "updated_at", Value: patch.IfUnmodifiedSince.UTC()})
	}
	return filter
}

// updatePipeline builds the aggregation-pipeline update for patch. Values
// are wrapped in $literal so user input is never read as a field path.
func updatePipeline(patch domain.ProfilePatch) mongo.Pipeline {
	set := bson.D{}
	if patch.FirstName != nil {
		set = append(set, bson.E{Key: "first_name", Value: bson.M{"$literal": *patch.FirstName}})
	}
	if patch.LastName != nil {
		set = append(set, bson.E{Key: "last_name", Value: bson.M{"$literal": *patch.LastName}})
	}
	set = append(set, bson.E{Key: "updated_at", Value: bson.M{
		"$max": bson.A{"$$NOW", bson.M{"$add": bson.A{"$updated_at", 1}}},
	}})

	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

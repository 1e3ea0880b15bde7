package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/auth-system/internal/core/domain"
)

const rolesCollection = "roles"

type RoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{coll: db.Collection(rolesCollection)}
}

type mongoRole struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

func (r mongoRole) toDomain() domain.Role {
	return domain.Role{ID: r.ID.Hex(), Name: r.Name}
}

// Seed inserts names only when the collection is empty. Concurrent seeding by
// several instances is resolved by the unique index on name.
func (r *RoleRepository) Seed(ctx context.Context, names []string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, mapError("count roles", err)
	}
	if n > 0 {
		return 0, nil
	}

	docs := make([]any, 0, len(names))
	for _, name := range names {
		docs = append(docs, mongoRole{ID: primitive.NewObjectID(), Name: name})
	}

	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, nil
		}
		return 0, mapError("seed roles", err)
	}
	return len(res.InsertedIDs), nil
}

func (r *RoleRepository) FindByNames(ctx context.Context, names []string) ([]domain.Role, error) {
	cur, err := r.coll.Find(ctx, bson.M{"name": bson.M{"$in": names}})
	if err != nil {
		return nil, mapError("find roles", err)
	}

	var docs []mongoRole
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}

	roles := make([]domain.Role, 0, len(docs))
	for _, d := range docs {
		roles = append(roles, d.toDomain())
	}
	return roles, nil
}

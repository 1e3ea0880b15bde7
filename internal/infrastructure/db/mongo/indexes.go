package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usernameIndexName = "users_username_unique"
	emailIndexName    = "users_email_unique"
	roleNameIndexName = "roles_name_unique"
)

// EnsureIndexes creates the unique indexes the directory relies on for
// username, email and role name uniqueness. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usernameIndexName),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndexName),
		},
	}
	if _, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	roles := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(roleNameIndexName),
	}
	if _, err := db.Collection(rolesCollection).Indexes().CreateOne(ctx, roles); err != nil {
		return fmt.Errorf("create role indexes: %w", err)
	}
	return nil
}

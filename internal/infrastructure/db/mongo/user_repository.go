package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/auth-system/internal/core/domain"
)

const usersCollection = "users"

// UserRepository is the MongoDB-backed user directory. Users reference roles
// by ObjectID; role documents are joined in with $lookup on every read.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoUser struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Username     string               `bson:"username"`
	Email        string               `bson:"email"`
	PasswordHash string               `bson:"password_hash"`
	RoleIDs      []primitive.ObjectID `bson:"roles"`
	CreatedAt    int64                `bson:"created_at"`
	UpdatedAt    int64                `bson:"updated_at"`
}

// userView is the shape produced by the $lookup pipeline.
type userView struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Roles        []mongoRole        `bson:"role_docs"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

// Create inserts user. The unique indexes on username and email make the
// insert the only uniqueness check; there is no read-then-write window.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	roleIDs := make([]primitive.ObjectID, 0, len(user.Roles))
	for _, role := range user.Roles {
		oid, err := primitive.ObjectIDFromHex(role.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRole, role.Name)
		}
		roleIDs = append(roleIDs, oid)
	}

	doc := mongoUser{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		RoleIDs:      roleIDs,
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateError(err)
		}
		return nil, mapError("insert user", err)
	}

	created := *user
	created.ID = doc.ID.Hex()
	created.Roles = append([]domain.Role(nil), user.Roles...)
	return &created, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$limit", Value: 1}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: rolesCollection},
			{Key: "localField", Value: "roles"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "role_docs"},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mapError("find user", err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, mapError("find user", err)
		}
		return nil, domain.ErrUserNotFound
	}

	var v userView
	if err := cur.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return v.toDomain(), nil
}

func (v userView) toDomain() *domain.User {
	roles := make([]domain.Role, 0, len(v.Roles))
	for _, r := range v.Roles {
		roles = append(roles, r.toDomain())
	}
	return &domain.User{
		ID:           v.ID.Hex(),
		Username:     v.Username,
		Email:        v.Email,
		PasswordHash: v.PasswordHash,
		Roles:        roles,
		CreatedAt:    unixToTime(v.CreatedAt),
		UpdatedAt:    unixToTime(v.UpdatedAt),
	}
}

// duplicateError tells a username clash from an email clash by the index
// named in the server's message.
func duplicateError(err error) error {
	if strings.Contains(err.Error(), emailIndexName) {
		return domain.ErrEmailTaken
	}
	return domain.ErrUsernameTaken
}

// mapError reports timeouts and network failures as
// domain.ErrDirectoryUnavailable.
func mapError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrUserNotFound
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", domain.ErrDirectoryUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/apperror"
	"github.com/khoahotran/devprofile/pkg/logger"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Avatar       string    `bson:"avatar"`
	Date         time.Time `bson:"date"`
}

func (d userDoc) toDomain() (*user.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, apperror.NewInternal("corrupt user id "+d.ID, err)
	}
	return &user.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Avatar:       d.Avatar,
		Date:         d.Date,
	}, nil
}

type mongoUserRepo struct {
	coll   *mongo.Collection
	logger logger.Logger
}

func NewMongoUserRepo(db *mongo.Database, log logger.Logger) user.Repository {
	return &mongoUserRepo{coll: db.Collection(usersCollection), logger: log}
}

func (r *mongoUserRepo) Create(ctx context.Context, u *user.User) error {
	_, err := r.coll.InsertOne(ctx, userDoc{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Avatar:       u.Avatar,
		Date:         u.Date,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrEmailTaken
		}
		r.logger.Error("Failed to insert user", err, zap.String("user_id", u.ID.String()))
		return apperror.NewInternal("failed to insert user", err)
	}
	return nil
}

func (r *mongoUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *mongoUserRepo) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperror.NewInternal("failed to query user", err)
	}
	return doc.toDomain()
}

func (r *mongoUserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	res, err := r.coll.UpdateByID(ctx, id.String(), bson.M{"$set": bson.M{"avatar": avatar}})
	if err != nil {
		return apperror.NewInternal("failed to update avatar", err)
	}
	if res.MatchedCount == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *mongoUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		r.logger.Error("Failed to delete user", err, zap.String("user_id", id.String()))
		return apperror.NewInternal("failed to delete user", err)
	}
	return nil
}

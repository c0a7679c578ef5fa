package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"luxvision/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	if u.ID == "" {
		u.ID = newID()
	}
	t := now()
	u.CreatedAt, u.UpdatedAt = t, t

	_, err := s.col(colUsers).InsertOne(ctx, u)
	return wrapErr("mongodb.CreateUser", err)
}

func (s *Store) findUser(ctx context.Context, op string, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	var u models.User
	if err := s.col(colUsers).FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, wrapErr(op, err)
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "mongodb.FindUserByID", bson.M{"_id": id})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "mongodb.FindUserByEmail", bson.M{"email": email})
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	set := bson.M{"updated_at": now()}
	setIf(set, "first_name", upd.FirstName)
	setIf(set, "last_name", upd.LastName)
	setIf(set, "phone", upd.Phone)

	if err := s.updateByID(ctx, colUsers, id, set); err != nil {
		return nil, wrapErr("mongodb.UpdateUser", err)
	}
	return s.FindUserByID(ctx, id)
}

func (s *Store) UpdatePassword(ctx context.Context, id, hash string) error {
	err := s.updateByID(ctx, colUsers, id, bson.M{"password": hash, "updated_at": now()})
	return wrapErr("mongodb.UpdatePassword", err)
}

// updateByID applies $set to the document id, failing with ErrNotFound when nothing matched.
func (s *Store) updateByID(ctx context.Context, collection, id string, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	res, err := s.col(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// deleteOne removes the document matched by filter, failing with ErrNotFound when nothing matched.
func (s *Store) deleteOne(ctx context.Context, collection string, filter bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	res, err := s.col(collection).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

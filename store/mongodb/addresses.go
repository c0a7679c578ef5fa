package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"luxvision/models"
)

func (s *Store) clearDefault(sc mongo.SessionContext, userID string) error {
	_, err := s.col(colAddresses).UpdateMany(sc,
		bson.M{"user_id": userID, "is_default": true},
		bson.M{"$set": bson.M{"is_default": false}})
	return err
}

func (s *Store) CreateAddress(ctx context.Context, a *models.Address) error {
	if a.ID == "" {
		a.ID = newID()
	}
	t := now()
	a.CreatedAt, a.UpdatedAt = t, t

	err := s.inTx(ctx, func(sc mongo.SessionContext) error {
		if a.IsDefault {
			if err := s.clearDefault(sc, a.UserID); err != nil {
				return err
			}
		}
		_, err := s.col(colAddresses).InsertOne(sc, a)
		return err
	})
	return wrapErr("mongodb.CreateAddress", err)
}

func (s *Store) UpdateAddress(ctx context.Context, id string, upd models.AddressUpdate) (*models.Address, error) {
	var out models.Address
	err := s.inTx(ctx, func(sc mongo.SessionContext) error {
		var current models.Address
		if err := s.col(colAddresses).FindOne(sc, bson.M{"_id": id}).Decode(&current); err != nil {
			return err
		}
		if upd.IsDefault != nil && *upd.IsDefault {
			if err := s.clearDefault(sc, current.UserID); err != nil {
				return err
			}
		}

		set := bson.M{"updated_at": now()}
		setIf(set, "first_name", upd.FirstName)
		setIf(set, "last_name", upd.LastName)
		setIf(set, "phone", upd.Phone)
		setIf(set, "address", upd.Address)
		setIf(set, "city", upd.City)
		setIf(set, "state", upd.State)
		setIf(set, "zip_code", upd.ZipCode)
		setIf(set, "country", upd.Country)
		setIf(set, "is_default", upd.IsDefault)

		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return s.col(colAddresses).FindOneAndUpdate(sc, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&out)
	})
	if err != nil {
		return nil, wrapErr("mongodb.UpdateAddress", err)
	}
	return &out, nil
}

func (s *Store) FindAddress(ctx context.Context, id string) (*models.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	var a models.Address
	if err := s.col(colAddresses).FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, wrapErr("mongodb.FindAddress", err)
	}
	return &a, nil
}

func (s *Store) ListAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "is_default", Value: -1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: 1},
	})
	addrs, err := findAll[models.Address](ctx, s.col(colAddresses), bson.M{"user_id": userID}, opts)
	return addrs, wrapErr("mongodb.ListAddresses", err)
}

func (s *Store) CountAddresses(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	n, err := s.col(colAddresses).CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, wrapErr("mongodb.CountAddresses", err)
	}
	return int(n), nil
}

func (s *Store) DeleteAddress(ctx context.Context, id string) error {
	return wrapErr("mongodb.DeleteAddress", s.deleteOne(ctx, colAddresses, bson.M{"_id": id}))
}

func (s *Store) SetDefaultAddress(ctx context.Context, userID, id string) (*models.Address, error) {
	var out models.Address
	err := s.inTx(ctx, func(sc mongo.SessionContext) error {
		if err := s.clearDefault(sc, userID); err != nil {
			return err
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return s.col(colAddresses).FindOneAndUpdate(sc,
			bson.M{"_id": id, "user_id": userID},
			bson.M{"$set": bson.M{"is_default": true, "updated_at": now()}},
			opts).Decode(&out)
	})
	if err != nil {
		return nil, wrapErr("mongodb.SetDefaultAddress", err)
	}
	return &out, nil
}

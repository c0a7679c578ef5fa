package sqlite

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"luxvision/models"
)

func clearDefaultAddress(ctx context.Context, s *SqlStore, tx *sqlx.Tx, userID string) error {
	_, err := s.exec(ctx, tx, sq.Update("addresses").
		Set("is_default", false).
		Where(sq.Eq{"user_id": userID, "is_default": true}))
	return err
}

func (s *SqlStore) CreateAddress(ctx context.Context, a *models.Address) error {
	if a.ID == "" {
		a.ID = newID()
	}
	t := now()
	a.CreatedAt, a.UpdatedAt = t, t

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if a.IsDefault {
			if err := clearDefaultAddress(ctx, s, tx, a.UserID); err != nil {
				return err
			}
		}
		q := sq.Insert("addresses").
			Columns("id", "user_id", "first_name", "last_name", "phone", "address", "city", "state",
				"zip_code", "country", "is_default", "created_at", "updated_at").
			Values(a.ID, a.UserID, a.FirstName, a.LastName, a.Phone, a.Address, a.City, a.State,
				a.ZipCode, a.Country, a.IsDefault, a.CreatedAt, a.UpdatedAt)
		_, err := s.exec(ctx, tx, q)
		return err
	})
	return wrapErr("sqlite.CreateAddress", err)
}

func (s *SqlStore) UpdateAddress(ctx context.Context, id string, upd models.AddressUpdate) (*models.Address, error) {
	var out models.Address
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var current models.Address
		if err := s.get(ctx, tx, &current, sq.Select("*").From("addresses").Where(sq.Eq{"id": id})); err != nil {
			return err
		}

		if upd.IsDefault != nil && *upd.IsDefault {
			if err := clearDefaultAddress(ctx, s, tx, current.UserID); err != nil {
				return err
			}
		}

		q := sq.Update("addresses").Set("updated_at", now()).Where(sq.Eq{"id": id})
		if upd.FirstName != nil {
			q = q.Set("first_name", *upd.FirstName)
		}
		if upd.LastName != nil {
			q = q.Set("last_name", *upd.LastName)
		}
		if upd.Phone != nil {
			q = q.Set("phone", *upd.Phone)
		}
		if upd.Address != nil {
			q = q.Set("address", *upd.Address)
		}
		if upd.City != nil {
			q = q.Set("city", *upd.City)
		}
		if upd.State != nil {
			q = q.Set("state", *upd.State)
		}
		if upd.ZipCode != nil {
			q = q.Set("zip_code", *upd.ZipCode)
		}
		if upd.Country != nil {
			q = q.Set("country", *upd.Country)
		}
		if upd.IsDefault != nil {
			q = q.Set("is_default", *upd.IsDefault)
		}
		if _, err := s.exec(ctx, tx, q); err != nil {
			return err
		}

		return s.get(ctx, tx, &out, sq.Select("*").From("addresses").Where(sq.Eq{"id": id}))
	})
	if err != nil {
		return nil, wrapErr("sqlite.UpdateAddress", err)
	}
	return &out, nil
}

func (s *SqlStore) FindAddress(ctx context.Context, id string) (*models.Address, error) {
	var a models.Address
	if err := s.get(ctx, s.DB, &a, sq.Select("*").From("addresses").Where(sq.Eq{"id": id})); err != nil {
		return nil, wrapErr("sqlite.FindAddress", err)
	}
	return &a, nil
}

func (s *SqlStore) ListAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	addrs := []models.Address{}
	q := sq.Select("*").From("addresses").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("is_default DESC", "created_at DESC", "id ASC")
	if err := s.sel(ctx, s.DB, &addrs, q); err != nil {
		return nil, wrapErr("sqlite.ListAddresses", err)
	}
	return addrs, nil
}

func (s *SqlStore) CountAddresses(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.get(ctx, s.DB, &n, sq.Select("COUNT(*)").From("addresses").Where(sq.Eq{"user_id": userID})); err != nil {
		return 0, wrapErr("sqlite.CountAddresses", err)
	}
	return n, nil
}

func (s *SqlStore) DeleteAddress(ctx context.Context, id string) error {
	n, err := s.exec(ctx, s.DB, sq.Delete("addresses").Where(sq.Eq{"id": id}))
	if err != nil {
		return wrapErr("sqlite.DeleteAddress", err)
	}
	if n == 0 {
		return wrapErr("sqlite.DeleteAddress", models.ErrNotFound)
	}
	return nil
}

func (s *SqlStore) SetDefaultAddress(ctx context.Context, userID, id string) (*models.Address, error) {
	var out models.Address
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := clearDefaultAddress(ctx, s, tx, userID); err != nil {
			return err
		}
		n, err := s.exec(ctx, tx, sq.Update("addresses").
			Set("is_default", true).
			Set("updated_at", now()).
			Where(sq.Eq{"id": id, "user_id": userID}))
		if err != nil {
			return err
		}
		if n == 0 {
			return models.ErrNotFound
		}
		return s.get(ctx, tx, &out, sq.Select("*").From("addresses").Where(sq.Eq{"id": id}))
	})
	if err != nil {
		return nil, wrapErr("sqlite.SetDefaultAddress", err)
	}
	return &out, nil
}

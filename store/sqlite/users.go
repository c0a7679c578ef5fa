package sqlite

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"luxvision/models"
)

func (s *SqlStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	t := now()
	u.CreatedAt, u.UpdatedAt = t, t

	q := sq.Insert("users").
		Columns("id", "email", "password", "first_name", "last_name", "phone", "role", "email_verified", "created_at", "updated_at").
		Values(u.ID, u.Email, u.Password, u.FirstName, u.LastName, u.Phone, u.Role, u.EmailVerified, u.CreatedAt, u.UpdatedAt)

	_, err := s.exec(ctx, s.DB, q)
	return wrapErr("sqlite.CreateUser", err)
}

func (s *SqlStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.get(ctx, s.DB, &u, sq.Select("*").From("users").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, wrapErr("sqlite.FindUserByID", err)
	}
	return &u, nil
}

func (s *SqlStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.get(ctx, s.DB, &u, sq.Select("*").From("users").Where(sq.Eq{"email": email}))
	if err != nil {
		return nil, wrapErr("sqlite.FindUserByEmail", err)
	}
	return &u, nil
}

func (s *SqlStore) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	q := sq.Update("users").Set("updated_at", now()).Where(sq.Eq{"id": id})
	if upd.FirstName != nil {
		q = q.Set("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		q = q.Set("last_name", *upd.LastName)
	}
	if upd.Phone != nil {
		q = q.Set("phone", *upd.Phone)
	}

	n, err := s.exec(ctx, s.DB, q)
	if err != nil {
		return nil, wrapErr("sqlite.UpdateUser", err)
	}
	if n == 0 {
		return nil, wrapErr("sqlite.UpdateUser", models.ErrNotFound)
	}
	return s.FindUserByID(ctx, id)
}

func (s *SqlStore) UpdatePassword(ctx context.Context, id, hash string) error {
	q := sq.Update("users").Set("password", hash).Set("updated_at", now()).Where(sq.Eq{"id": id})
	n, err := s.exec(ctx, s.DB, q)
	if err != nil {
		return wrapErr("sqlite.UpdatePassword", err)
	}
	if n == 0 {
		return wrapErr("sqlite.UpdatePassword", models.ErrNotFound)
	}
	return nil
}

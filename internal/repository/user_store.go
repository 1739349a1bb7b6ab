package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alexivanou/foodmap-api/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type userStore struct {
	db *sqlx.DB
}

func (r *userStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.Date.IsZero() {
		u.Date = time.Now().UTC()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, email, phone, role, preferences, created_at)
		VALUES (:id, :name, :email, :phone, :role, :preferences, :created_at)`,
		u)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *userStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	q := r.db.Rebind("SELECT id, name, email, phone, role, preferences, created_at FROM users WHERE id = ?")
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	u.Addresses = []model.Address{}
	q = r.db.Rebind("SELECT * FROM addresses WHERE user_id = ? ORDER BY position")
	if err := r.db.SelectContext(ctx, &u.Addresses, q, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userStore) UpdateProfile(ctx context.Context, id, name, phone string) error {
	q := r.db.Rebind("UPDATE users SET name = ?, phone = ? WHERE id = ?")
	_, err := r.db.ExecContext(ctx, q, name, phone, id)
	return err
}

func (r *userStore) UpdatePreferences(ctx context.Context, id string, prefs model.Preferences) error {
	q := r.db.Rebind("UPDATE users SET preferences = ? WHERE id = ?")
	_, err := r.db.ExecContext(ctx, q, prefs, id)
	return err
}

// ReplaceAddresses stores the full address list in order
func (r *userStore) ReplaceAddresses(ctx context.Context, userID string, addresses []model.Address) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM addresses WHERE user_id = ?"), userID); err != nil {
		return err
	}
	if len(addresses) > 0 {
		for i := range addresses {
			if addresses[i].ID == "" {
				addresses[i].ID = uuid.NewString()
			}
			addresses[i].UserID = userID
			addresses[i].Position = i
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO addresses (id, user_id, position, street, area, city, state, pincode, landmark, type, is_default)
			VALUES (:id, :user_id, :position, :street, :area, :city, :state, :pincode, :landmark, :type, :is_default)`,
			addresses)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

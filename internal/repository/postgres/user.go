package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medilink/pharmacare-api/internal/model"
)

func (r *userRepository) CreateWithProfile(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	touch(&user.Base)

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO users (
				id, email, password_hash, name, role, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.ExecContext(ctx, query,
			user.ID,
			user.Email,
			user.PasswordHash,
			user.Name,
			user.Role,
			user.CreatedAt,
			user.UpdatedAt,
		); err != nil {
			return translateError(err, "user")
		}

		profileQuery, ok := profileInsertQueries[user.Role]
		if !ok {
			// ADMIN has no profile table.
			return nil
		}
		if _, err := tx.ExecContext(ctx, profileQuery, uuid.New(), user.ID, time.Now(), time.Now()); err != nil {
			return translateError(err, "profile")
		}
		return nil
	})
}

// profileInsertQueries maps each role to its profile table insert. The
// mapping is keyed by the Role enum, never built from the role name.
var profileInsertQueries = map[model.Role]string{
	model.RolePatient: `
		INSERT INTO patient_profiles (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
	model.RoleDoctor: `
		INSERT INTO doctor_profiles (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
	model.RolePharmacist: `
		INSERT INTO pharmacist_profiles (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
	model.RoleInsurer: `
		INSERT INTO insurer_profiles (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`,
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translateError(err, "user")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, translateError(err, "user")
	}
	return &user, nil
}

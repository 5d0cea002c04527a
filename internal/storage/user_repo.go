package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MimoJanra/SitePulse/internal/models"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, username, password_hash, role, assigned_group_ids, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var (
		u      models.User
		groups string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &groups, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	if groups != "" {
		if err := json.Unmarshal([]byte(groups), &u.AssignedGroupIDs); err != nil {
			return models.User{}, fmt.Errorf("decode assigned groups for %s: %w", u.Username, err)
		}
	}
	if u.AssignedGroupIDs == nil {
		u.AssignedGroupIDs = []string{}
	}
	return u, nil
}

func encodeGroups(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode assigned groups: %w", err)
	}
	return string(raw), nil
}

func (r *UserRepo) Create(u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = models.RoleOnlyRead
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	groups, err := encodeGroups(u.AssignedGroupIDs)
	if err != nil {
		return models.User{}, err
	}

	_, err = r.db.Exec(`
		INSERT INTO users(id, username, password_hash, role, assigned_group_ids, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash, u.Role, groups, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByUsername(username string) (models.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

func (r *UserRepo) GetByID(id string) (models.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (r *UserRepo) GetAll() ([]models.User, error) {
	rows, err := r.db.Query("SELECT " + userColumns + " FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update rewrites password hash, role and group assignment for a user.
func (r *UserRepo) Update(u models.User) (models.User, error) {
	groups, err := encodeGroups(u.AssignedGroupIDs)
	if err != nil {
		return models.User{}, err
	}
	u.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(`
		UPDATE users SET password_hash = ?, role = ?, assigned_group_ids = ?, updated_at = ?
		WHERE id = ?
	`, u.PasswordHash, u.Role, groups, u.UpdatedAt, u.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return models.User{}, sql.ErrNoRows
	}
	return r.GetByID(u.ID)
}

func (r *UserRepo) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// EnsureAdmin seeds the default admin account when no user with that
// username exists. Returns true when the account was created.
func (r *UserRepo) EnsureAdmin(passwordHash string) (bool, error) {
	_, err := r.GetByUsername("admin")
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	_, err = r.Create(models.User{
		Username:     "admin",
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

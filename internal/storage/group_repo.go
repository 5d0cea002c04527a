package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MimoJanra/SitePulse/internal/models"
)

type GroupRepo struct {
	db *sql.DB
}

func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{db: db} }

func (r *GroupRepo) Create(g models.Group) (models.Group, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO groups(id, name, description, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?)
	`, g.ID, g.Name, g.Description, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return models.Group{}, fmt.Errorf("insert group: %w", err)
	}
	return g, nil
}

func (r *GroupRepo) GetAll() ([]models.Group, error) {
	rows, err := r.db.Query("SELECT id, name, description, created_at, updated_at FROM groups ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *GroupRepo) GetByID(id string) (models.Group, error) {
	row := r.db.QueryRow("SELECT id, name, description, created_at, updated_at FROM groups WHERE id = ?", id)
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *GroupRepo) Update(g models.Group) (models.Group, error) {
	res, err := r.db.Exec(`
		UPDATE groups SET name = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, g.Name, g.Description, time.Now().UTC(), g.ID)
	if err != nil {
		return models.Group{}, fmt.Errorf("update group: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return models.Group{}, sql.ErrNoRows
	}
	return r.GetByID(g.ID)
}

func (r *GroupRepo) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM groups WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

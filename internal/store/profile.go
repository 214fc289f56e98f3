package store

import (
	"database/sql"
	"errors"
	"time"
)

// Profile is a named set of analyzer and segmentation tuning values.
type Profile struct {
	ID              string
	Name            string
	Alpha           float64
	MotionThreshold float64
	MergeDistance   float64
	DepthWeight     float64
	MaxAcceleration float64
	SilenceMs       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfileRepository provides CRUD operations for tuning profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Create inserts a new profile into the database.
func (r *ProfileRepository) Create(p *Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO profiles
		 (id, name, alpha, motion_threshold, merge_distance, depth_weight, max_acceleration, silence_ms, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Alpha, p.MotionThreshold, p.MergeDistance, p.DepthWeight, p.MaxAcceleration, p.SilenceMs, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	p := &Profile{}

	err := r.db.QueryRow(
		`SELECT id, name, alpha, motion_threshold, merge_distance, depth_weight, max_acceleration, silence_ms, created_at, updated_at
		 FROM profiles WHERE name = ?`,
		name,
	).Scan(&p.ID, &p.Name, &p.Alpha, &p.MotionThreshold, &p.MergeDistance, &p.DepthWeight, &p.MaxAcceleration, &p.SilenceMs, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return p, nil
}

// List retrieves all profiles from the database.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(
		`SELECT id, name, alpha, motion_threshold, merge_distance, depth_weight, max_acceleration, silence_ms, created_at, updated_at
		 FROM profiles ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p := &Profile{}
		err := rows.Scan(&p.ID, &p.Name, &p.Alpha, &p.MotionThreshold, &p.MergeDistance, &p.DepthWeight, &p.MaxAcceleration, &p.SilenceMs, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update updates an existing profile in the database.
func (r *ProfileRepository) Update(p *Profile) error {
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, alpha = ?, motion_threshold = ?, merge_distance = ?, depth_weight = ?, max_acceleration = ?, silence_ms = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Alpha, p.MotionThreshold, p.MergeDistance, p.DepthWeight, p.MaxAcceleration, p.SilenceMs, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a profile from the database by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetSetting returns the value for a settings key.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// SetSetting stores a settings key-value pair, replacing any previous value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

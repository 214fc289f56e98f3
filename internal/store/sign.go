package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Sign is one registered sign of the local classifier's vocabulary.
type Sign struct {
	ID        string
	Label     string
	Tolerance float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Landmark is one stored landmark row of a sign's reference pose.
type Landmark struct {
	Index int
	X     float64
	Y     float64
	Z     float64
}

// PathPoint is one stored point of a motion sign's wrist trajectory.
type PathPoint struct {
	Sequence    int
	X           float64
	Y           float64
	TimestampMs int64
}

// SignRepository provides CRUD operations for signs.
type SignRepository struct {
	db *sql.DB
}

// Signs returns the sign repository for this store.
func (s *Store) Signs() *SignRepository {
	return &SignRepository{db: s.db}
}

// Create inserts a new sign into the database.
func (r *SignRepository) Create(sign *Sign) error {
	now := time.Now()
	sign.CreatedAt = now
	sign.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO signs (id, label, tolerance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sign.ID, sign.Label, sign.Tolerance, sign.CreatedAt, sign.UpdatedAt,
	)
	return err
}

// GetByID retrieves a sign by its ID.
func (r *SignRepository) GetByID(id string) (*Sign, error) {
	sign := &Sign{}

	err := r.db.QueryRow(
		`SELECT id, label, tolerance, created_at, updated_at
		 FROM signs WHERE id = ?`,
		id,
	).Scan(&sign.ID, &sign.Label, &sign.Tolerance, &sign.CreatedAt, &sign.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sign, nil
}

// GetByLabel retrieves a sign by its label.
func (r *SignRepository) GetByLabel(label string) (*Sign, error) {
	sign := &Sign{}

	err := r.db.QueryRow(
		`SELECT id, label, tolerance, created_at, updated_at
		 FROM signs WHERE label = ?`,
		label,
	).Scan(&sign.ID, &sign.Label, &sign.Tolerance, &sign.CreatedAt, &sign.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sign, nil
}

// List retrieves all signs from the database.
func (r *SignRepository) List() ([]*Sign, error) {
	rows, err := r.db.Query(
		`SELECT id, label, tolerance, created_at, updated_at
		 FROM signs ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signs []*Sign
	for rows.Next() {
		sign := &Sign{}
		if err := rows.Scan(&sign.ID, &sign.Label, &sign.Tolerance, &sign.CreatedAt, &sign.UpdatedAt); err != nil {
			return nil, err
		}
		signs = append(signs, sign)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return signs, nil
}

// Update updates an existing sign in the database.
func (r *SignRepository) Update(sign *Sign) error {
	sign.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE signs SET label = ?, tolerance = ?, updated_at = ? WHERE id = ?`,
		sign.Label, sign.Tolerance, sign.UpdatedAt, sign.ID,
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

// Delete removes a sign from the database by its ID.
func (r *SignRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM signs WHERE id = ?`, id)
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

// SetLandmarks replaces the reference pose for a sign.
func (r *SignRepository) SetLandmarks(signID string, landmarks []Landmark) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sign_landmarks WHERE sign_id = ?`, signID); err != nil {
		return err
	}

	for _, l := range landmarks {
		_, err := tx.Exec(
			`INSERT INTO sign_landmarks (sign_id, landmark_index, x, y, z)
			 VALUES (?, ?, ?, ?, ?)`,
			signID, l.Index, l.X, l.Y, l.Z,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SetPath replaces the reference trajectory for a motion sign.
func (r *SignRepository) SetPath(signID string, path []PathPoint) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sign_paths WHERE sign_id = ?`, signID); err != nil {
		return err
	}

	for _, p := range path {
		_, err := tx.Exec(
			`INSERT INTO sign_paths (sign_id, sequence, x, y, timestamp_ms)
			 VALUES (?, ?, ?, ?, ?)`,
			signID, p.Sequence, p.X, p.Y, p.TimestampMs,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetPath returns the reference trajectory for a motion sign, in
// sequence order. Signs without a trajectory return an empty path.
func (r *SignRepository) GetPath(signID string) ([]PathPoint, error) {
	rows, err := r.db.Query(
		`SELECT sequence, x, y, timestamp_ms FROM sign_paths
		 WHERE sign_id = ? ORDER BY sequence`,
		signID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var path []PathPoint
	for rows.Next() {
		var p PathPoint
		if err := rows.Scan(&p.Sequence, &p.X, &p.Y, &p.TimestampMs); err != nil {
			return nil, err
		}
		path = append(path, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return path, nil
}

// GetLandmarks returns the reference pose for a sign, ordered by
// landmark index.
func (r *SignRepository) GetLandmarks(signID string) ([]Landmark, error) {
	rows, err := r.db.Query(
		`SELECT landmark_index, x, y, z FROM sign_landmarks
		 WHERE sign_id = ? ORDER BY landmark_index`,
		signID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var landmarks []Landmark
	for rows.Next() {
		var l Landmark
		if err := rows.Scan(&l.Index, &l.X, &l.Y, &l.Z); err != nil {
			return nil, err
		}
		landmarks = append(landmarks, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return landmarks, nil
}

package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Sample is one raw recorded training sample for a sign.
type Sample struct {
	ID          int64           `json:"id"`
	SignID      string          `json:"sign_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SampleRepository provides storage for recorded sign samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create inserts a batch of samples for a sign in a single transaction.
func (r *SampleRepository) Create(signID string, samples []json.RawMessage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO sign_samples (sign_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range samples {
		if _, err := stmt.Exec(signID, i, string(data)); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`UPDATE signs SET updated_at = ? WHERE id = ?`, time.Now(), signID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetBySignID retrieves all recorded samples for a sign, in recording
// order.
func (r *SampleRepository) GetBySignID(signID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, sign_id, sample_index, data, created_at
		 FROM sign_samples
		 WHERE sign_id = ?
		 ORDER BY sample_index`,
		signID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.SignID, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// DeleteBySignID removes all recorded samples for a sign.
func (r *SampleRepository) DeleteBySignID(signID string) error {
	_, err := r.db.Exec(`DELETE FROM sign_samples WHERE sign_id = ?`, signID)
	return err
}

package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Signs table - registered sign vocabulary for the local classifier
		`CREATE TABLE IF NOT EXISTS signs (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL UNIQUE,
			tolerance REAL NOT NULL DEFAULT 0.15,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sign landmarks table - wrist-relative normalized hand pose per sign
		`CREATE TABLE IF NOT EXISTS sign_landmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sign_id TEXT NOT NULL REFERENCES signs(id) ON DELETE CASCADE,
			landmark_index INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		)`,

		// Profiles table - named analyzer/segmentation tuning sets
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			alpha REAL NOT NULL DEFAULT 0.85,
			motion_threshold REAL NOT NULL DEFAULT 0.02,
			merge_distance REAL NOT NULL DEFAULT 0.05,
			depth_weight REAL NOT NULL DEFAULT 0.5,
			max_acceleration REAL NOT NULL DEFAULT 0.25,
			silence_ms INTEGER NOT NULL DEFAULT 1300,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sign paths table - averaged wrist trajectory for motion signs
		`CREATE TABLE IF NOT EXISTS sign_paths (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sign_id TEXT NOT NULL REFERENCES signs(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			timestamp_ms INTEGER NOT NULL
		)`,

		// Sign samples table - raw recorded samples for training
		`CREATE TABLE IF NOT EXISTS sign_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sign_id TEXT NOT NULL REFERENCES signs(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_sign_landmarks_sign_id ON sign_landmarks(sign_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sign_paths_sign_id ON sign_paths(sign_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sign_samples_sign_id ON sign_samples(sign_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

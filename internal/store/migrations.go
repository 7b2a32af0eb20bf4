package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Poses table - named arm configurations
		`CREATE TABLE IF NOT EXISTS poses (
			name TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Pose joints table - encoder target per joint per pose
		`CREATE TABLE IF NOT EXISTS pose_joints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pose_name TEXT NOT NULL REFERENCES poses(name) ON DELETE CASCADE,
			joint TEXT NOT NULL,
			position INTEGER NOT NULL,
			UNIQUE(pose_name, joint)
		)`,

		// Joint limits table - safety envelope per joint
		`CREATE TABLE IF NOT EXISTS joint_limits (
			joint TEXT PRIMARY KEY,
			position_min INTEGER NOT NULL,
			position_max INTEGER NOT NULL,
			torque_max INTEGER NOT NULL
		)`,

		// Events table - journal of gestures, stage changes, and faults
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_pose_joints_pose_name ON pose_joints(pose_name)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

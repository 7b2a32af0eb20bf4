package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/projecto/internal/motion"
	"github.com/ayusman/projecto/internal/safety"
)

// PoseRepository reads and writes the named-pose and joint-limit tables.
type PoseRepository struct {
	db *sql.DB
}

// Poses returns the pose repository for this store.
func (s *Store) Poses() *PoseRepository {
	return &PoseRepository{db: s.db}
}

// LoadTable reads every stored pose into a motion table.
// Returns ErrNotFound when no poses are stored at all.
func (r *PoseRepository) LoadTable() (*motion.Table, error) {
	rows, err := r.db.Query(
		`SELECT pose_name, joint, position FROM pose_joints ORDER BY pose_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	poses := make(map[string]motion.Pose)
	for rows.Next() {
		var name, joint string
		var position int
		if err := rows.Scan(&name, &joint, &position); err != nil {
			return nil, err
		}
		if poses[name] == nil {
			poses[name] = motion.Pose{}
		}
		poses[name][joint] = position
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(poses) == 0 {
		return nil, ErrNotFound
	}
	return motion.NewTable(poses), nil
}

// SavePose upserts one named pose and its joints in a transaction.
func (r *PoseRepository) SavePose(name string, pose motion.Pose) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.Exec(
		`INSERT INTO poses (name, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at`,
		name, now, now,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM pose_joints WHERE pose_name = ?`, name); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO pose_joints (pose_name, joint, position) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for joint, position := range pose {
		if _, err := stmt.Exec(name, joint, position); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadLimits reads the joint limit table.
// Returns ErrNotFound when no limits are stored.
func (r *PoseRepository) LoadLimits() (safety.Limits, error) {
	rows, err := r.db.Query(
		`SELECT joint, position_min, position_max, torque_max FROM joint_limits`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	limits := safety.Limits{}
	for rows.Next() {
		var joint string
		var lim safety.Limit
		if err := rows.Scan(&joint, &lim.PositionMin, &lim.PositionMax, &lim.TorqueMax); err != nil {
			return nil, err
		}
		limits[joint] = lim
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(limits) == 0 {
		return nil, ErrNotFound
	}
	return limits, nil
}

// SaveLimits replaces the joint limit table.
func (r *PoseRepository) SaveLimits(limits safety.Limits) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM joint_limits`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO joint_limits (joint, position_min, position_max, torque_max) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for joint, lim := range limits {
		if _, err := stmt.Exec(joint, lim.PositionMin, lim.PositionMax, lim.TorqueMax); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// EnsureDefaults seeds the pose and limit tables when they are empty, so
// a fresh install runs with the compiled-in configuration.
func (r *PoseRepository) EnsureDefaults(table *motion.Table, limits safety.Limits) error {
	if _, err := r.LoadTable(); errors.Is(err, ErrNotFound) {
		for _, name := range table.Names() {
			pose, err := table.Lookup(name)
			if err != nil {
				return err
			}
			if err := r.SavePose(name, pose); err != nil {
				return err
			}
		}
	} else if err != nil {
		return err
	}

	if _, err := r.LoadLimits(); errors.Is(err, ErrNotFound) {
		return r.SaveLimits(limits)
	} else if err != nil {
		return err
	}
	return nil
}

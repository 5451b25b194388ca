// Package blackbox keeps a local sqlite log of every control cycle so a
// run can be replayed after the robot comes back from the field.
package blackbox

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

type DB struct {
	*sql.DB
}

// SweepRecord is one control cycle as it lands in the blackbox.
type SweepRecord struct {
	UptimeMs int64
	Profile  nav.SectorProfile
	Decision nav.Decision
	Source   string
	AirTempC float64
	Humidity float64
	HaveEnv  bool
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sweeps (
			uptime_ms         BIGINT,
			sectors           TEXT,
			action            TEXT,
			turn_deg          DOUBLE,
			stuck             BIGINT,
			reason            TEXT,
			source            TEXT,
			air_temp_c        DOUBLE,
			humidity          DOUBLE,
			have_env          BOOLEAN,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// RecordSweep appends one cycle to the log.
func (db *DB) RecordSweep(rec SweepRecord) error {
	sectors, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode sectors: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO sweeps (
			uptime_ms, sectors, action, turn_deg, stuck, reason, source,
			air_temp_c, humidity, have_env
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UptimeMs, string(sectors), rec.Decision.Action.String(),
		rec.Decision.TurnDeg, rec.Decision.Stuck, rec.Decision.Reason,
		rec.Source, rec.AirTempC, rec.Humidity, rec.HaveEnv,
	)
	if err != nil {
		return err
	}
	return nil
}

// RecentSweeps returns the newest n records, newest first.
func (db *DB) RecentSweeps(n int) ([]SweepRecord, error) {
	rows, err := db.Query(
		`SELECT uptime_ms, sectors, action, turn_deg, stuck, reason, source,
			air_temp_c, humidity, have_env
		FROM sweeps ORDER BY rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SweepRecord
	for rows.Next() {
		var rec SweepRecord
		var sectors, action string
		if err := rows.Scan(
			&rec.UptimeMs, &sectors, &action, &rec.Decision.TurnDeg,
			&rec.Decision.Stuck, &rec.Decision.Reason, &rec.Source,
			&rec.AirTempC, &rec.Humidity, &rec.HaveEnv,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sectors), &rec.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode sectors: %v", err)
		}
		if cmd, ok := nav.ParseCommand(action); ok {
			rec.Decision.Action = cmd
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"collision-sim/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Database wraps the SQLite connection holding telemetry traces
type Database struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dbPath string) (*Database, error) {
	// Enable WAL mode and other optimizations via connection string
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000", dbPath)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer; also keeps ":memory:" on one connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &Database{conn: conn}

	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// initialize creates tables and indexes
func (db *Database) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS telemetry (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vehicle_id TEXT NOT NULL,
		time_sec REAL NOT NULL,
		speed_mph REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_telemetry_vehicle_time ON telemetry(vehicle_id, time_sec);
	CREATE INDEX IF NOT EXISTS idx_telemetry_speed ON telemetry(speed_mph);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

// InsertSample adds a single telemetry sample
func (db *Database) InsertSample(s *models.TelemetrySample) error {
	result, err := db.conn.Exec(
		`INSERT INTO telemetry (vehicle_id, time_sec, speed_mph) VALUES (?, ?, ?)`,
		s.VehicleID, s.TimeSec, s.SpeedMPH,
	)
	if err != nil {
		return err
	}

	id, _ := result.LastInsertId()
	s.ID = id
	return nil
}

// InsertSamplesBatch efficiently inserts multiple samples in one transaction
func (db *Database) InsertSamplesBatch(samples []models.TelemetrySample) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO telemetry (vehicle_id, time_sec, speed_mph) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var count int64
	for _, s := range samples {
		if _, err := stmt.Exec(s.VehicleID, s.TimeSec, s.SpeedMPH); err != nil {
			return count, err
		}
		count++
	}

	return count, tx.Commit()
}

// QuerySamples retrieves samples ordered by vehicle then time
func (db *Database) QuerySamples(q models.TelemetryQuery) ([]models.TelemetrySample, error) {
	var conditions []string
	var args []interface{}

	query := `SELECT id, vehicle_id, time_sec, speed_mph FROM telemetry`

	if q.VehicleID != "" {
		conditions = append(conditions, "vehicle_id = ?")
		args = append(args, q.VehicleID)
	}
	if q.StartSec > 0 {
		conditions = append(conditions, "time_sec >= ?")
		args = append(args, q.StartSec)
	}
	if q.EndSec > 0 {
		conditions = append(conditions, "time_sec <= ?")
		args = append(args, q.EndSec)
	}
	if q.MinSpeed > 0 {
		conditions = append(conditions, "speed_mph >= ?")
		args = append(args, q.MinSpeed)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY vehicle_id, time_sec, id"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
		if q.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", q.Offset)
		}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.TelemetrySample
	for rows.Next() {
		var s models.TelemetrySample
		if err := rows.Scan(&s.ID, &s.VehicleID, &s.TimeSec, &s.SpeedMPH); err != nil {
			return nil, err
		}
		results = append(results, s)
	}

	return results, rows.Err()
}

// ListVehicleIDs returns the distinct vehicles with samples
func (db *Database) ListVehicleIDs() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT vehicle_id FROM telemetry ORDER BY vehicle_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetSummary returns aggregated statistics for a vehicle
func (db *Database) GetSummary(vehicleID string) (*models.TelemetrySummary, error) {
	query := `
		SELECT
			vehicle_id,
			COUNT(*) AS samples,
			AVG(speed_mph) AS avg_speed,
			MAX(speed_mph) AS max_speed,
			MAX(time_sec) - MIN(time_sec) AS duration
		FROM telemetry
		WHERE vehicle_id = ?
		GROUP BY vehicle_id
	`

	var s models.TelemetrySummary
	err := db.conn.QueryRow(query, vehicleID).Scan(
		&s.VehicleID, &s.Samples, &s.AvgSpeedMPH, &s.MaxSpeedMPH, &s.DurationSec,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStats returns database statistics
func (db *Database) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int64
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM telemetry").Scan(&total); err != nil {
		return nil, err
	}
	stats["total_samples"] = total

	var vehicles int64
	if err := db.conn.QueryRow("SELECT COUNT(DISTINCT vehicle_id) FROM telemetry").Scan(&vehicles); err != nil {
		return nil, err
	}
	stats["total_vehicles"] = vehicles

	var maxSpeed sql.NullFloat64
	if err := db.conn.QueryRow("SELECT MAX(speed_mph) FROM telemetry").Scan(&maxSpeed); err != nil {
		return nil, err
	}
	stats["max_speed_mph"] = maxSpeed.Float64

	return stats, nil
}

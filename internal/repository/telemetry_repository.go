package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/auto-insurance/internal/model"
)

// TelemetryRepo stores immutable telemetry events. There is no update method.
type TelemetryRepo struct {
	db *sql.DB
}

func NewTelemetryRepo(db *sql.DB) *TelemetryRepo { return &TelemetryRepo{db: db} }

// Create inserts an event. ErrDuplicate when the event id already exists.
func (r *TelemetryRepo) Create(ctx context.Context, e *model.TelemetryEvent) error {
	const q = `INSERT INTO telemetry_events (event_id, vehicle_id, ts, speed, engine_rpm, acceleration,
		braking_flag, impact_flag, severity, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		e.EventID, e.VehicleID, e.Timestamp.UTC(), nullFloat64(e.Speed), nullFloat64(e.EngineRPM),
		nullFloat64(e.Acceleration), nullBool(e.BrakingFlag), e.ImpactFlag, string(e.Severity),
		nullFloat64(e.Latitude), nullFloat64(e.Longitude))
	return translate(err)
}

// ListByVehicle returns the newest events of a vehicle first, capped at limit.
func (r *TelemetryRepo) ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]model.TelemetryEvent, error) {
	const q = `SELECT event_id, vehicle_id, ts, speed, engine_rpm, acceleration, braking_flag, impact_flag,
		severity, latitude, longitude
		FROM telemetry_events WHERE vehicle_id = ? ORDER BY ts DESC, event_id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.TelemetryEvent{}
	for rows.Next() {
		var (
			e                           model.TelemetryEvent
			speed, rpm, accel, lat, lng sql.NullFloat64
			braking                     sql.NullBool
		)
		if err := rows.Scan(&e.EventID, &e.VehicleID, &e.Timestamp, &speed, &rpm, &accel, &braking,
			&e.ImpactFlag, &e.Severity, &lat, &lng); err != nil {
			return nil, err
		}
		e.Speed = float64Ptr(speed)
		e.EngineRPM = float64Ptr(rpm)
		e.Acceleration = float64Ptr(accel)
		e.BrakingFlag = boolPtr(braking)
		e.Latitude = float64Ptr(lat)
		e.Longitude = float64Ptr(lng)
		events = append(events, e)
	}
	return events, rows.Err()
}

package model

import "time"

// Severity is the derived risk category of a telemetry sample.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// TelemetryEvent is a single sensor reading from a vehicle. It mirrors the
// `telemetry_events` table and is immutable once stored. Severity is always
// computed server-side.
type TelemetryEvent struct {
	EventID      int64     `json:"event_id"`
	VehicleID    int64     `json:"vehicle_id"`
	Timestamp    time.Time `json:"timestamp"`
	Speed        *float64  `json:"speed,omitempty"`
	EngineRPM    *float64  `json:"engine_rpm,omitempty"`
	Acceleration *float64  `json:"acceleration,omitempty"`
	BrakingFlag  *bool     `json:"braking_flag,omitempty"`
	ImpactFlag   bool      `json:"impact_flag"`
	Severity     Severity  `json:"severity"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
}

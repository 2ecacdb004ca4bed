package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/repository"
)

// TelemetryInput is a raw sensor sample. Flags and event_id are loosely
// typed because devices send them as booleans, numbers or strings.
type TelemetryInput struct {
	EventID      any      `json:"event_id"`
	VehicleID    *int64   `json:"vehicle_id"`
	Timestamp    string   `json:"timestamp"`
	Speed        *float64 `json:"speed"`
	EngineRPM    *float64 `json:"engine_rpm"`
	Acceleration *float64 `json:"acceleration"`
	BrakingFlag  any      `json:"braking_flag"`
	ImpactFlag   any      `json:"impact_flag"`
	Severity     string   `json:"severity"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

const defaultTelemetryListLimit = 100

// ClassifySeverity derives the risk category of a sample. An impact is
// always critical; otherwise reaching the speed threshold is a warning.
func ClassifySeverity(impact bool, speed, threshold float64) model.Severity {
	switch {
	case impact:
		return model.SeverityCritical
	case speed >= threshold:
		return model.SeverityWarning
	default:
		return model.SeverityNormal
	}
}

// TelemetryService stamps incoming samples with a severity and stores them.
type TelemetryService struct {
	events   TelemetryStore
	settings SettingsStore
	ids      IDAllocator
}

func NewTelemetryService(events TelemetryStore, settings SettingsStore, ids IDAllocator) *TelemetryService {
	return &TelemetryService{events: events, settings: settings, ids: ids}
}

// Classify validates a sample, computes its severity against the current
// impactSpeedThreshold and persists it. Any client supplied severity is
// ignored.
func (s *TelemetryService) Classify(ctx context.Context, in TelemetryInput) (*model.TelemetryEvent, error) {
	if in.VehicleID == nil || *in.VehicleID == 0 || strings.TrimSpace(in.Timestamp) == "" {
		return nil, apperr.MissingField("required fields: vehicle_id, timestamp")
	}
	ts, ok := parseInstant(in.Timestamp)
	if !ok {
		return nil, apperr.InvalidInput("invalid timestamp")
	}

	threshold, err := numberSetting(ctx, s.settings, model.SettingImpactSpeedThreshold, model.DefaultImpactSpeedThreshold)
	if err != nil {
		return nil, err
	}
	var speed float64
	if in.Speed != nil {
		speed = *in.Speed
	}
	impact := coerceBool(in.ImpactFlag)

	supplied, err := suppliedEventID(in.EventID)
	if err != nil {
		return nil, err
	}
	ev := &model.TelemetryEvent{
		VehicleID:    *in.VehicleID,
		Timestamp:    ts,
		Speed:        in.Speed,
		EngineRPM:    in.EngineRPM,
		Acceleration: in.Acceleration,
		ImpactFlag:   impact,
		Severity:     ClassifySeverity(impact, speed, threshold),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
	}
	if in.BrakingFlag != nil {
		b := coerceBool(in.BrakingFlag)
		ev.BrakingFlag = &b
	}
	err = createWithID(ctx, s.ids, repository.SeqTelemetry, supplied, func(id int64) error {
		ev.EventID = id
		return s.events.Create(ctx, ev)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Newf(apperr.KindPreconditionFailed, "telemetry event %d already exists", ev.EventID)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "store telemetry event", err)
	}
	return ev, nil
}

// suppliedEventID returns a client supplied numeric id, or 0 when the value
// is absent or not numeric and an id has to be allocated.
func suppliedEventID(raw any) (int64, error) {
	n, ok := coerceNumber(raw)
	if !ok {
		return 0, nil
	}
	if n <= 0 || n != math.Trunc(n) || n > math.MaxInt64/2 {
		return 0, apperr.InvalidInput("event_id must be a positive integer")
	}
	return int64(n), nil
}

// ListByVehicle returns the latest events of a vehicle, newest first.
func (s *TelemetryService) ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]model.TelemetryEvent, error) {
	if vehicleID <= 0 {
		return nil, apperr.InvalidInput("invalid vehicle id")
	}
	if limit <= 0 || limit > 1000 {
		limit = defaultTelemetryListLimit
	}
	events, err := s.events.ListByVehicle(ctx, vehicleID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list telemetry", err)
	}
	return events, nil
}

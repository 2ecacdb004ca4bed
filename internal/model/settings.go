package model

import "time"

// Keys of the tunable settings read by the rule engines.
const (
	SettingCascoCoeff           = "cascoCoeff"
	SettingOscpvCoeff           = "oscpvCoeff"
	SettingImpactSpeedThreshold = "impactSpeedThreshold"
)

// Defaults applied when a setting is absent or has no numeric value.
const (
	DefaultCascoCoeff           = 1.5
	DefaultOscpvCoeff           = 1.0
	DefaultImpactSpeedThreshold = 30.0
)

// Setting is a row of the `system_settings` key/value table. Exactly one of
// ValueNumber and ValueString is normally populated.
type Setting struct {
	Key         string    `json:"key"`
	ValueNumber *float64  `json:"valueNumber"`
	ValueString *string   `json:"valueString"`
	UpdatedAt   time.Time `json:"updated_at"`
}

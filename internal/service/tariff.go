package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/auto-insurance/internal/apperr"
	"github.com/iliyamo/auto-insurance/internal/model"
	"github.com/iliyamo/auto-insurance/internal/repository"
)

// TariffSnapshot is the set of tariff coefficients in force at one instant.
// Engines load it once at the start of a call and never re-read it.
type TariffSnapshot struct {
	CascoCoeff float64
	OscpvCoeff float64
}

// LoadTariffSnapshot reads both coefficients, applying the documented
// defaults for absent or non-numeric entries.
func LoadTariffSnapshot(ctx context.Context, settings SettingsStore) (TariffSnapshot, error) {
	casco, err := numberSetting(ctx, settings, model.SettingCascoCoeff, model.DefaultCascoCoeff)
	if err != nil {
		return TariffSnapshot{}, err
	}
	oscpv, err := numberSetting(ctx, settings, model.SettingOscpvCoeff, model.DefaultOscpvCoeff)
	if err != nil {
		return TariffSnapshot{}, err
	}
	return TariffSnapshot{CascoCoeff: casco, OscpvCoeff: oscpv}, nil
}

// Coefficient returns the multiplier for a tariff plan. Only CASCO has its
// own coefficient; every other plan is priced as OSCPV.
func (t TariffSnapshot) Coefficient(plan string) float64 {
	if plan == string(model.PolicyCASCO) {
		return t.CascoCoeff
	}
	return t.OscpvCoeff
}

// moneyScale is the number of fractional digits stored for amounts.
const moneyScale = 2

// ComputePremium returns basePremium multiplied by the plan coefficient,
// rounded half away from zero to cents like the DECIMAL columns it is
// stored in. The multiplication is done in decimal so 0.1 × 3 is 0.3.
func (t TariffSnapshot) ComputePremium(basePremium float64, plan string) (float64, error) {
	if !isFinite(basePremium) || basePremium < 0 {
		return 0, apperr.InvalidInput("base_premium must be a finite non-negative number")
	}
	premium := decimal.NewFromFloat(basePremium).Mul(decimal.NewFromFloat(t.Coefficient(plan)))
	return premium.Round(moneyScale).InexactFloat64(), nil
}

// numberSetting reads a numeric setting, returning def when the key is
// absent or holds no finite number.
func numberSetting(ctx context.Context, settings SettingsStore, key string, def float64) (float64, error) {
	s, err := settings.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "load setting "+key, err)
	}
	if s == nil || s.ValueNumber == nil || !isFinite(*s.ValueNumber) {
		return def, nil
	}
	return *s.ValueNumber, nil
}

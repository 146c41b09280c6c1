package simulation

import (
	"SimTape/internal/domain/models"
)

// regimeDefaults maps each regime type to its default per-bar parameters.
// Drift values are per-bar fractional returns; volatility multipliers are
// relative to the scenario's baseVolatility.
var regimeDefaults = map[models.RegimeType]models.RegimeParameters{
	models.RegimeRange: {
		VolatilityMultiplier:   1.0,
		Drift:                  0,
		VolumeMultiplier:       1.0,
		MeanReversion:          0.3,
		FatTailProbability:     0.01,
		GapProbabilityModifier: 1.0,
	},
	models.RegimeTrendUp: {
		VolatilityMultiplier:   1.1,
		Drift:                  0.0008,
		VolumeMultiplier:       1.1,
		MeanReversion:          0,
		FatTailProbability:     0.01,
		GapProbabilityModifier: 1.0,
	},
	models.RegimeTrendDown: {
		VolatilityMultiplier:   1.2,
		Drift:                  -0.0008,
		VolumeMultiplier:       1.2,
		MeanReversion:          0,
		FatTailProbability:     0.015,
		GapProbabilityModifier: 1.0,
	},
	models.RegimeLowVol: {
		VolatilityMultiplier:   0.5,
		Drift:                  0.0001,
		VolumeMultiplier:       0.7,
		MeanReversion:          0.2,
		FatTailProbability:     0.005,
		GapProbabilityModifier: 0.5,
	},
	models.RegimeHighVol: {
		VolatilityMultiplier:   2.0,
		Drift:                  0,
		VolumeMultiplier:       1.6,
		MeanReversion:          0.1,
		FatTailProbability:     0.04,
		GapProbabilityModifier: 1.5,
	},
	models.RegimeCrash: {
		VolatilityMultiplier:   3.0,
		Drift:                  -0.004,
		VolumeMultiplier:       2.5,
		MeanReversion:          0,
		FatTailProbability:     0.12,
		GapProbabilityModifier: 2.0,
	},
}

// ScheduleEntry covers the inclusive bar range [Start, End] with resolved
// regime parameters.
type ScheduleEntry struct {
	Start  int
	End    int
	Params models.RegimeParameters
}

// Schedule is a bar-indexed regime lookup table tiling [0, totalBars).
type Schedule []ScheduleEntry

// resolvePhase applies phase-level overrides onto the type's defaults.
func resolvePhase(p models.RegimePhase, baseVol float64) models.RegimeParameters {
	params, ok := regimeDefaults[p.Type]
	if !ok {
		params = regimeDefaults[models.RegimeRange]
	}
	if p.Volatility != nil && baseVol > 0 {
		params.VolatilityMultiplier = *p.Volatility / baseVol
	}
	if p.Drift != nil {
		params.Drift = *p.Drift
	}
	if p.VolumeMultiplier > 0 {
		params.VolumeMultiplier *= p.VolumeMultiplier
	}
	return params
}

// BuildRegimeSchedule converts an ordered phase list into a schedule covering
// every bar in [0, totalBars). An empty phase list yields a single implicit
// RANGE phase. A schedule shorter than totalBars is extended by repeating the
// final phase; excess phases past totalBars are never reached.
func BuildRegimeSchedule(phases []models.RegimePhase, totalBars int, baseVol float64) Schedule {
	if totalBars <= 0 {
		return nil
	}
	if len(phases) == 0 {
		phases = []models.RegimePhase{{Type: models.RegimeRange, Bars: totalBars}}
	}

	sched := make(Schedule, 0, len(phases)+1)
	cursor := 0
	for _, p := range phases {
		if cursor >= totalBars {
			break
		}
		if p.Bars <= 0 {
			continue
		}
		end := cursor + p.Bars - 1
		if end > totalBars-1 {
			end = totalBars - 1
		}
		sched = append(sched, ScheduleEntry{Start: cursor, End: end, Params: resolvePhase(p, baseVol)})
		cursor += p.Bars
	}

	// Shortfall: repeat the final phase's parameters over the remainder.
	if cursor < totalBars {
		start := 0
		if n := len(sched); n > 0 {
			start = sched[n-1].End + 1
		}
		sched = append(sched, ScheduleEntry{
			Start:  start,
			End:    totalBars - 1,
			Params: resolvePhase(phases[len(phases)-1], baseVol),
		})
	}
	return sched
}

// At returns the regime parameters governing the given bar. Falls back to
// RANGE defaults if no entry matches; the builder's coverage guarantee makes
// that unreachable, but lookups must never fail.
func (s Schedule) At(bar int) models.RegimeParameters {
	for _, e := range s {
		if bar >= e.Start && bar <= e.End {
			return e.Params
		}
	}
	return regimeDefaults[models.RegimeRange]
}

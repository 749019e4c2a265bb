package analysis

import "fmt"

// Accepted input ranges for reef water parameters. Requests outside these
// bounds are rejected before any credit or counter is touched.
const (
	MinPH = 7.8
	MaxPH = 8.6

	MinSalinity = 1.020
	MaxSalinity = 1.030

	MinTemperatureC = 22.0
	MaxTemperatureC = 30.0

	MinAlkalinityDKH = 6.0
	MaxAlkalinityDKH = 12.0

	MinCalcium = 350.0
	MaxCalcium = 500.0

	MinMagnesium = 1150.0
	MaxMagnesium = 1450.0

	MaxNitrate   = 100.0
	MaxPhosphate = 1.0
)

// WaterParameters is the validated measurement set submitted for analysis.
// PH, Salinity and TankVolumeLiters are required; the remaining readings are
// optional and validated only when present.
type WaterParameters struct {
	PH              float64
	Salinity        float64
	TankVolumeLiters float64

	TemperatureC  *float64
	AlkalinityDKH *float64
	Calcium       *float64
	Magnesium     *float64
	Nitrate       *float64
	Phosphate     *float64
}

// Validate checks all readings against the accepted ranges.
func (p WaterParameters) Validate() error {
	if p.PH < MinPH || p.PH > MaxPH {
		return fmt.Errorf("%w: pH %.2f outside [%.1f, %.1f]", ErrInvalidParameters, p.PH, MinPH, MaxPH)
	}
	if p.Salinity < MinSalinity || p.Salinity > MaxSalinity {
		return fmt.Errorf("%w: salinity %.3f outside [%.3f, %.3f]", ErrInvalidParameters, p.Salinity, MinSalinity, MaxSalinity)
	}
	if p.TankVolumeLiters <= 0 {
		return fmt.Errorf("%w: tank volume must be positive", ErrInvalidParameters)
	}
	if p.TemperatureC != nil && (*p.TemperatureC < MinTemperatureC || *p.TemperatureC > MaxTemperatureC) {
		return fmt.Errorf("%w: temperature %.1f outside [%.1f, %.1f]", ErrInvalidParameters, *p.TemperatureC, MinTemperatureC, MaxTemperatureC)
	}
	if p.AlkalinityDKH != nil && (*p.AlkalinityDKH < MinAlkalinityDKH || *p.AlkalinityDKH > MaxAlkalinityDKH) {
		return fmt.Errorf("%w: alkalinity %.1f outside [%.1f, %.1f]", ErrInvalidParameters, *p.AlkalinityDKH, MinAlkalinityDKH, MaxAlkalinityDKH)
	}
	if p.Calcium != nil && (*p.Calcium < MinCalcium || *p.Calcium > MaxCalcium) {
		return fmt.Errorf("%w: calcium %.0f outside [%.0f, %.0f]", ErrInvalidParameters, *p.Calcium, MinCalcium, MaxCalcium)
	}
	if p.Magnesium != nil && (*p.Magnesium < MinMagnesium || *p.Magnesium > MaxMagnesium) {
		return fmt.Errorf("%w: magnesium %.0f outside [%.0f, %.0f]", ErrInvalidParameters, *p.Magnesium, MinMagnesium, MaxMagnesium)
	}
	if p.Nitrate != nil && (*p.Nitrate < 0 || *p.Nitrate > MaxNitrate) {
		return fmt.Errorf("%w: nitrate %.1f outside [0, %.0f]", ErrInvalidParameters, *p.Nitrate, MaxNitrate)
	}
	if p.Phosphate != nil && (*p.Phosphate < 0 || *p.Phosphate > MaxPhosphate) {
		return fmt.Errorf("%w: phosphate %.2f outside [0, %.1f]", ErrInvalidParameters, *p.Phosphate, MaxPhosphate)
	}
	return nil
}

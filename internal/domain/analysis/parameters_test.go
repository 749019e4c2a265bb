package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func validParams() WaterParameters {
	return WaterParameters{
		PH:               8.2,
		Salinity:         1.025,
		TankVolumeLiters: 200,
	}
}

func TestWaterParameters_Validate(t *testing.T) {
	assert.NoError(t, validParams().Validate())
}

func TestWaterParameters_Validate_AllOptionalFields(t *testing.T) {
	p := validParams()
	p.TemperatureC = floatPtr(25.5)
	p.AlkalinityDKH = floatPtr(8.5)
	p.Calcium = floatPtr(420)
	p.Magnesium = floatPtr(1300)
	p.Nitrate = floatPtr(5)
	p.Phosphate = floatPtr(0.03)

	assert.NoError(t, p.Validate())
}

func TestWaterParameters_Validate_RequiredBounds(t *testing.T) {
	p := validParams()
	p.PH = 7.0
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParams()
	p.PH = 9.0
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParams()
	p.Salinity = 1.010
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParams()
	p.TankVolumeLiters = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParams()
	p.TankVolumeLiters = -10
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
}

func TestWaterParameters_Validate_OptionalBounds(t *testing.T) {
	p := validParams()
	p.TemperatureC = floatPtr(35)
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParams()
	p.AlkalinityDKH = floatPtr(3)
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParams()
	p.Calcium = floatPtr(600)
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParams()
	p.Magnesium = floatPtr(900)
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParams()
	p.Nitrate = floatPtr(-1)
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)

	p = validParams()
	p.Phosphate = floatPtr(2)
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameters)
}

func TestWaterParameters_Validate_EdgeOfRange(t *testing.T) {
	p := validParams()
	p.PH = MinPH
	assert.NoError(t, p.Validate())

	p.PH = MaxPH
	assert.NoError(t, p.Validate())

	p = validParams()
	p.Salinity = MinSalinity
	assert.NoError(t, p.Validate())

	p.Salinity = MaxSalinity
	assert.NoError(t, p.Validate())
}

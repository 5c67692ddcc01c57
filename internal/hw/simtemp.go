package hw

import "sync/atomic"

// SimTempSensor is a settable stand-in for read_onboard_temperature().
// Tests drive thermal scenarios directly by calling Set rather than
// faking an ADC conversion.
type SimTempSensor struct {
	milliC atomic.Int64
}

// NewSimTempSensor returns a sensor reading the given initial Celsius
// value.
func NewSimTempSensor(celsius float64) *SimTempSensor {
	t := &SimTempSensor{}
	t.Set(celsius)
	return t
}

func (t *SimTempSensor) Set(celsius float64) {
	t.milliC.Store(int64(celsius * 1000))
}

func (t *SimTempSensor) ReadCelsius() float64 {
	return float64(t.milliC.Load()) / 1000.0
}

package env

import "time"

// Sample represents a single ambient measurement (BME280).
type Sample struct {
	AirTempC    float64 `json:"air_temp_c"`   // °C
	HumidityPct float64 `json:"humidity_pct"` // %RH

	SampledAt time.Time `json:"sampled_at"`
}

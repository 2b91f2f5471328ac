package models

import "time"

// Candle represents an OHLCV record for feature engineering and simulation.
type Candle struct {
	Bucket   time.Time `json:"bucket"`
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// FeatureVector is one row of derived indicator values for (symbol, interval, timestamp).
type FeatureVector struct {
	Symbol    string             `json:"symbol"`
	Interval  string             `json:"interval"`
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"features"`
}

// Has reports whether the named feature is present in the vector.
func (fv *FeatureVector) Has(name string) bool {
	if fv == nil {
		return false
	}
	_, ok := fv.Values[name]
	return ok
}

package domain

import "time"

// Resolution selects between the two bar tables.
type Resolution string

const (
	ResolutionDaily  Resolution = "daily"
	ResolutionHourly Resolution = "hourly"
)

// Valid reports whether the resolution is one of the supported values.
func (r Resolution) Valid() bool {
	return r == ResolutionDaily || r == ResolutionHourly
}

// DailyBar is one OHLCV day for the asset.
// Corresponds to the daily_bars table. Daily bars are immutable once
// written: conflicts on date are ignored.
type DailyBar struct {
	Date     time.Time // truncated to the calendar day, unique
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// HourlyBar is one OHLCV hour for the asset.
// Corresponds to the hourly_bars table. Hourly bars may be revised
// intraday, so conflicts on timestamp overwrite the stored values.
type HourlyBar struct {
	Timestamp  time.Time // truncated to the hour, unique
	Open       float64
	High       float64
	Low        float64
	Close      float64
	VolumeFrom float64 // volume denominated in the asset
	VolumeTo   float64 // volume denominated in the quote currency
}

// PriceBar is the resolution-neutral view the aggregation engine joins
// against. Volume carries DailyBar.Volume or HourlyBar.VolumeTo.
type PriceBar struct {
	PeriodKey string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

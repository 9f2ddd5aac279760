package models

import "time"

// Station is a fixed physical monitoring location parsed from configuration.
// Stations are immutable once loaded; there is no runtime mutation.
type Station struct {
	ID        string  `json:"stationId"`
	Name      string  `json:"stationName"`
	State     string  `json:"state,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Region    string  `json:"region,omitempty"`
	IsActive  bool    `json:"isActive"`
}

// WaterLevelReading is a single normalized water level observation.
// Station name and coordinates are denormalized onto every reading at fetch
// time so the store never needs a join to render station-labeled results.
// (StationID, Timestamp) identifies a reading; re-ingesting the same pair
// relies on the store's rowkey upsert.
type WaterLevelReading struct {
	StationID    string    `json:"stationId"`
	StationName  string    `json:"stationName"`
	Timestamp    time.Time `json:"timestamp"`
	WaterLevel   float64   `json:"waterLevel"`
	Datum        string    `json:"datum"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	QualityFlags string    `json:"qualityFlags"`
}

// MonthlyMean is one month's mean sea level for a station. Month is the
// first of the month at UTC midnight; (StationID, Year, MonthNumber) is the
// uniqueness key.
type MonthlyMean struct {
	StationID    string    `json:"stationId"`
	StationName  string    `json:"stationName"`
	Month        time.Time `json:"month"`
	MeanSeaLevel float64   `json:"meanSeaLevel"`
	Year         int       `json:"year"`
	MonthNumber  int       `json:"monthNumber"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
}

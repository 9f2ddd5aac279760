// Package stations holds the static registry of monitored tide stations and
// the per-station metadata cache used to enrich fetched readings.
package stations

import (
	"strconv"
	"strings"

	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/models"
)

// Registry is the static list of monitored stations, parsed once from a
// semicolon-separated, comma-delimited configuration string.
type Registry struct {
	stations []models.Station
}

// NewRegistry parses a configuration string of the form
//
//	id,name,state,latitude,longitude,active[,region];...
//
// Entries with fewer than 6 fields, or with unparseable coordinates, are
// skipped without error. An empty or fully-malformed configuration yields an
// empty registry; callers must handle zero stations gracefully.
func NewRegistry(cfg string) *Registry {
	var parsed []models.Station

	for _, entry := range strings.Split(cfg, ";") {
		fields := strings.Split(entry, ",")
		if len(fields) < 6 {
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		lat, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			continue
		}
		// Anything other than "true" (case-insensitive) means inactive.
		active := strings.EqualFold(fields[5], "true")

		station := models.Station{
			ID:        fields[0],
			Name:      fields[1],
			State:     fields[2],
			Latitude:  lat,
			Longitude: lon,
			IsActive:  active,
		}
		if len(fields) >= 7 {
			station.Region = fields[6]
		}
		parsed = append(parsed, station)
	}

	return &Registry{stations: parsed}
}

// List returns the configured stations in registry order.
func (r *Registry) List() []models.Station {
	out := make([]models.Station, len(r.stations))
	copy(out, r.stations)
	return out
}

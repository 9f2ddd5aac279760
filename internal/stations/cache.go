package stations

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/models"
)

// Coordinates stamped onto readings for stations we know nothing about.
const (
	placeholderLatitude  = 40.0
	placeholderLongitude = -74.0
)

// EnrichmentCache maps station ids to the metadata that gets denormalized
// onto every fetched record. It is safe for concurrent use. Ids that were
// never seeded resolve to a synthetic placeholder station which is cached and
// reused, so records for an unknown station stay consistent across fetches.
type EnrichmentCache struct {
	entries *lru.Cache
}

// NewEnrichmentCache creates a cache bounded to size entries.
func NewEnrichmentCache(size int) (*EnrichmentCache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &EnrichmentCache{entries: entries}, nil
}

// Seed inserts metadata for the given stations, replacing prior entries.
func (c *EnrichmentCache) Seed(list []models.Station) {
	for _, station := range list {
		c.entries.Add(station.ID, station)
	}
}

// Lookup returns the cached metadata for stationID. Unknown ids get a
// placeholder inserted if absent; concurrent lookups of the same unknown id
// all observe a single cached entry.
func (c *EnrichmentCache) Lookup(stationID string) models.Station {
	placeholder := models.Station{
		ID:        stationID,
		Name:      "Station " + stationID,
		Latitude:  placeholderLatitude,
		Longitude: placeholderLongitude,
	}

	previous, ok, _ := c.entries.PeekOrAdd(stationID, placeholder)
	if ok {
		return previous.(models.Station)
	}
	return placeholder
}

package griddb

// EntityKind names a logical container in the remote store, one per record
// type.
type EntityKind string

const (
	KindWaterLevel  EntityKind = "water_level"
	KindMonthlyMean EntityKind = "monthly_mean"
	KindStation     EntityKind = "station"
)

// SchemaResult is the outcome of a container provisioning attempt.
type SchemaResult int

const (
	// SchemaFailed means the store rejected the request for a reason other
	// than the container already existing.
	SchemaFailed SchemaResult = iota
	// SchemaCreated means the container was newly provisioned.
	SchemaCreated
	// SchemaExists means the container was already there; treated as success.
	SchemaExists
)

func (r SchemaResult) String() string {
	switch r {
	case SchemaCreated:
		return "created"
	case SchemaExists:
		return "already-exists"
	default:
		return "failed"
	}
}

type column struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Index []string `json:"index"`
}

type containerDef struct {
	ContainerName string   `json:"container_name"`
	ContainerType string   `json:"container_type"`
	RowKey        bool     `json:"rowkey"`
	Columns       []column `json:"columns"`
}

// Fixed column layouts. Row serialization in client.go must match these
// orders exactly; the store writes rows positionally.
func containerDefs(waterLevel, monthlyMean, station string) map[EntityKind]containerDef {
	return map[EntityKind]containerDef{
		KindWaterLevel: {
			ContainerName: waterLevel,
			ContainerType: "COLLECTION",
			RowKey:        true,
			Columns: []column{
				{Name: "timestamp", Type: "TIMESTAMP", Index: []string{}},
				{Name: "station_id", Type: "STRING", Index: []string{}},
				{Name: "station_name", Type: "STRING", Index: []string{}},
				{Name: "water_level", Type: "DOUBLE", Index: []string{}},
				{Name: "datum", Type: "STRING", Index: []string{}},
				{Name: "latitude", Type: "DOUBLE", Index: []string{}},
				{Name: "longitude", Type: "DOUBLE", Index: []string{}},
				{Name: "flags", Type: "STRING", Index: []string{}},
			},
		},
		KindMonthlyMean: {
			ContainerName: monthlyMean,
			ContainerType: "COLLECTION",
			RowKey:        true,
			Columns: []column{
				{Name: "month", Type: "TIMESTAMP", Index: []string{}},
				{Name: "station_id", Type: "STRING", Index: []string{}},
				{Name: "station_name", Type: "STRING", Index: []string{}},
				{Name: "mean_sea_level", Type: "DOUBLE", Index: []string{}},
				{Name: "year", Type: "INTEGER", Index: []string{}},
				{Name: "month_number", Type: "INTEGER", Index: []string{}},
				{Name: "latitude", Type: "DOUBLE", Index: []string{}},
				{Name: "longitude", Type: "DOUBLE", Index: []string{}},
			},
		},
		KindStation: {
			ContainerName: station,
			ContainerType: "COLLECTION",
			RowKey:        true,
			Columns: []column{
				{Name: "station_id", Type: "STRING", Index: []string{}},
				{Name: "station_name", Type: "STRING", Index: []string{}},
				{Name: "state", Type: "STRING", Index: []string{}},
				{Name: "latitude", Type: "DOUBLE", Index: []string{}},
				{Name: "longitude", Type: "DOUBLE", Index: []string{}},
				{Name: "region", Type: "STRING", Index: []string{}},
				{Name: "is_active", Type: "BOOL", Index: []string{}},
				{Name: "last_updated", Type: "TIMESTAMP", Index: []string{}},
			},
		},
	}
}

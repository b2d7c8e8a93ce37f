// Package dataset turns a set of dropped table names into a chart-ready
// dataset, degrading through fetch strategies down to deterministic demo data.
package dataset

import (
	"github.com/ayusman/pinchviz/internal/source"
)

// TableField tags every record with the table it came from.
const TableField = "_table"

// Kind selects the chart layout. It is decided once by the engine.
type Kind int

const (
	// KindGeneric groups tagged records by their best x-axis field.
	KindGeneric Kind = iota
	// KindEventsRegistrations charts registrations per event.
	KindEventsRegistrations
	// KindSchemaJoin charts a count over a foreign key known from the schema.
	KindSchemaJoin
	// KindRelationship charts a foreign key detected from record fields.
	KindRelationship
)

func (k Kind) String() string {
	switch k {
	case KindEventsRegistrations:
		return "events_registrations"
	case KindSchemaJoin:
		return "schema_join"
	case KindRelationship:
		return "relationship"
	default:
		return "generic"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Join types for KindSchemaJoin.
const (
	JoinUserActivity         = "user_activity"
	JoinCategoryDistribution = "category_distribution"
	JoinRelationshipCount    = "relationship_count"
)

// RegistrationCount is the column added to each event record.
const RegistrationCount = "registration_count"

// Dataset is the chart-ready result of one generate action. It must not be
// modified after it is handed to the renderer.
type Dataset struct {
	Kind    Kind            `json:"kind"`
	Tables  []string        `json:"tables"`
	Records []source.Record `json:"records"`

	// XField labels each bar; YField holds its numeric value. An empty
	// YField means bars count records.
	XField string `json:"x_field"`
	YField string `json:"y_field"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`

	JoinType     string               `json:"join_type,omitempty"`
	Title        string               `json:"title"`
	Subtitle     string               `json:"subtitle"`
	Relationship *source.Relationship `json:"relationship,omitempty"`

	// Demo marks synthesized fallback data.
	Demo bool `json:"demo"`
}

// Empty reports whether there is nothing to chart.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Records) == 0
}

// RecordsOf returns the records tagged with table.
func (d *Dataset) RecordsOf(table string) []source.Record {
	var out []source.Record
	for _, r := range d.Records {
		if r[TableField] == table {
			out = append(out, r)
		}
	}
	return out
}

// TableIndex returns the position of table in Tables, or -1.
func (d *Dataset) TableIndex(table string) int {
	for i, t := range d.Tables {
		if t == table {
			return i
		}
	}
	return -1
}

func tag(records []source.Record, table string) []source.Record {
	for _, r := range records {
		r[TableField] = table
	}
	return records
}

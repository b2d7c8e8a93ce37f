package chart

import (
	"image/color"
	"sort"
	"time"

	"github.com/ayusman/pinchviz/internal/dataset"
	"github.com/ayusman/pinchviz/internal/draw"
)

// Bar caps per layout.
const (
	MaxEventBars        = 20
	MaxSchemaJoinBars   = 25
	MaxRelationshipBars = 20
	MaxGenericBars      = 30
)

// LabelMax is the rune limit of category labels.
const LabelMax = 20

// Palette colors bars by index.
var Palette = []color.NRGBA{
	draw.Hex(0x00e5ff),
	draw.Hex(0xff4081),
	draw.Hex(0x76ff03),
	draw.Hex(0xffc400),
	draw.Hex(0xb388ff),
	draw.Hex(0xff6e40),
}

// Neutral colors bars whose table is not part of the dataset.
var Neutral = draw.Hex(0x9e9e9e)

const undatedLabel = "unknown date"

// Bar is one category of a chart.
type Bar struct {
	Label string
	Value float64
	Table string
	Color color.NRGBA
}

// Stats summarizes a dataset for the statistics panel. Total, Average and
// Max cover every bar, including those beyond the layout cap.
type Stats struct {
	Records int
	Total   float64
	Average float64
	Max     float64
}

// MaxBars returns the bar cap of a layout.
func MaxBars(k dataset.Kind) int {
	switch k {
	case dataset.KindEventsRegistrations:
		return MaxEventBars
	case dataset.KindSchemaJoin:
		return MaxSchemaJoinBars
	case dataset.KindRelationship:
		return MaxRelationshipBars
	default:
		return MaxGenericBars
	}
}

// Bars computes the sorted, capped bars and the summary of ds. It does not
// modify ds.
func Bars(ds *dataset.Dataset) ([]Bar, Stats) {
	if ds.Empty() {
		return nil, Stats{}
	}

	var bars []Bar
	switch ds.Kind {
	case dataset.KindEventsRegistrations, dataset.KindSchemaJoin:
		bars = valueBars(ds)
	case dataset.KindRelationship:
		bars = relationshipBars(ds)
	default:
		bars = groupedBars(ds)
	}

	stats := Stats{Records: len(ds.Records)}
	for _, b := range bars {
		stats.Total += b.Value
		if b.Value > stats.Max {
			stats.Max = b.Value
		}
	}
	if len(bars) > 0 {
		stats.Average = stats.Total / float64(len(bars))
	}

	if limit := MaxBars(ds.Kind); len(bars) > limit {
		bars = bars[:limit]
	}
	return bars, stats
}

func valueBars(ds *dataset.Dataset) []Bar {
	bars := make([]Bar, 0, len(ds.Records))
	for _, r := range ds.Records {
		v, _ := dataset.Number(r[ds.YField])
		table, _ := r[dataset.TableField].(string)
		bars = append(bars, Bar{Label: dataset.Label(r[ds.XField]), Value: v, Table: table})
	}
	sortDescending(bars)
	for i := range bars {
		bars[i].Color = Palette[i%len(Palette)]
	}
	return bars
}

func relationshipBars(ds *dataset.Dataset) []Bar {
	rel := ds.Relationship
	if rel == nil {
		return groupedBars(ds)
	}

	counts := make(map[string]int)
	for _, r := range ds.RecordsOf(rel.ReferencingTable) {
		counts[dataset.Key(r[rel.ForeignKey])]++
	}

	referenced := ds.RecordsOf(rel.ReferencedTable)
	bars := make([]Bar, 0, len(referenced))
	for _, r := range referenced {
		bars = append(bars, Bar{
			Label: dataset.Label(r[ds.XField]),
			Value: float64(counts[dataset.Key(r["id"])]),
			Table: rel.ReferencedTable,
		})
	}
	sortDescending(bars)
	for i := range bars {
		bars[i].Color = Palette[i%len(Palette)]
	}
	return bars
}

type group struct {
	bar Bar
	day time.Time
}

// groupedBars groups records by the x-axis field value, or by calendar day
// for date fields, and colors each group by its first record's table.
func groupedBars(ds *dataset.Dataset) []Bar {
	byDate := dataset.IsDateField(ds.XField)
	index := make(map[string]*group)
	var order []*group

	for _, r := range ds.Records {
		var key string
		var day time.Time
		if byDate {
			d, ok := dataset.Day(r[ds.XField])
			if ok {
				day = d
				key = d.Format("2006-01-02")
			} else {
				key = undatedLabel
			}
		} else {
			key = dataset.Label(r[ds.XField])
		}

		g, ok := index[key]
		if !ok {
			table, _ := r[dataset.TableField].(string)
			g = &group{bar: Bar{Label: key, Table: table, Color: TableColor(ds, table)}, day: day}
			index[key] = g
			order = append(order, g)
		}

		if ds.YField == "" {
			g.bar.Value++
		} else if v, ok := dataset.Number(r[ds.YField]); ok {
			g.bar.Value += v
		}
	}

	if byDate {
		sort.SliceStable(order, func(i, j int) bool {
			a, b := order[i], order[j]
			if a.day.IsZero() != b.day.IsZero() {
				return b.day.IsZero()
			}
			return a.day.Before(b.day)
		})
	}

	bars := make([]Bar, len(order))
	for i, g := range order {
		bars[i] = g.bar
	}
	if !byDate {
		sortDescending(bars)
	}
	return bars
}

// TableColor returns the palette color of table's position in the dataset,
// or Neutral when the table is not part of it.
func TableColor(ds *dataset.Dataset, table string) color.NRGBA {
	i := ds.TableIndex(table)
	if i < 0 {
		return Neutral
	}
	return Palette[i%len(Palette)]
}

func sortDescending(bars []Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Value > bars[j].Value
	})
}

package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/ayusman/pinchviz/internal/source"
)

var demoEventTitles = []string{
	"Kickoff Meetup",
	"Data Viz Workshop",
	"Hack Night",
	"Design Sprint",
	"Tech Talk",
	"Gesture UI Demo",
	"Community Standup",
	"Closing Party",
}

// DemoEventCount is the number of synthesized demo events.
const DemoEventCount = 8

// demoEvents synthesizes events with registration counts in [5, 55).
func demoEvents(seed uint64) []source.Record {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]source.Record, DemoEventCount)
	for i := range out {
		out[i] = source.Record{
			"id":              int64(i + 1),
			"title":           demoEventTitles[i],
			RegistrationCount: int64(5 + rng.IntN(50)),
		}
	}
	return out
}

// demoRows synthesizes five rows per table with a random value. With exactly
// two tables the second table's rows reference the first.
func demoRows(names []string, seed uint64) map[string][]source.Record {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make(map[string][]source.Record, len(names))
	for _, name := range names {
		rows := make([]source.Record, 5)
		for i := range rows {
			rows[i] = source.Record{
				"id":       int64(i + 1),
				"name":     fmt.Sprintf("%s %d", Title(singular(fold(name))), i+1),
				"value":    int64(10 + rng.IntN(90)),
				TableField: name,
			}
		}
		out[name] = rows
	}

	if len(names) == 2 {
		fk := singular(fold(names[0])) + "_id"
		for _, r := range out[names[1]] {
			r[fk] = int64(1 + rng.IntN(5))
		}
	}
	return out
}

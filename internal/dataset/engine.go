package dataset

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ayusman/pinchviz/internal/source"
)

// RegistrationForeignKeys are tried in order when counting registrations.
var RegistrationForeignKeys = []string{"event_id", "eventId", "events_id"}

// DefaultSeed seeds demo data when none is configured.
const DefaultSeed uint64 = 42

// Config holds engine options.
type Config struct {
	// Seed makes demo data reproducible.
	Seed uint64
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{Seed: DefaultSeed}
}

// Engine builds datasets from a relational source. It never returns an
// error: every failed strategy degrades to the next, ending in demo data.
//
// Callers must not start a new Generate for the same chart session while one
// is outstanding; the generate button latch guarantees this.
type Engine struct {
	src    source.Source
	config Config
}

// NewEngine returns an engine reading from src. A nil src always yields demo data.
func NewEngine(src source.Source, config Config) *Engine {
	return &Engine{src: src, config: config}
}

// Generate builds the dataset for the given table names. Duplicate names are
// ignored. A cancelled ctx skips any remaining queries.
func (e *Engine) Generate(ctx context.Context, names []string) *Dataset {
	names = distinct(names)
	if len(names) == 0 {
		return &Dataset{Kind: KindGeneric, Title: "No tables selected"}
	}

	if events, regs, ok := eventsRegistrationsPair(names); ok {
		return e.eventsRegistrations(ctx, names, events, regs)
	}

	if len(names) == 2 {
		ds, err := e.schemaJoin(ctx, names)
		if err == nil {
			return ds
		}
		if !errors.Is(err, errNoRelationship) {
			log.Printf("dataset: schema join %v failed, fetching tables: %v", names, err)
		}
	}

	return e.generic(ctx, names)
}

// eventsRegistrationsPair matches exactly two names where one contains
// "registration" and the other contains "event".
func eventsRegistrationsPair(names []string) (events, regs string, ok bool) {
	if len(names) != 2 {
		return "", "", false
	}
	for i, n := range names {
		other := names[1-i]
		if containsFold(n, "registration") && containsFold(other, "event") && !containsFold(other, "registration") {
			return other, n, true
		}
	}
	return "", "", false
}

func (e *Engine) eventsRegistrations(ctx context.Context, names []string, events, regs string) *Dataset {
	ds := &Dataset{
		Kind:     KindEventsRegistrations,
		Tables:   names,
		YField:   RegistrationCount,
		XLabel:   "Event",
		YLabel:   "Registrations",
		JoinType: RegistrationCount,
		Title:    "Event Registrations",
		Subtitle: fmt.Sprintf("%s joined with %s", Title(events), Title(regs)),
	}

	records, err := e.countRegistrations(ctx, events, regs)
	if err != nil {
		log.Printf("dataset: events/registrations fetch failed, using demo data: %v", err)
		records = demoEvents(e.config.Seed)
		ds.Demo = true
		ds.Subtitle = "Demo data"
	}

	ds.Records = tag(records, events)
	ds.XField = LabelField(ds.Records)
	return ds
}

// countRegistrations prefers a single nested count query and falls back to
// two full fetches counted by hand.
func (e *Engine) countRegistrations(ctx context.Context, events, regs string) ([]source.Record, error) {
	if e.src == nil {
		return nil, errors.New("no data source")
	}

	if cq, ok := e.src.(source.CountQuerier); ok {
		for _, fk := range RegistrationForeignKeys {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			records, err := cq.FetchWithCount(ctx, events, regs, fk, RegistrationCount)
			if err == nil {
				return records, nil
			}
			log.Printf("dataset: count query on %s.%s failed: %v", regs, fk, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	eventRows, err := e.src.FetchAll(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", events, err)
	}
	regRows, err := e.src.FetchAll(ctx, regs)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", regs, err)
	}

	fk := firstPresent(regRows, RegistrationForeignKeys)
	counts := make(map[string]int)
	if fk != "" {
		for _, r := range regRows {
			counts[Key(r[fk])]++
		}
	}
	for _, ev := range eventRows {
		ev[RegistrationCount] = int64(counts[Key(ev["id"])])
	}
	return eventRows, nil
}

var errNoRelationship = errors.New("no schema relationship")

func (e *Engine) schemaJoin(ctx context.Context, names []string) (*Dataset, error) {
	if e.src == nil {
		return nil, errNoRelationship
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rels, err := e.src.ListRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	rel, ok := source.Find(rels, names[0], names[1])
	if !ok {
		return nil, errNoRelationship
	}

	join, alias := classify(rel)
	records, err := e.countReferencing(ctx, rel, alias)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Kind:         KindSchemaJoin,
		Tables:       names,
		Records:      tag(records, rel.ReferencedTable),
		YField:       alias,
		XLabel:       Title(singular(rel.ReferencedTable)),
		JoinType:     join,
		Relationship: &rel,
	}
	ds.XField = BestXAxisField(records)

	switch join {
	case JoinUserActivity:
		ds.YLabel = Title(rel.ReferencingTable)
		ds.Title = "User Activity"
		ds.Subtitle = fmt.Sprintf("%s per user", Title(rel.ReferencingTable))
	case JoinCategoryDistribution:
		ds.YLabel = Title(rel.ReferencingTable)
		ds.Title = "Category Distribution"
		ds.Subtitle = fmt.Sprintf("%s per category", Title(rel.ReferencingTable))
	default:
		ds.YLabel = "Count"
		ds.Title = fmt.Sprintf("%s by %s", Title(rel.ReferencingTable), Title(singular(rel.ReferencedTable)))
		ds.Subtitle = fmt.Sprintf("via %s.%s", rel.ReferencingTable, rel.ForeignKey)
	}
	return ds, nil
}

// classify names the join from the referenced table and picks the count column.
func classify(rel source.Relationship) (join, alias string) {
	switch {
	case containsFold(rel.ReferencedTable, "user"):
		return JoinUserActivity, "activity_count"
	case containsFold(rel.ReferencedTable, "categor"):
		return JoinCategoryDistribution, "item_count"
	default:
		return JoinRelationshipCount, "related_count"
	}
}

func (e *Engine) countReferencing(ctx context.Context, rel source.Relationship, alias string) ([]source.Record, error) {
	if cq, ok := e.src.(source.CountQuerier); ok {
		records, err := cq.FetchWithCount(ctx, rel.ReferencedTable, rel.ReferencingTable, rel.ForeignKey, alias)
		if err == nil {
			return records, nil
		}
		log.Printf("dataset: count query on %s.%s failed: %v", rel.ReferencingTable, rel.ForeignKey, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parents, err := e.src.FetchAll(ctx, rel.ReferencedTable)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rel.ReferencedTable, err)
	}
	children, err := e.src.FetchAll(ctx, rel.ReferencingTable)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rel.ReferencingTable, err)
	}

	counts := make(map[string]int)
	for _, c := range children {
		counts[Key(c[rel.ForeignKey])]++
	}
	for _, p := range parents {
		p[alias] = int64(counts[Key(p["id"])])
	}
	return parents, nil
}

func (e *Engine) generic(ctx context.Context, names []string) *Dataset {
	ds := &Dataset{
		Kind:   KindGeneric,
		Tables: names,
		YLabel: "Records",
		Title:  strings.Join(titles(names), " + "),
	}

	perTable := make(map[string][]source.Record, len(names))
	fetched := 0
	for _, name := range names {
		if e.src == nil {
			break
		}
		if err := ctx.Err(); err != nil {
			log.Printf("dataset: generate cancelled: %v", err)
			break
		}
		rows, err := e.src.FetchAll(ctx, name)
		if err != nil {
			log.Printf("dataset: fetch %s failed: %v", name, err)
			continue
		}
		perTable[name] = tag(rows, name)
		ds.Records = append(ds.Records, rows...)
		fetched++
	}

	if fetched == 0 {
		log.Printf("dataset: no table could be fetched, using demo data for %v", names)
		perTable = demoRows(names, e.config.Seed)
		ds.Records = nil
		for _, name := range names {
			ds.Records = append(ds.Records, perTable[name]...)
		}
		ds.Demo = true
		ds.YField = "value"
		ds.YLabel = "Value"
		ds.Subtitle = "Demo data"
	}

	ds.XField = BestXAxisField(ds.Records)
	ds.XLabel = Title(ds.XField)

	if len(names) == 2 {
		rel, ok := DetectTableRelationships(names[0], perTable[names[0]], names[1], perTable[names[1]])
		if ok {
			ds.Kind = KindRelationship
			ds.Relationship = &rel
			ds.JoinType = JoinRelationshipCount
			ds.XField = BestXAxisField(perTable[rel.ReferencedTable])
			ds.XLabel = Title(singular(rel.ReferencedTable))
			ds.YField = ""
			ds.YLabel = Title(rel.ReferencingTable)
			ds.Title = fmt.Sprintf("%s per %s", Title(rel.ReferencingTable), Title(singular(rel.ReferencedTable)))
			if !ds.Demo {
				ds.Subtitle = fmt.Sprintf("detected %s.%s", rel.ReferencingTable, rel.ForeignKey)
			}
		}
	}
	if ds.Subtitle == "" {
		ds.Subtitle = fmt.Sprintf("%d records", len(ds.Records))
	}
	return ds
}

func firstPresent(records []source.Record, fields []string) string {
	for _, f := range fields {
		for _, r := range records {
			if _, ok := r[f]; ok {
				return f
			}
		}
	}
	return ""
}

func distinct(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func titles(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Title(n)
	}
	return out
}

package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ayusman/pinchviz/internal/source"
)

// DateFields are checked first, in order, when picking an x-axis field.
var DateFields = []string{"created", "createdAt", "created_at", "updatedAt", "updated_at", "date", "timestamp"}

// IsDateField reports whether name is one of DateFields.
func IsDateField(name string) bool {
	for _, f := range DateFields {
		if f == name {
			return true
		}
	}
	return false
}

// Fields returns the sorted union of record field names, excluding the table tag.
func Fields(records []source.Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			if k != TableField {
				seen[k] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LabelField picks the field naming each record on an explicit category axis:
// the first field containing "title", then "name", else BestXAxisField.
func LabelField(records []source.Record) string {
	if f := fieldContaining(Fields(records), "title", "name"); f != "" {
		return f
	}
	return BestXAxisField(records)
}

// fieldContaining returns the first field containing a needle, trying the
// needles in order.
func fieldContaining(fields []string, needles ...string) string {
	for _, needle := range needles {
		for _, f := range fields {
			if strings.Contains(fold(f), needle) {
				return f
			}
		}
	}
	return ""
}

// BestXAxisField picks the field used to label bars: a known date field,
// then a field containing "title", then one containing "name", then "id",
// then the first untagged field. It returns "" when records have no fields.
func BestXAxisField(records []source.Record) string {
	fields := Fields(records)
	if len(fields) == 0 {
		return ""
	}

	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	for _, f := range DateFields {
		if set[f] {
			return f
		}
	}

	if f := fieldContaining(fields, "title", "name"); f != "" {
		return f
	}

	if set["id"] {
		return "id"
	}
	for _, f := range fields {
		if !strings.HasPrefix(f, "_") {
			return f
		}
	}
	return ""
}

// DetectTableRelationships looks for a field in one record set that
// references the other table by name. The referencing side is checked in
// argument order; ok is false when neither side references the other.
func DetectTableRelationships(nameA string, a []source.Record, nameB string, b []source.Record) (source.Relationship, bool) {
	if fk := referencingField(Fields(a), nameB); fk != "" {
		return source.Relationship{
			Table1: nameA, Table2: nameB,
			ReferencingTable: nameA, ReferencedTable: nameB,
			ForeignKey: fk,
		}, true
	}
	if fk := referencingField(Fields(b), nameA); fk != "" {
		return source.Relationship{
			Table1: nameA, Table2: nameB,
			ReferencingTable: nameB, ReferencedTable: nameA,
			ForeignKey: fk,
		}, true
	}
	return source.Relationship{}, false
}

// referencingField returns the field of fields that points at table:
// exact "<table>_id"/"<table>id" (plural or singular) first, then any field
// containing the table name.
func referencingField(fields []string, table string) string {
	t := fold(table)
	if t == "" {
		return ""
	}
	one := singular(t)

	exact := []string{t + "_id", t + "id", one + "_id", one + "id"}
	for _, f := range fields {
		ff := fold(f)
		for _, e := range exact {
			if ff == e {
				return f
			}
		}
	}
	for _, f := range fields {
		if strings.Contains(fold(f), t) {
			return f
		}
	}
	return ""
}

// singular strips a simple English plural suffix.
func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies") && len(name) > 3:
		return name[:len(name)-3] + "y"
	case strings.HasSuffix(name, "ss"):
		return name
	case strings.HasSuffix(name, "s") && len(name) > 1:
		return name[:len(name)-1]
	}
	return name
}

// fold returns the case-folded form of s for case-insensitive matching.
func fold(s string) string {
	return cases.Fold().String(s)
}

// containsFold reports whether needle occurs in s, ignoring case.
func containsFold(s, needle string) bool {
	return strings.Contains(fold(s), fold(needle))
}

// Title turns a table or field name into a display title.
func Title(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Number converts a record value to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		return f, err == nil
	}
	return 0, false
}

// Label formats a record value for display.
func Label(v any) string {
	switch x := v.(type) {
	case nil:
		return "(none)"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04")
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Day returns the calendar day of a date value.
func Day(v any) (time.Time, bool) {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case string:
		parsed, ok := parseDate(x)
		if !ok {
			return time.Time{}, false
		}
		t = parsed
	case int64:
		// Unix seconds.
		t = time.Unix(x, 0).UTC()
	default:
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Key returns a stable string for matching values across tables, so that an
// int64 id matches a float64 or string foreign key.
func Key(v any) string {
	if f, ok := Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

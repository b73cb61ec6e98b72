// Package merge folds classified signals into a category table, keeping one
// row per (date, trend) and ranking rows newest and highest scoring first.
package merge

import (
	"sort"
	"strconv"
	"strings"

	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

// Header is the first row of every category table.
var Header = []string{"Date", "Trend", "Source", "URL", "Raw Text", "Score", "Metric"}

// minRowCells is the number of leading cells a stored row needs to be kept.
const minRowCells = 5

const sourceSeparator = ", "

// Record is one row of a category table. Source holds a comma joined set of
// source labels sorted case-insensitively.
type Record struct {
	Date    string `json:"date"`
	Trend   string `json:"trend"`
	Source  string `json:"source"`
	URL     string `json:"url"`
	RawText string `json:"raw_text"`
	Score   int    `json:"score"`
	Metric  string `json:"metric"`
}

// Key identifies a record within a category table.
type Key struct {
	Date  string
	Trend string
}

func (r Record) Key() Key {
	return KeyOf(r.Date, r.Trend)
}

// KeyOf builds the dedup key for a date and trend.
func KeyOf(date, trend string) Key {
	return Key{Date: date, Trend: NormalizeTrend(trend)}
}

func NormalizeTrend(trend string) string {
	return strings.ToLower(strings.TrimSpace(trend))
}

// ParseRows converts stored table rows, without the header, into records. Rows
// with fewer than five cells are dropped and counted.
func ParseRows(rows [][]string) ([]Record, int) {
	records := make([]Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if len(row) < minRowCells {
			dropped++
			continue
		}
		record := Record{
			Date:    row[0],
			Trend:   row[1],
			Source:  row[2],
			URL:     row[3],
			RawText: row[4],
		}
		if len(row) > 5 {
			record.Score = parseScore(row[5])
		}
		if len(row) > 6 {
			record.Metric = row[6]
		}
		records = append(records, record)
	}
	return records, dropped
}

// SplitTable drops the header from a stored table. A first row whose first
// cell is "Date" counts as the header.
func SplitTable(table [][]string) [][]string {
	if len(table) == 0 {
		return nil
	}
	if len(table[0]) > 0 && table[0][0] == Header[0] {
		return table[1:]
	}
	return table
}

func parseScore(raw string) int {
	if raw == "" {
		return 0
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return 0
		}
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return score
}

// Sync merges the incoming signals of category into existing and returns the
// ranked table contents. Signals of other categories are ignored.
//
// The first record seen for a key keeps its Trend casing, Date, RawText,
// Score and Metric. Later sightings only add their source and fill an empty
// URL.
func Sync(category signal.Category, incoming []signal.ClassifiedSignal, existing []Record) []Record {
	index := make(map[Key]int, len(existing)+len(incoming))
	merged := make([]Record, 0, len(existing)+len(incoming))

	for _, record := range existing {
		key := record.Key()
		if i, ok := index[key]; ok {
			merged[i] = record
			continue
		}
		index[key] = len(merged)
		merged = append(merged, record)
	}

	for _, s := range incoming {
		if s.Category != category {
			continue
		}
		key := KeyOf(s.Date, s.Trend)
		i, ok := index[key]
		if !ok {
			index[key] = len(merged)
			merged = append(merged, fromSignal(s))
			continue
		}

		current := &merged[i]
		current.Source = unionSources(current.Source, s.Source)
		if current.URL == "" && s.URL != "" {
			current.URL = s.URL
		}
	}

	Rank(merged)
	return merged
}

// Rank orders records by date then score, both descending. Equal records keep
// their relative order.
func Rank(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		return records[i].Score > records[j].Score
	})
}

func fromSignal(s signal.ClassifiedSignal) Record {
	return Record{
		Date:    s.Date,
		Trend:   s.Trend,
		Source:  s.Source,
		URL:     s.URL,
		RawText: s.RawText,
		Score:   s.TrendScore,
		Metric:  s.MetricLabel,
	}
}

func unionSources(current, incoming string) string {
	set := make(map[string]struct{})
	for _, part := range strings.Split(current, ",") {
		if part = strings.TrimSpace(part); part != "" {
			set[part] = struct{}{}
		}
	}
	if incoming = strings.TrimSpace(incoming); incoming != "" {
		set[incoming] = struct{}{}
	}

	sources := make([]string, 0, len(set))
	for source := range set {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool {
		a, b := strings.ToLower(sources[i]), strings.ToLower(sources[j])
		if a != b {
			return a < b
		}
		return sources[i] < sources[j]
	})
	return strings.Join(sources, sourceSeparator)
}

// Rows renders records as a full table, header first.
func Rows(records []Record) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), Header...))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date,
			r.Trend,
			r.Source,
			r.URL,
			r.RawText,
			strconv.Itoa(r.Score),
			r.Metric,
		})
	}
	return rows
}

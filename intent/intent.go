// Package intent derives an immutable QueryIntent from raw question text.
//
// Parsing is deliberately shallow: keyword matching over a fixed bilingual
// (Indonesian/English) vocabulary. Anything subtler is the language model's
// job; the intent only has to be good enough to route and to hint.
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// DateRange is an explicit period extracted from the question or supplied
// by the caller. Zero values mean "unspecified".
type DateRange struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"` // 1..12
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Year == 0 && r.Month == 0
}

// QueryIntent is the parsed form of one incoming question. Immutable; created
// per request and discarded afterwards.
type QueryIntent struct {
	// Text is the original question, unmodified.
	Text string

	// Locale is "id" or "en", detected unless the caller overrides it.
	Locale string

	// Dimensions are the implied grouping dimensions, e.g. "location",
	// "month", in detection order.
	Dimensions []string

	// Metrics are the metric hints found in the text, e.g. "revenue".
	Metrics []string

	// Range is the explicit date range, if any.
	Range DateRange
}

// MultiDimensional reports whether the question groups by two or more
// dimensions ("sales per location per month").
func (q QueryIntent) MultiDimensional() bool {
	return len(q.Dimensions) >= 2
}

// Options carries caller-supplied hints that take precedence over detection.
type Options struct {
	Locale string
	Range  *DateRange
}

// dimensionVocab maps a grouping dimension onto its bilingual trigger words.
// Order fixes the detection order, keeping parsing deterministic.
var dimensionVocab = []struct {
	dim   string
	words []string
}{
	{"location", []string{"lokasi", "location", "toko", "store", "cabang", "branch"}},
	{"month", []string{"bulan", "month", "bulanan", "monthly"}},
	{"year", []string{"tahun", "year", "tahunan", "yearly", "annual"}},
	{"product", []string{"produk", "product", "barang", "item"}},
	{"category", []string{"kategori", "category"}},
	{"payment", []string{"pembayaran", "payment", "bayar", "metode", "method", "qris", "cash"}},
}

var metricVocab = []struct {
	metric string
	words  []string
}{
	{"revenue", []string{"penjualan", "pendapatan", "revenue", "sales", "omzet", "omset"}},
	{"count", []string{"jumlah transaksi", "transaction count", "berapa transaksi", "banyaknya"}},
	{"average", []string{"rata-rata", "average", "avg", "mean"}},
	{"quantity", []string{"kuantitas", "quantity", "terjual", "sold"}},
}

// monthNames covers Indonesian and English month names plus common
// abbreviations. Ordered so detection is deterministic when a question
// mentions more than one month: the earliest calendar month wins.
var monthNames = []struct {
	name  string
	month int
}{
	{"januari", 1}, {"january", 1}, {"jan", 1},
	{"februari", 2}, {"february", 2}, {"feb", 2},
	{"maret", 3}, {"march", 3}, {"mar", 3},
	{"april", 4}, {"apr", 4},
	{"mei", 5}, {"may", 5},
	{"juni", 6}, {"june", 6}, {"jun", 6},
	{"juli", 7}, {"july", 7}, {"jul", 7},
	{"agustus", 8}, {"august", 8}, {"aug", 8},
	{"september", 9}, {"sept", 9}, {"sep", 9},
	{"oktober", 10}, {"october", 10}, {"okt", 10}, {"oct", 10},
	{"november", 11}, {"nov", 11},
	{"desember", 12}, {"december", 12}, {"des", 12}, {"dec", 12},
}

// indonesianMarkers are words that only occur in Indonesian questions.
var indonesianMarkers = []string{
	"tampilkan", "tunjukkan", "berapa", "penjualan", "pembayaran",
	"bulan", "tahun", "lokasi", "produk", "terbanyak", "terbesar",
	"yang", "dan", "dengan", "untuk", "dari", "setiap",
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Parse derives a QueryIntent from question text. Pure; identical input
// always yields an identical intent.
func Parse(text string, opts Options) QueryIntent {
	lowered := strings.ToLower(text)

	q := QueryIntent{
		Text:   text,
		Locale: opts.Locale,
	}

	if q.Locale == "" {
		q.Locale = detectLocale(lowered)
	}

	for _, entry := range dimensionVocab {
		for _, w := range entry.words {
			if containsWord(lowered, w) {
				q.Dimensions = append(q.Dimensions, entry.dim)
				break
			}
		}
	}

	for _, entry := range metricVocab {
		for _, w := range entry.words {
			if strings.Contains(lowered, w) {
				q.Metrics = append(q.Metrics, entry.metric)
				break
			}
		}
	}

	if opts.Range != nil {
		q.Range = *opts.Range
	} else {
		q.Range = detectRange(lowered)
	}

	return q
}

// detectLocale defaults to English and flips to Indonesian on the first
// marker word.
func detectLocale(lowered string) string {
	for _, marker := range indonesianMarkers {
		if containsWord(lowered, marker) {
			return "id"
		}
	}
	return "en"
}

func detectRange(lowered string) DateRange {
	var r DateRange
	for _, entry := range monthNames {
		if containsWord(lowered, entry.name) {
			r.Month = entry.month
			break
		}
	}
	if match := yearPattern.FindString(lowered); match != "" {
		r.Year, _ = strconv.Atoi(match)
	}
	return r
}

// containsWord reports whether w occurs in s on word boundaries, so "mei"
// does not match inside "promei".
func containsWord(s, w string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		startOK := start == 0 || !isWordByte(s[start-1])
		endOK := end == len(s) || !isWordByte(s[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

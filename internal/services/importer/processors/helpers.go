package processors

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/utils"
)

// row reads a spreadsheet row by any of several header spellings.
type row map[string]string

func foldRow(m map[string]string) row {
	out := make(row, len(m))
	for k, v := range m {
		out[utils.FoldKey(k)] = strings.TrimSpace(v)
	}
	return out
}

func (r row) get(keys ...string) string {
	for _, k := range keys {
		if v := r[k]; v != "" {
			return v
		}
	}
	return ""
}

// parseAmount reads "1.234,56", "1234.56", "R$ 99,90" and "" (zero).
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, true
	}
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.Round(2).InexactFloat64(), true
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// parseDate accepts ISO and Brazilian day-first dates. Empty input gives the
// zero date and ok.
func parseDate(s string) (calendar.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return calendar.Date{}, true
	}
	if d, err := calendar.ParseDate(s); err == nil {
		return d, true
	}
	layouts := []string{
		"02/01/2006",
		"2/1/2006",
		"02.01.2006",
		"02-01-2006",
		"2006/01/02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"02/01/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return calendar.FromTime(t), true
		}
	}
	return calendar.Date{}, false
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "sim", "s", "yes", "y", "x":
		return true
	}
	return false
}

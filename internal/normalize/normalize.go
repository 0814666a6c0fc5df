// Package normalize converts heterogeneous backend rows into canonical
// TimeLogRecord values. The spreadsheet backend renames columns freely
// (localized labels, stray spaces, inconsistent casing) and encodes dates
// and times as full timestamps; this package is the single place that
// absorbs that drift.
package normalize

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"britlab/timesheet-portal/internal/models"
	"britlab/timesheet-portal/internal/workday"
)

// Canonical field names used as KeyMap keys.
const (
	FieldID           = "id"
	FieldDate         = "date"
	FieldEmployeeName = "employeeName"
	FieldEntryTime    = "entryTime"
	FieldExitTime     = "exitTime"
	FieldTotalHours   = "totalHours"
	FieldDayType      = "dayType"
	FieldIsHoliday    = "isHoliday"
	FieldObservation  = "observation"
	FieldTimestamp    = "timestamp"
)

// KeyMap maps each canonical field to its known alternate column names,
// in lookup priority order.
type KeyMap map[string][]string

// DefaultKeyMap returns the alternate-key table for the current
// spreadsheet schema. New backend column names belong here, not in code.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		FieldID:           {"id", "ID", "ID_Registro"},
		FieldDate:         {"date", "Fecha"},
		FieldEmployeeName: {"employeeName", "Nombre", "Nombre_Empleada"},
		FieldEntryTime:    {"entryTime", "Ingreso", "Hora_Ingreso"},
		FieldExitTime:     {"exitTime", "Egreso", "Hora_Egreso"},
		FieldTotalHours:   {"totalHours", "Total_Horas", "Horas"},
		FieldDayType:      {"dayType", "Tipo_Dia"},
		FieldIsHoliday:    {"isHoliday", "Feriado", "Feriado_Si_No"},
		FieldObservation:  {"observation", "Observaciones"},
		FieldTimestamp:    {"timestamp", "Fecha_Carga"},
	}
}

// LoadKeyMap reads an alternate-key table from a JSON file, so the table
// can be adjusted when the backend schema evolves without a rebuild.
func LoadKeyMap(path string) (KeyMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key map: %w", err)
	}
	var keys KeyMap
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse key map: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("key map %s is empty", path)
	}
	return keys, nil
}

// Normalizer converts raw backend rows using a KeyMap.
type Normalizer struct {
	keys KeyMap
}

// New creates a Normalizer. A nil KeyMap selects the defaults.
func New(keys KeyMap) *Normalizer {
	if keys == nil {
		keys = DefaultKeyMap()
	}
	return &Normalizer{keys: keys}
}

// Normalize converts one raw row to a canonical record. Rows missing an
// id, date, or employee name after key lookup are rejected with nil; a
// bad row must never take the rest of the list down. The input map is
// not modified.
func (n *Normalizer) Normalize(row map[string]any) *models.TimeLogRecord {
	id := asString(n.lookup(row, FieldID))
	date := ExtractDate(asString(n.lookup(row, FieldDate)))
	name := asString(n.lookup(row, FieldEmployeeName))
	if id == "" || date == "" || name == "" {
		return nil
	}

	rec := &models.TimeLogRecord{
		ID:           id,
		Date:         date,
		EmployeeName: name,
		EntryTime:    ExtractTime(asString(n.lookup(row, FieldEntryTime))),
		ExitTime:     ExtractTime(asString(n.lookup(row, FieldExitTime))),
		TotalHours:   asHours(n.lookup(row, FieldTotalHours)),
		IsHoliday:    asBool(n.lookup(row, FieldIsHoliday)),
		Observation:  asString(n.lookup(row, FieldObservation)),
		Timestamp:    asString(n.lookup(row, FieldTimestamp)),
	}

	rawType := asString(n.lookup(row, FieldDayType))
	switch {
	case rec.IsHoliday:
		rec.DayType = models.DayTypeHoliday
	case rawType != "":
		rec.DayType = models.DayType(rawType)
	default:
		rec.DayType = workday.ClassifyDay(rec.Date, false)
	}
	return rec
}

// lookup returns the first value whose column name matches an alternate
// key for the field. Alternates are tried strictly in declared order; an
// exact key hit wins, then a match ignoring surrounding spaces and case.
func (n *Normalizer) lookup(row map[string]any, field string) any {
	for _, alt := range n.keys[field] {
		if v, ok := row[alt]; ok {
			return v
		}
		for k, v := range row {
			if strings.EqualFold(strings.TrimSpace(k), alt) {
				return v
			}
		}
	}
	return nil
}

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRe = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// ExtractDate reduces a date-like value to YYYY-MM-DD. Full timestamps
// keep only their date portion; anything unparseable is returned as-is
// so the caller can still flag it for display.
func ExtractDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || dateRe.MatchString(s) {
		return s
	}
	if i := strings.Index(s, "T"); i > 0 {
		if head := s[:i]; dateRe.MatchString(head) {
			return head
		}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "02/01/2006", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// ExtractTime reduces a time-like value to HH:MM. The backend stores
// clock values inside a fixed reference date ("1899-12-30T12:16:48.000Z"),
// so the timestamp's own UTC clock is used, never the local zone.
func ExtractTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || clockRe.MatchString(s) {
		return s
	}
	if strings.Contains(s, "T") {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			u := t.UTC()
			return fmt.Sprintf("%02d:%02d", u.Hour(), u.Minute())
		}
	}
	return s
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// asHours coerces an hour total to a non-negative float. The sheet
// sometimes returns hours as text with a comma decimal separator.
func asHours(v any) float64 {
	var h float64
	switch val := v.(type) {
	case float64:
		h = val
	case int:
		h = float64(val)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(val), ",", ".")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		h = parsed
	default:
		return 0
	}
	if h < 0 {
		return 0
	}
	return h
}

// asBool accepts the boolean, numeric, and string spellings the backend
// has been seen to use, including the sheet's literal "SÍ".
func asBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "sí", "si":
			return true
		}
	}
	return false
}

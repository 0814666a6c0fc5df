package models

// DayType classifies a worked date for downstream billing.
type DayType string

const (
	DayTypeWeekday DayType = "Semana"
	DayTypeWeekend DayType = "Fin de Semana"
	DayTypeHoliday DayType = "Feriado"
)

// TimeLogRecord is the canonical shape of one attendance entry. Every raw
// backend row is converted to this shape before business logic touches it.
type TimeLogRecord struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	EmployeeName string  `json:"employeeName"`
	EntryTime    string  `json:"entryTime"`
	ExitTime     string  `json:"exitTime"`
	TotalHours   float64 `json:"totalHours"`
	DayType      DayType `json:"dayType"`
	IsHoliday    bool    `json:"isHoliday"`
	Observation  string  `json:"observation"`
	Timestamp    string  `json:"timestamp,omitempty"`
}

// CreateEntryRequest is the payload an employee submits to log a workday.
// EmployeeName is filled from the session for non-admin users.
type CreateEntryRequest struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	EmployeeName string `json:"employeeName"`
	EntryTime    string `json:"entryTime" validate:"required,hhmm"`
	ExitTime     string `json:"exitTime" validate:"required,hhmm"`
	IsHoliday    bool   `json:"isHoliday"`
	Observation  string `json:"observation"`
}

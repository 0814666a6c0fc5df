package models

// EmployeeHours breaks one employee's hours down by day type.
type EmployeeHours struct {
	Name        string  `json:"name"`
	Semana      float64 `json:"semana"`
	FinDeSemana float64 `json:"finDeSemana"`
	Feriado     float64 `json:"feriado"`
	Total       float64 `json:"total"`
}

// MonthlySummary aggregates hours for one YYYY-MM period.
type MonthlySummary struct {
	Month       string          `json:"month"`
	Entries     int             `json:"entries"`
	Total       float64         `json:"total"`
	Semana      float64         `json:"semana"`
	FinDeSemana float64         `json:"finDeSemana"`
	Feriado     float64         `json:"feriado"`
	ByEmployee  []EmployeeHours `json:"byEmployee"`
}

// Package store is the thin facade the portals consume: list, create,
// and delete over the sheet client, plus the admin aggregation.
package store

import (
	"context"
	"math"
	"sort"
	"strings"

	"britlab/timesheet-portal/internal/client"
	"britlab/timesheet-portal/internal/models"
	"britlab/timesheet-portal/internal/workday"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RecordStore struct {
	client *client.SheetClient
	logger *zap.Logger
}

func NewRecordStore(client *client.SheetClient, logger *zap.Logger) *RecordStore {
	return &RecordStore{
		client: client,
		logger: logger,
	}
}

// ListAll returns every record, newest date first.
func (s *RecordStore) ListAll(ctx context.Context) []models.TimeLogRecord {
	records := s.client.ListEntries(ctx)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
	return records
}

// ListFor filters ListAll down to one employee's records. The backend
// has no per-owner query in the common path; an O(n) scan is fine at
// the few thousand rows this sheet will ever hold.
func (s *RecordStore) ListFor(ctx context.Context, ownerName string) []models.TimeLogRecord {
	all := s.ListAll(ctx)
	mine := make([]models.TimeLogRecord, 0, len(all))
	for _, rec := range all {
		if rec.EmployeeName == ownerName {
			mine = append(mine, rec)
		}
	}
	return mine
}

// Create derives the total hours and day type, assigns a fresh id, and
// submits the record. The backend assigns the persistence timestamp.
func (s *RecordStore) Create(ctx context.Context, req *models.CreateEntryRequest) (*models.TimeLogRecord, error) {
	rec := models.TimeLogRecord{
		ID:           uuid.NewString(),
		Date:         req.Date,
		EmployeeName: req.EmployeeName,
		EntryTime:    req.EntryTime,
		ExitTime:     req.ExitTime,
		TotalHours:   workday.ComputeHours(req.EntryTime, req.ExitTime),
		DayType:      workday.ClassifyDay(req.Date, req.IsHoliday),
		IsHoliday:    req.IsHoliday,
		Observation:  req.Observation,
	}

	if err := s.client.SaveEntry(ctx, rec); err != nil {
		// The write may still have landed; only the ack is known lost.
		return nil, err
	}

	s.logger.Info("Record created",
		zap.String("id", rec.ID),
		zap.String("employee", rec.EmployeeName),
		zap.String("date", rec.Date),
		zap.Float64("hours", rec.TotalHours),
	)
	return &rec, nil
}

// Delete removes a record. Corrections are delete-and-recreate; there is
// no update operation.
func (s *RecordStore) Delete(ctx context.Context, id, requesterName string) error {
	if err := s.client.DeleteEntry(ctx, id, requesterName); err != nil {
		return err
	}
	s.logger.Info("Record deleted",
		zap.String("id", id),
		zap.String("requester", requesterName),
	)
	return nil
}

// Summarize aggregates hours for one YYYY-MM month, overall and per
// employee, split by day type. An empty month keeps every record.
func Summarize(records []models.TimeLogRecord, month string) models.MonthlySummary {
	sum := models.MonthlySummary{Month: month}
	byName := make(map[string]*models.EmployeeHours)

	for _, rec := range records {
		if month != "" && !strings.HasPrefix(rec.Date, month) {
			continue
		}
		sum.Entries++
		sum.Total += rec.TotalHours

		emp := byName[rec.EmployeeName]
		if emp == nil {
			emp = &models.EmployeeHours{Name: rec.EmployeeName}
			byName[rec.EmployeeName] = emp
		}
		emp.Total += rec.TotalHours

		switch rec.DayType {
		case models.DayTypeWeekend:
			sum.FinDeSemana += rec.TotalHours
			emp.FinDeSemana += rec.TotalHours
		case models.DayTypeHoliday:
			sum.Feriado += rec.TotalHours
			emp.Feriado += rec.TotalHours
		default:
			sum.Semana += rec.TotalHours
			emp.Semana += rec.TotalHours
		}
	}

	sum.Total = round2(sum.Total)
	sum.Semana = round2(sum.Semana)
	sum.FinDeSemana = round2(sum.FinDeSemana)
	sum.Feriado = round2(sum.Feriado)

	sum.ByEmployee = make([]models.EmployeeHours, 0, len(byName))
	for _, emp := range byName {
		emp.Total = round2(emp.Total)
		emp.Semana = round2(emp.Semana)
		emp.FinDeSemana = round2(emp.FinDeSemana)
		emp.Feriado = round2(emp.Feriado)
		sum.ByEmployee = append(sum.ByEmployee, *emp)
	}
	sort.Slice(sum.ByEmployee, func(i, j int) bool {
		return sum.ByEmployee[i].Name < sum.ByEmployee[j].Name
	})
	return sum
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

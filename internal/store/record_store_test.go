package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"britlab/timesheet-portal/internal/client"
	"britlab/timesheet-portal/internal/models"
	"britlab/timesheet-portal/internal/normalize"
	"britlab/timesheet-portal/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T, url string) *RecordStore {
	policy := retry.Policy{Attempts: 3, Delay: time.Millisecond, PerAttemptTimeout: time.Second}
	c := client.NewSheetClient(url, policy, normalize.New(nil), zaptest.NewLogger(t))
	return NewRecordStore(c, zaptest.NewLogger(t))
}

func sheetBody() string {
	return `[
		{"ID":"1","Fecha":"2024-01-08","Nombre":"Ana","Ingreso":"08:00","Egreso":"16:00","Total_Horas":8,"Tipo_Dia":"Semana"},
		{"ID":"2","Fecha":"2024-01-06","Nombre":"Ana","Ingreso":"08:00","Egreso":"12:00","Total_Horas":4,"Tipo_Dia":"Fin de Semana"},
		{"ID":"3","Fecha":"2024-01-10","Nombre":"Carla","Ingreso":"22:00","Egreso":"06:00","Total_Horas":8,"Feriado":"SÍ"}
	]`
}

func TestListAllSortsNewestFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sheetBody())
	}))
	defer srv.Close()

	records := newTestStore(t, srv.URL).ListAll(context.Background())

	require.Len(t, records, 3)
	assert.Equal(t, "2024-01-10", records[0].Date)
	assert.Equal(t, "2024-01-08", records[1].Date)
	assert.Equal(t, "2024-01-06", records[2].Date)
}

func TestListForFiltersByOwner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sheetBody())
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	mine := s.ListFor(context.Background(), "Ana")

	require.Len(t, mine, 2)
	for _, rec := range mine {
		assert.Equal(t, "Ana", rec.EmployeeName)
	}
	assert.Empty(t, s.ListFor(context.Background(), "Nadie"))
}

func TestListTwiceYieldsEqualSets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sheetBody())
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	first := s.ListAll(context.Background())
	second := s.ListAll(context.Background())

	assert.Equal(t, first, second)
}

func TestCreateDerivesFields(t *testing.T) {
	var posted struct {
		Action string               `json:"action"`
		Entry  models.TimeLogRecord `json:"entry"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		io.WriteString(w, `{"ok":true,"id":"ignored"}`)
	}))
	defer srv.Close()

	rec, err := newTestStore(t, srv.URL).Create(context.Background(), &models.CreateEntryRequest{
		Date:         "2024-01-06",
		EmployeeName: "Ana",
		EntryTime:    "22:00",
		ExitTime:     "06:00",
		Observation:  "guardia pasiva",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 8.0, rec.TotalHours)
	assert.Equal(t, models.DayTypeWeekend, rec.DayType)
	assert.Empty(t, rec.Timestamp)

	assert.Equal(t, "saveEntry", posted.Action)
	assert.Equal(t, rec.ID, posted.Entry.ID)
}

func TestCreateHolidayOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	rec, err := newTestStore(t, srv.URL).Create(context.Background(), &models.CreateEntryRequest{
		Date:         "2024-01-08",
		EmployeeName: "Ana",
		EntryTime:    "08:00",
		ExitTime:     "16:00",
		IsHoliday:    true,
	})

	require.NoError(t, err)
	assert.True(t, rec.IsHoliday)
	assert.Equal(t, models.DayTypeHoliday, rec.DayType)
}

func TestCreateSurfacesBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestStore(t, srv.URL).Create(context.Background(), &models.CreateEntryRequest{
		Date:         "2024-01-08",
		EmployeeName: "Ana",
		EntryTime:    "08:00",
		ExitTime:     "16:00",
	})

	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	records := []models.TimeLogRecord{
		{Date: "2024-01-08", EmployeeName: "Ana", TotalHours: 8, DayType: models.DayTypeWeekday},
		{Date: "2024-01-06", EmployeeName: "Ana", TotalHours: 4, DayType: models.DayTypeWeekend},
		{Date: "2024-01-10", EmployeeName: "Carla", TotalHours: 8, DayType: models.DayTypeHoliday},
		{Date: "2024-02-01", EmployeeName: "Ana", TotalHours: 6, DayType: models.DayTypeWeekday},
	}

	sum := Summarize(records, "2024-01")

	assert.Equal(t, 3, sum.Entries)
	assert.Equal(t, 20.0, sum.Total)
	assert.Equal(t, 8.0, sum.Semana)
	assert.Equal(t, 4.0, sum.FinDeSemana)
	assert.Equal(t, 8.0, sum.Feriado)

	require.Len(t, sum.ByEmployee, 2)
	assert.Equal(t, "Ana", sum.ByEmployee[0].Name)
	assert.Equal(t, 12.0, sum.ByEmployee[0].Total)
	assert.Equal(t, "Carla", sum.ByEmployee[1].Name)
	assert.Equal(t, 8.0, sum.ByEmployee[1].Feriado)
}

func TestSummarizeEmptyMonthKeepsAll(t *testing.T) {
	records := []models.TimeLogRecord{
		{Date: "2024-01-08", EmployeeName: "Ana", TotalHours: 8, DayType: models.DayTypeWeekday},
		{Date: "2024-02-01", EmployeeName: "Ana", TotalHours: 6, DayType: models.DayTypeWeekday},
	}

	sum := Summarize(records, "")

	assert.Equal(t, 2, sum.Entries)
	assert.Equal(t, 14.0, sum.Total)
}

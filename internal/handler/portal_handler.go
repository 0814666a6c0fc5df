package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"britlab/timesheet-portal/internal/models"
	"britlab/timesheet-portal/internal/session"
	"britlab/timesheet-portal/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// TimeValidator checks the HH:MM wall-clock format used on entry forms.
var TimeValidator = func(fl validator.FieldLevel) bool {
	pattern := `^([01]?\d|2[0-3]):[0-5]\d$`
	matched, _ := regexp.MatchString(pattern, fl.Field().String())
	return matched
}

// PortalHandler serves both portals: employees log and delete their own
// hours, admins see and manage everything.
type PortalHandler struct {
	store        *store.RecordStore
	gate         *session.Gate
	validate     *validator.Validate
	refreshAfter time.Duration
	logger       *zap.Logger
}

// NewPortalHandler creates the portal handler. refreshAfter is the hint
// returned with writes: the sheet needs a moment before a re-read sees
// the change.
func NewPortalHandler(recordStore *store.RecordStore, gate *session.Gate, validate *validator.Validate, refreshAfter time.Duration, logger *zap.Logger) *PortalHandler {
	return &PortalHandler{
		store:        recordStore,
		gate:         gate,
		validate:     validate,
		refreshAfter: refreshAfter,
		logger:       logger,
	}
}

func (h *PortalHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *PortalHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode login request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.gate.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Usuario o contraseña incorrectos")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *PortalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Logout(); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session restores the persisted identity for a reloaded client.
func (h *PortalHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w)
	if user == nil {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListEntries returns all records for admins, own records for employees.
func (h *PortalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w)
	if user == nil {
		return
	}

	var records []models.TimeLogRecord
	if user.Role == models.RoleAdmin {
		records = h.store.ListAll(r.Context())
	} else {
		records = h.store.ListFor(r.Context(), user.Name)
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *PortalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w)
	if user == nil {
		return
	}

	var req models.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode create request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Employees always log under their own name.
	if user.Role != models.RoleAdmin || req.EmployeeName == "" {
		req.EmployeeName = user.Name
	}

	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.store.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create entry", zap.Error(err))
		// The write may still have landed even though the ack was lost.
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"ok":    false,
			"error": "Error al enviar datos. Verifique su conexión.",
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":             true,
		"entry":          rec,
		"refreshAfterMs": h.refreshAfter.Milliseconds(),
	})
}

func (h *PortalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w)
	if user == nil {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id parameter")
		return
	}

	// Ownership is enforced backend-side via the requester name; the
	// portal only decides which rows show a delete control.
	if err := h.store.Delete(r.Context(), id, user.Name); err != nil {
		h.logger.Error("Failed to delete entry", zap.Error(err), zap.String("id", id))
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"ok":    false,
			"error": "No se pudo eliminar el registro.",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"refreshAfterMs": h.refreshAfter.Milliseconds(),
	})
}

// Summary is the admin aggregation: hours per day type and per employee
// for one month (defaults to the current one).
func (h *PortalHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w)
	if user == nil {
		return
	}
	if user.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin only")
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	records := h.store.ListAll(r.Context())
	writeJSON(w, http.StatusOK, store.Summarize(records, month))
}

// currentUser loads the session identity, answering 401 when anonymous.
func (h *PortalHandler) currentUser(w http.ResponseWriter) *models.User {
	user, err := h.gate.Current()
	if err != nil {
		h.logger.Error("Failed to load session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return nil
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return nil
	}
	return user
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

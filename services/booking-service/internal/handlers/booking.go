package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

const timeLayout = time.RFC3339

type BookingHandler struct {
	svc    *scheduling.Service
	logger *slog.Logger
}

func NewBookingHandler(svc *scheduling.Service, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

type createAppointmentRequest struct {
	ProviderID string `json:"providerId"`
	ServiceID  string `json:"serviceId"`
	Date       string `json:"date"`
	Notes      string `json:"notes"`
}

type appointmentResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`
	CustomerID  string `json:"customerId"`
	ProviderID  string `json:"providerId"`
	ServiceID   string `json:"serviceId,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toAppointment(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID,
		Date:        a.Date.UTC().Format(timeLayout),
		Status:      string(a.Status),
		StatusLabel: a.Status.Label(),
		CustomerID:  a.CustomerID,
		ProviderID:  a.ProviderID,
		ServiceID:   a.ServiceID,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:   a.UpdatedAt.UTC().Format(timeLayout),
	}
}

func toAppointments(in []model.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(in))
	for _, a := range in {
		out = append(out, toAppointment(a))
	}
	return out
}

// Slots answers GET /api/v1/providers/{id}/slots?serviceId=&date=YYYY-MM-DD
// with the free start instants of that local day.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	providerID := strings.TrimSpace(r.PathValue("id"))
	serviceID := strings.TrimSpace(q.Get("serviceId"))
	date := strings.TrimSpace(q.Get("date"))
	if providerID == "" || serviceID == "" || date == "" {
		writeError(w, h.logger, scheduling.InvalidInput("serviceId and date are required"))
		return
	}

	slots, err := h.svc.GenerateSlots(r.Context(), providerID, serviceID, date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.UTC().Format(timeLayout))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Appointments serves the caller's appointment list (GET) and booking (POST).
func (h *BookingHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		appts, err := h.svc.CustomerAppointments(r.Context(), userID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toAppointments(appts))
		return
	}

	var req createAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		writeError(w, h.logger, scheduling.InvalidInput("providerId, serviceId and date are required"))
		return
	}
	date, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, h.logger, invalidDate())
		return
	}

	appt, err := h.svc.Book(r.Context(), scheduling.BookingRequest{
		ProviderID: req.ProviderID,
		ServiceID:  req.ServiceID,
		CustomerID: userID,
		Date:       date,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAppointment(appt))
}

// Cancel answers POST /api/v1/appointments/{id}/cancel.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	appt, err := h.svc.Cancel(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointment(appt))
}

// Agenda answers GET /api/v1/provider/agenda?date=YYYY-MM-DD.
func (h *BookingHandler) Agenda(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	appts, err := h.svc.ProviderAgenda(r.Context(), userID, strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointments(appts))
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewCatalogHandler(c *catalog.Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

type serviceResponse struct {
	ID         string  `json:"id"`
	ProviderID string  `json:"providerId"`
	Name       string  `json:"name"`
	Duration   int     `json:"duration"`
	Price      float64 `json:"price"`
}

type availabilityResponse struct {
	ID        string `json:"id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type blockResponse struct {
	ID      string `json:"id"`
	StartAt string `json:"startAt"`
	EndAt   string `json:"endAt"`
	Reason  string `json:"reason,omitempty"`
}

type configResponse struct {
	MaxBookingDays     int `json:"maxBookingDays"`
	CancelBookingHours int `json:"cancelBookingHours"`
}

type providerResponse struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Services     []serviceResponse      `json:"services"`
	Availability []availabilityResponse `json:"availability,omitempty"`
	Blocks       []blockResponse        `json:"blocks,omitempty"`
	Config       *configResponse        `json:"config,omitempty"`
}

func toService(s model.Service) serviceResponse {
	return serviceResponse{ID: s.ID, ProviderID: s.ProviderID, Name: s.Name, Duration: s.Duration, Price: s.Price}
}

func toServices(in []model.Service) []serviceResponse {
	out := make([]serviceResponse, 0, len(in))
	for _, s := range in {
		out = append(out, toService(s))
	}
	return out
}

func toAvailability(a model.Availability) availabilityResponse {
	return availabilityResponse{ID: a.ID, Weekday: a.Weekday, StartTime: a.StartTime, EndTime: a.EndTime}
}

func toAvailabilities(in []model.Availability) []availabilityResponse {
	out := make([]availabilityResponse, 0, len(in))
	for _, a := range in {
		out = append(out, toAvailability(a))
	}
	return out
}

func toBlock(b model.Block) blockResponse {
	return blockResponse{
		ID:      b.ID,
		StartAt: b.StartAt.UTC().Format(timeLayout),
		EndAt:   b.EndAt.UTC().Format(timeLayout),
		Reason:  b.Reason,
	}
}

func toBlocks(in []model.Block) []blockResponse {
	out := make([]blockResponse, 0, len(in))
	for _, b := range in {
		out = append(out, toBlock(b))
	}
	return out
}

func toConfig(c model.ProviderConfig) configResponse {
	return configResponse{MaxBookingDays: c.MaxBookingDays, CancelBookingHours: c.CancelBookingHours}
}

func toProviderDetail(d catalog.ProviderDetail) providerResponse {
	return providerResponse{
		ID:           d.Provider.ID,
		Name:         d.Provider.Name,
		Services:     toServices(d.Services),
		Availability: toAvailabilities(d.Availability),
		Blocks:       toBlocks(d.Blocks),
	}
}

// Providers answers GET /api/v1/providers.
func (h *CatalogHandler) Providers(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	list, err := h.catalog.Providers(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	out := make([]providerResponse, 0, len(list))
	for _, p := range list {
		out = append(out, providerResponse{ID: p.Provider.ID, Name: p.Provider.Name, Services: toServices(p.Services)})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Provider answers GET /api/v1/providers/{id}.
func (h *CatalogHandler) Provider(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	d, err := h.catalog.Provider(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProviderDetail(d))
}

// Me answers GET /api/v1/provider/me with the caller's full catalog.
func (h *CatalogHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	d, err := h.catalog.Me(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := toProviderDetail(d)
	cfg := toConfig(d.Provider.Config())
	resp.Config = &cfg
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type configRequest struct {
	MaxBookingDays     *int `json:"maxBookingDays"`
	CancelBookingHours *int `json:"cancelBookingHours"`
}

// Config reads (GET) or updates (PUT) the caller's booking rules. Fields
// left out of a PUT keep their current value.
func (h *CatalogHandler) Config(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPut) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cfg, err := h.catalog.Config(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if r.Method == http.MethodPut {
		var req configRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
		if req.MaxBookingDays != nil {
			cfg.MaxBookingDays = *req.MaxBookingDays
		}
		if req.CancelBookingHours != nil {
			cfg.CancelBookingHours = *req.CancelBookingHours
		}
		if cfg, err = h.catalog.UpdateConfig(r.Context(), userID, cfg); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, toConfig(cfg))
}

type createServiceRequest struct {
	Name     string  `json:"name"`
	Duration int     `json:"duration"`
	Price    float64 `json:"price"`
}

// Services lists (GET) or creates (POST) the caller's services.
func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		d, err := h.catalog.Me(r.Context(), userID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toServices(d.Services))
		return
	}

	var req createServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	svc, err := h.catalog.CreateService(r.Context(), userID, catalog.ServiceInput(req))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toService(svc))
}

func (h *CatalogHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.catalog.DeleteService)
}

type createAvailabilityRequest struct {
	Weekday   *int   `json:"weekday"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Availability lists (GET) or creates (POST) the caller's weekly windows.
func (h *CatalogHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		d, err := h.catalog.Me(r.Context(), userID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toAvailabilities(d.Availability))
		return
	}

	var req createAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	weekday := -1
	if req.Weekday != nil {
		weekday = *req.Weekday
	}
	a, err := h.catalog.CreateAvailability(r.Context(), userID, catalog.AvailabilityInput{
		Weekday:   weekday,
		StartTime: strings.TrimSpace(req.StartTime),
		EndTime:   strings.TrimSpace(req.EndTime),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAvailability(a))
}

func (h *CatalogHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.catalog.DeleteAvailability)
}

type createBlockRequest struct {
	StartAt string `json:"startAt"`
	EndAt   string `json:"endAt"`
	Reason  string `json:"reason"`
}

// Blocks lists (GET) or creates (POST) the caller's blocked periods.
func (h *CatalogHandler) Blocks(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodGet {
		d, err := h.catalog.Me(r.Context(), userID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toBlocks(d.Blocks))
		return
	}

	var req createBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	start, errStart := time.Parse(time.RFC3339, strings.TrimSpace(req.StartAt))
	end, errEnd := time.Parse(time.RFC3339, strings.TrimSpace(req.EndAt))
	if errStart != nil || errEnd != nil {
		writeError(w, h.logger, invalidDate())
		return
	}
	b, err := h.catalog.CreateBlock(r.Context(), userID, catalog.BlockInput{StartAt: start, EndAt: end, Reason: req.Reason})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toBlock(b))
}

func (h *CatalogHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.catalog.DeleteBlock)
}

func (h *CatalogHandler) delete(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, actorID, id string) error) {
	if !allowMethods(w, r, http.MethodDelete) {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := del(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
)

// Register mounts the API on mux. requireUser authenticates private routes;
// limit, when set, throttles slot queries and booking.
func Register(mux *http.ServeMux, booking *BookingHandler, cat *CatalogHandler, requireUser, limit httpx.Middleware) {
	private := func(h http.HandlerFunc) http.Handler { return httpx.Chain(h, requireUser) }
	limited := func(h http.Handler) http.Handler { return httpx.Chain(h, limit) }

	mux.Handle("/api/v1/providers", http.HandlerFunc(cat.Providers))
	mux.Handle("/api/v1/providers/{id}", http.HandlerFunc(cat.Provider))
	mux.Handle("/api/v1/providers/{id}/slots", limited(http.HandlerFunc(booking.Slots)))

	mux.Handle("/api/v1/appointments", limited(private(booking.Appointments)))
	mux.Handle("/api/v1/appointments/{id}/cancel", private(booking.Cancel))

	mux.Handle("/api/v1/provider/me", private(cat.Me))
	mux.Handle("/api/v1/provider/agenda", private(booking.Agenda))
	mux.Handle("/api/v1/provider/config", private(cat.Config))
	mux.Handle("/api/v1/provider/services", private(cat.Services))
	mux.Handle("/api/v1/provider/services/{id}", private(cat.DeleteService))
	mux.Handle("/api/v1/provider/availability", private(cat.Availability))
	mux.Handle("/api/v1/provider/availability/{id}", private(cat.DeleteAvailability))
	mux.Handle("/api/v1/provider/blocks", private(cat.Blocks))
	mux.Handle("/api/v1/provider/blocks/{id}", private(cat.DeleteBlock))
}

package model

import "time"

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCanceled  Status = "CANCELED"
	StatusDone      Status = "DONE"
)

var statusLabels = map[Status]string{
	StatusScheduled: "Não iniciado",
	StatusCanceled:  "Cancelado",
	StatusDone:      "Concluído",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool { return s == StatusCanceled || s == StatusDone }

// Label is the customer facing (pt-BR) name of the status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Appointment struct {
	ID         string
	Date       time.Time
	Status     Status
	CustomerID string
	ProviderID string
	// ServiceID is empty once the service has been deleted.
	ServiceID string
	// ServiceDuration is the duration of the referenced service, nil when
	// the reference no longer resolves.
	ServiceDuration *int
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ResolveDuration picks the minutes an appointment occupies: the stored
// service duration when present, else fallback.
func ResolveDuration(stored *int, fallback int) int {
	if stored != nil {
		return *stored
	}
	return fallback
}

// End returns Date plus the resolved duration.
func (a Appointment) End(fallback int) time.Time {
	return a.Date.Add(time.Duration(ResolveDuration(a.ServiceDuration, fallback)) * time.Minute)
}

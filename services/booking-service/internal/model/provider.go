package model

import "time"

const (
	DefaultMaxBookingDays     = 7
	DefaultCancelBookingHours = 2

	MinMaxBookingDays     = 1
	MaxMaxBookingDays     = 60
	MinCancelBookingHours = 0
	MaxCancelBookingHours = 72
)

// User is either a customer or, when IsProvider is set, a barber that owns
// services, availability windows and blocks.
type User struct {
	ID                 string
	Name               string
	Email              string
	IsProvider         bool
	MaxBookingDays     int
	CancelBookingHours int
	CreatedAt          time.Time
}

type ProviderConfig struct {
	MaxBookingDays     int
	CancelBookingHours int
}

func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{MaxBookingDays: DefaultMaxBookingDays, CancelBookingHours: DefaultCancelBookingHours}
}

func (u User) Config() ProviderConfig {
	return ProviderConfig{MaxBookingDays: u.MaxBookingDays, CancelBookingHours: u.CancelBookingHours}
}

type Service struct {
	ID         string
	ProviderID string
	Name       string
	Duration   int // minutes
	Price      float64
	CreatedAt  time.Time
}

// Availability is a weekly window in local civil time.
type Availability struct {
	ID         string
	ProviderID string
	Weekday    int    // 0 = Sunday
	StartTime  string // HH:MM
	EndTime    string // HH:MM
	CreatedAt  time.Time
}

type Block struct {
	ID         string
	ProviderID string
	StartAt    time.Time
	EndAt      time.Time
	Reason     string
	CreatedAt  time.Time
}

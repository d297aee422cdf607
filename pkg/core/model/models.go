package model

import (
	"fmt"
	"time"
)

// Working window of the board. All layout and overlap math is expressed in
// minutes relative to DayStartHour.
const (
	DayStartHour  = 7
	DayEndHour    = 18
	WindowMinutes = (DayEndHour - DayStartHour) * 60

	// MinDuration is the shortest appointment the board will hold
	MinDuration = 15

	// DefaultDuration is used when an order has no dates or invalid dates
	DefaultDuration = 60

	// SnapMinutes is the grid that drags and resizes snap to
	SnapMinutes = 15
)

// DefaultStart is the synthetic start used for undated orders and for orders
// that began before the selected day
var DefaultStart = TimeOfDay{Hour: 8, Minute: 0}

// WindowStart is 7:00, the first minute of the working window
var WindowStart = TimeOfDay{Hour: DayStartHour, Minute: 0}

// UpdateTimeLayout is the timestamp layout the mutation endpoints accept
const UpdateTimeLayout = "2006-01-02 15:04:05"

// TimeOfDay is a wall-clock instant without a date
type TimeOfDay struct {
	Hour   int `json:"hour" yaml:"hour"`
	Minute int `json:"minute" yaml:"minute"`
}

// String formats the time as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// TimeOfDayOf returns the wall-clock part of ts in its own location
func TimeOfDayOf(ts time.Time) TimeOfDay {
	return TimeOfDay{Hour: ts.Hour(), Minute: ts.Minute()}
}

// Mechanic represents a mechanic whose row appears on the board.
// Shift bounds are informational only.
type Mechanic struct {
	ID         string
	FirstName  string
	LastName   string
	ShiftStart TimeOfDay
	ShiftEnd   TimeOfDay
}

// FullName returns "First Last"
func (m Mechanic) FullName() string {
	return m.FirstName + " " + m.LastName
}

// RepairOrderRecord is a repair order as held by the persistence layer,
// joined with its vehicle and customer. Nullable columns are pointers.
type RepairOrderRecord struct {
	ID                  string `validate:"required"`
	Description         string
	AssignedMechanicID  *string
	VehicleID           *string
	StartDate           *time.Time
	EndDate             *time.Time
	Make                string
	Model               string
	Year                string
	VIN                 string
	RegistrationNumber  string
	CustomerFirstName   string
	CustomerLastName    string
	CustomerEmail       string `validate:"omitempty,email"`
	CustomerPhoneNumber string
}

// HasMechanic reports whether the order is assigned to a mechanic
func (r RepairOrderRecord) HasMechanic() bool {
	return r.AssignedMechanicID != nil && *r.AssignedMechanicID != ""
}

// HasDates reports whether both start and end timestamps are present
func (r RepairOrderRecord) HasDates() bool {
	return r.StartDate != nil && r.EndDate != nil
}

// Appointment is the day-scoped display projection of a repair order.
// It is rebuilt whenever the selected day or the order set changes.
type Appointment struct {
	ID                 string
	MechanicID         string
	Car                string
	Start              TimeOfDay
	Duration           int // minutes, >= MinDuration
	Color              string
	Description        string
	CustomerName       string
	RegistrationNumber string
	StartDate          *time.Time
	EndDate            *time.Time
}

// HasDates reports whether the appointment came from a dated order
func (a Appointment) HasDates() bool {
	return a.StartDate != nil && a.EndDate != nil
}

// OrderUpdate is the partial update sent to the persistence layer.
// Nil fields are left untouched. Dates use UpdateTimeLayout.
type OrderUpdate struct {
	AssignedMechanicID *string `json:"assignedMechanicId,omitempty"`
	StartDate          *string `json:"startDate,omitempty"`
	EndDate            *string `json:"endDate,omitempty"`
}

// IsEmpty reports whether the update would change nothing
func (u OrderUpdate) IsEmpty() bool {
	return u.AssignedMechanicID == nil && u.StartDate == nil && u.EndDate == nil
}

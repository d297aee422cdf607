package server

import (
	"time"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/board"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/services"
)

type envelope struct {
	Data any `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}

type appointmentDTO struct {
	ID                 string     `json:"id"`
	MechanicID         string     `json:"mechanicId,omitempty"`
	Car                string     `json:"car"`
	Start              string     `json:"start"`
	End                string     `json:"end"`
	Duration           int        `json:"duration"`
	Color              string     `json:"color"`
	Description        string     `json:"description"`
	CustomerName       string     `json:"customerName"`
	RegistrationNumber string     `json:"registrationNumber"`
	StartDate          *time.Time `json:"startDate,omitempty"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	LeftPercent        float64    `json:"leftPercent"`
	WidthPercent       float64    `json:"widthPercent"`
}

type mechanicRowDTO struct {
	ID           string           `json:"id"`
	RowID        string           `json:"rowId"`
	Name         string           `json:"name"`
	ShiftStart   string           `json:"shiftStart"`
	ShiftEnd     string           `json:"shiftEnd"`
	Appointments []appointmentDTO `json:"appointments"`
}

type boardDTO struct {
	Day        string           `json:"day"`
	Mechanics  []mechanicRowDTO `json:"mechanics"`
	Unassigned []appointmentDTO `json:"unassigned"`
}

type overlapDTO struct {
	MechanicID string `json:"mechanicId"`
	FirstID    string `json:"firstId"`
	SecondID   string `json:"secondId"`
}

type timeSlotDTO struct {
	Time   string `json:"time"`
	Label  string `json:"label,omitempty"`
	IsHour bool   `json:"isHour"`
}

type resultDTO struct {
	Outcome     string         `json:"outcome"`
	Appointment appointmentDTO `json:"appointment"`
}

type assignmentDTO struct {
	OrderID    string `json:"orderId"`
	MechanicID string `json:"mechanicId"`
	Start      string `json:"start"`
	Duration   int    `json:"duration"`
}

type distributeDTO struct {
	Day         string          `json:"day"`
	Applied     bool            `json:"applied"`
	Assignments []assignmentDTO `json:"assignments"`
	Unplaced    []string        `json:"unplaced"`
}

type relocateRequest struct {
	Day           string `json:"day"`
	AppointmentID string `json:"appointmentId" binding:"required"`
	MechanicID    string `json:"mechanicId" binding:"required"`
	Start         string `json:"start" binding:"required"`
}

type resizeRequest struct {
	Day           string `json:"day"`
	AppointmentID string `json:"appointmentId" binding:"required"`
	Duration      int    `json:"duration" binding:"required,min=1"`
}

type createRequest struct {
	Day         string `json:"day"`
	Description string `json:"description" binding:"required"`
	MechanicID  string `json:"mechanicId"`
	VehicleID   string `json:"vehicleId"`
	Duration    int    `json:"duration" binding:"min=0"`
}

type distributeRequest struct {
	Day   string `json:"day"`
	Apply bool   `json:"apply"`
}

func toAppointmentDTO(a model.Appointment) appointmentDTO {
	style := board.BlockStyleOf(a)
	return appointmentDTO{
		ID:                 a.ID,
		MechanicID:         a.MechanicID,
		Car:                a.Car,
		Start:              a.Start.String(),
		End:                schedule.FromDayMinutes(schedule.ToDayMinutes(a.Start) + a.Duration).String(),
		Duration:           a.Duration,
		Color:              a.Color,
		Description:        a.Description,
		CustomerName:       a.CustomerName,
		RegistrationNumber: a.RegistrationNumber,
		StartDate:          a.StartDate,
		EndDate:            a.EndDate,
		LeftPercent:        style.LeftPercent,
		WidthPercent:       style.WidthPercent,
	}
}

func toAppointmentDTOs(appointments []model.Appointment) []appointmentDTO {
	out := make([]appointmentDTO, 0, len(appointments))
	for _, a := range schedule.SortByStart(appointments) {
		out = append(out, toAppointmentDTO(a))
	}
	return out
}

func toBoardDTO(b *board.Board) boardDTO {
	mechanics := b.Mechanics()
	known := make(map[string]bool, len(mechanics))
	rows := make([]mechanicRowDTO, 0, len(mechanics))
	for _, m := range mechanics {
		known[m.ID] = true
		rows = append(rows, mechanicRowDTO{
			ID:           m.ID,
			RowID:        board.RowID(m.ID),
			Name:         m.FullName(),
			ShiftStart:   m.ShiftStart.String(),
			ShiftEnd:     m.ShiftEnd.String(),
			Appointments: toAppointmentDTOs(b.AppointmentsFor(m.ID)),
		})
	}

	var unassigned []model.Appointment
	for _, a := range b.Appointments() {
		if !known[a.MechanicID] {
			unassigned = append(unassigned, a)
		}
	}

	return boardDTO{
		Day:        b.Day().Format(dayLayout),
		Mechanics:  rows,
		Unassigned: toAppointmentDTOs(unassigned),
	}
}

func toOverlapDTOs(pairs []schedule.OverlapPair) []overlapDTO {
	out := make([]overlapDTO, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, overlapDTO{MechanicID: p.MechanicID, FirstID: p.FirstID, SecondID: p.SecondID})
	}
	return out
}

func toTimeSlotDTOs(slots []board.TimeSlot) []timeSlotDTO {
	out := make([]timeSlotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, timeSlotDTO{Time: s.Time.String(), Label: s.Label, IsHour: s.IsHour})
	}
	return out
}

func toDistributeDTO(r *services.DistributeResult) distributeDTO {
	assignments := make([]assignmentDTO, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		assignments = append(assignments, assignmentDTO{
			OrderID:    a.OrderID,
			MechanicID: a.MechanicID,
			Start:      a.Start.String(),
			Duration:   a.Duration,
		})
	}
	unplaced := r.Unplaced
	if unplaced == nil {
		unplaced = []string{}
	}
	return distributeDTO{
		Day:         r.Day.Format(dayLayout),
		Applied:     r.Applied,
		Assignments: assignments,
		Unplaced:    unplaced,
	}
}

package domain

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// IsTerminal: из cancelled и completed переходов нет.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted
}

// CanTransition задает машину состояний записи:
// pending -> confirmed | cancelled; confirmed -> completed | cancelled.
func CanTransition(from, to AppointmentStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch from {
	case AppointmentStatusPending:
		return to == AppointmentStatusConfirmed || to == AppointmentStatusCancelled
	case AppointmentStatusConfirmed:
		return to == AppointmentStatusCompleted || to == AppointmentStatusCancelled
	}
	return false
}

type CancelActor string

const (
	CancelActorPatient CancelActor = "patient"
	CancelActorDoctor  CancelActor = "doctor"
	CancelActorSystem  CancelActor = "system"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

const (
	MinReasonLength = 10
	MaxReasonLength = 500
)

type Appointment struct {
	ID                 int64             `json:"id"`
	PatientID          int64             `json:"patient_id"`
	DoctorID           int64             `json:"doctor_id"`
	Date               time.Time         `json:"date"`
	Time               string            `json:"time"`
	Reason             string            `json:"reason"`
	Status             AppointmentStatus `json:"status"`
	ConsultationFee    float64           `json:"consultation_fee"`
	PaymentStatus      PaymentStatus     `json:"payment_status"`
	Notes              string            `json:"notes,omitempty"`
	Diagnosis          string            `json:"diagnosis,omitempty"`
	Symptoms           string            `json:"symptoms,omitempty"`
	PrescriptionText   string            `json:"prescription_text,omitempty"`
	FollowUpDate       *time.Time        `json:"follow_up_date,omitempty"`
	CancelledBy        *CancelActor      `json:"cancelled_by,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	PatientName        string            `json:"patient_name,omitempty"`
	DoctorName         string            `json:"doctor_name,omitempty"`
}

type CreateAppointmentDTO struct {
	DoctorID int64  `json:"doctor_id" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

type UpdateAppointmentStatusDTO struct {
	Status             *AppointmentStatus `json:"status" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	Notes              *string            `json:"notes"`
	Diagnosis          *string            `json:"diagnosis"`
	Symptoms           *string            `json:"symptoms"`
	PrescriptionText   *string            `json:"prescription_text"`
	FollowUpDate       *string            `json:"follow_up_date"`
	CancellationReason *string            `json:"cancellation_reason"`
	Medications        []MedicationDTO    `json:"medications"`
}

type CancelAppointmentDTO struct {
	Reason string `json:"reason" binding:"required"`
}

type AppointmentFilter struct {
	PatientID *int64             `json:"patient_id"`
	DoctorID  *int64             `json:"doctor_id"`
	Status    *AppointmentStatus `json:"status"`
	Date      *time.Time         `json:"date"`
	StartDate *time.Time         `json:"start_date"`
	EndDate   *time.Time         `json:"end_date"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// NormalizeDate приводит дату к полуночи UTC: запись хранит дату и время слота раздельно.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package domain

import (
	"time"
)

type Review struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	DoctorID    int64     `json:"doctor_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	PatientName string    `json:"patient_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateReviewDTO struct {
	DoctorID int64  `json:"doctor_id" binding:"required"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Comment  string `json:"comment"`
}

type ReviewFilter struct {
	DoctorID  *int64 `json:"doctor_id"`
	PatientID *int64 `json:"patient_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

package domain

import (
	"time"
)

type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Quantity     int    `json:"quantity"`
	Unit         string `json:"unit"`
	Instructions string `json:"instructions,omitempty"`
}

type Prescription struct {
	ID                int64        `json:"id"`
	Number            string       `json:"number"`
	AppointmentID     int64        `json:"appointment_id"`
	DoctorID          int64        `json:"doctor_id"`
	PatientID         int64        `json:"patient_id"`
	Diagnosis         string       `json:"diagnosis"`
	Notes             string       `json:"notes,omitempty"`
	Medications       []Medication `json:"medications"`
	LabTests          []string     `json:"lab_tests,omitempty"`
	Recommendations   string       `json:"recommendations,omitempty"`
	Allergies         []string     `json:"allergies,omitempty"`
	Contraindications []string     `json:"contraindications,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

type MedicationDTO struct {
	Name         string `json:"name" binding:"required"`
	Dosage       string `json:"dosage" binding:"required"`
	Frequency    string `json:"frequency" binding:"required"`
	Duration     string `json:"duration"`
	Quantity     int    `json:"quantity" binding:"gte=0"`
	Unit         string `json:"unit"`
	Instructions string `json:"instructions"`
}

type PrescriptionFilter struct {
	PatientID *int64 `json:"patient_id"`
	DoctorID  *int64 `json:"doctor_id"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

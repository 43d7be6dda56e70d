package domain

import (
	"time"
)

type Doctor struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Specialization  string    `json:"specialization"`
	Description     string    `json:"description"`
	ExperienceYears int       `json:"experience_years"`
	ConsultationFee float64   `json:"consultation_fee"`
	IsVerified      bool      `json:"is_verified"`
	ProfilePhotoURL string    `json:"profile_photo_url"`
	User            User      `json:"user"`
	Rating          float64   `json:"rating"`
	ReviewsCount    int       `json:"reviews_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateDoctorDTO struct {
	Specialization  string  `json:"specialization" binding:"required"`
	Description     string  `json:"description"`
	ExperienceYears int     `json:"experience_years" binding:"gte=0"`
	ConsultationFee float64 `json:"consultation_fee" binding:"gte=0"`
}

type UpdateDoctorDTO struct {
	Specialization  *string  `json:"specialization"`
	Description     *string  `json:"description"`
	ExperienceYears *int     `json:"experience_years" binding:"omitempty,gte=0"`
	ConsultationFee *float64 `json:"consultation_fee" binding:"omitempty,gte=0"`
}

type DoctorFilter struct {
	Specialization *string `json:"specialization"`
	OnlyVerified   bool    `json:"only_verified"`
	Limit          int     `json:"limit"`
	Offset         int     `json:"offset"`
}

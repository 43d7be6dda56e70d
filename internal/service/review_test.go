package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medibook/internal/domain"
)

type fakeReviewRepo struct {
	reviews map[int64]*domain.Review
	seq     int64
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[int64]*domain.Review)}
}

func (r *fakeReviewRepo) Create(ctx context.Context, patientID int64, dto domain.CreateReviewDTO) (int64, error) {
	for _, review := range r.reviews {
		if review.PatientID == patientID && review.DoctorID == dto.DoctorID {
			return 0, domain.NewConflictError("отзыв об этом враче уже оставлен")
		}
	}
	r.seq++
	r.reviews[r.seq] = &domain.Review{
		ID:        r.seq,
		PatientID: patientID,
		DoctorID:  dto.DoctorID,
		Rating:    dto.Rating,
		Comment:   dto.Comment,
		CreatedAt: time.Now(),
	}
	return r.seq, nil
}

func (r *fakeReviewRepo) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	review, ok := r.reviews[id]
	if !ok {
		return nil, domain.NewNotFoundError("отзыв не найден")
	}
	copied := *review
	return &copied, nil
}

func (r *fakeReviewRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.reviews[id]; !ok {
		return domain.NewNotFoundError("отзыв не найден")
	}
	delete(r.reviews, id)
	return nil
}

func (r *fakeReviewRepo) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	result := make([]domain.Review, 0)
	for _, review := range r.reviews {
		if filter.DoctorID != nil && review.DoctorID != *filter.DoctorID {
			continue
		}
		result = append(result, *review)
	}
	return result, nil
}

func (r *fakeReviewRepo) CountByFilter(ctx context.Context, filter domain.ReviewFilter) (int, error) {
	list, _ := r.List(ctx, filter)
	return len(list), nil
}

func TestReviewRequiresCompletedAppointment(t *testing.T) {
	reviews := newFakeReviewRepo()
	doctors := newFakeDoctorRepo()
	appointments := newFakeAppointmentRepo()
	svc := NewReviewService(reviews, doctors, appointments, zap.NewNop())
	ctx := context.Background()

	doctor := doctors.add(domain.Doctor{UserID: 2, IsVerified: true})
	const patientID = int64(1)

	dto := domain.CreateReviewDTO{DoctorID: doctor.ID, Rating: 5, Comment: "отличный врач"}

	// Без завершенного приема отзыв запрещен.
	_, err := svc.Create(ctx, patientID, dto)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindForbidden, domain.KindOf(err))

	// Активная запись не считается.
	_, err = appointments.Create(ctx, domain.Appointment{
		PatientID: patientID,
		DoctorID:  doctor.ID,
		Date:      time.Now(),
		Time:      "09:00",
		Status:    domain.AppointmentStatusConfirmed,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, patientID, dto)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindForbidden, domain.KindOf(err))

	// Завершенный прием открывает возможность оставить отзыв.
	_, err = appointments.Create(ctx, domain.Appointment{
		PatientID: patientID,
		DoctorID:  doctor.ID,
		Date:      time.Now(),
		Time:      "10:00",
		Status:    domain.AppointmentStatusCompleted,
	})
	require.NoError(t, err)

	id, err := svc.Create(ctx, patientID, dto)
	require.NoError(t, err)
	assert.Positive(t, id)

	// Повторный отзыв о том же враче запрещен.
	_, err = svc.Create(ctx, patientID, dto)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindConflict, domain.KindOf(err))
}

func TestReviewDeleteAccess(t *testing.T) {
	reviews := newFakeReviewRepo()
	doctors := newFakeDoctorRepo()
	appointments := newFakeAppointmentRepo()
	svc := NewReviewService(reviews, doctors, appointments, zap.NewNop())
	ctx := context.Background()

	doctor := doctors.add(domain.Doctor{UserID: 2, IsVerified: true})
	const patientID = int64(1)

	_, err := appointments.Create(ctx, domain.Appointment{
		PatientID: patientID,
		DoctorID:  doctor.ID,
		Date:      time.Now(),
		Time:      "09:00",
		Status:    domain.AppointmentStatusCompleted,
	})
	require.NoError(t, err)

	id, err := svc.Create(ctx, patientID, domain.CreateReviewDTO{DoctorID: doctor.ID, Rating: 4})
	require.NoError(t, err)

	err = svc.Delete(ctx, 999, domain.UserRolePatient, id)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindForbidden, domain.KindOf(err))

	require.NoError(t, svc.Delete(ctx, patientID, domain.UserRolePatient, id))
}

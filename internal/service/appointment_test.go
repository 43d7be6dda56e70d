package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medibook/internal/domain"
)

type appointmentTestEnv struct {
	users         *fakeUserRepo
	doctors       *fakeDoctorRepo
	schedules     *fakeScheduleRepo
	appointments  *fakeAppointmentRepo
	prescriptions *fakePrescriptionRepo
	service       *AppointmentServiceImpl

	patient *domain.User
	doctor  *domain.Doctor
	docUser *domain.User
	date    time.Time
	dateStr string
}

func newAppointmentTestEnv(t *testing.T) *appointmentTestEnv {
	t.Helper()

	env := &appointmentTestEnv{
		users:         newFakeUserRepo(),
		doctors:       newFakeDoctorRepo(),
		schedules:     newFakeScheduleRepo(),
		appointments:  newFakeAppointmentRepo(),
		prescriptions: newFakePrescriptionRepo(),
	}

	env.service = NewAppointmentService(
		env.appointments,
		env.schedules,
		env.doctors,
		env.users,
		env.prescriptions,
		zap.NewNop(),
	)

	env.patient = env.users.add(domain.User{
		FirstName: "Иван",
		LastName:  "Петров",
		Email:     "patient@test.local",
		Phone:     "+79010000001",
		Role:      domain.UserRolePatient,
		IsActive:  true,
	})

	env.docUser = env.users.add(domain.User{
		FirstName: "Анна",
		LastName:  "Смирнова",
		Email:     "doctor@test.local",
		Phone:     "+79010000002",
		Role:      domain.UserRoleDoctor,
		IsActive:  true,
	})

	env.doctor = env.doctors.add(domain.Doctor{
		UserID:          env.docUser.ID,
		Specialization:  "Терапевт",
		ConsultationFee: 2500,
		IsVerified:      true,
	})

	env.date = time.Now().UTC().AddDate(0, 0, 7)
	env.dateStr = env.date.Format("2006-01-02")

	schedule := domain.DefaultSchedule(env.doctor.ID)
	schedule.Weekly[domain.WeekdayOf(env.date)] = []domain.TimeWindow{{Start: "09:00", End: "12:00"}}
	schedule.Policy.SlotDurationMinutes = 30
	schedule.Policy.BufferMinutes = 0
	_, err := env.schedules.Create(context.Background(), schedule)
	require.NoError(t, err)

	return env
}

func (env *appointmentTestEnv) book(t *testing.T, timeStr string) *domain.Appointment {
	t.Helper()
	appointment, err := env.service.Create(context.Background(), env.patient.ID, domain.CreateAppointmentDTO{
		DoctorID: env.doctor.ID,
		Date:     env.dateStr,
		Time:     timeStr,
		Reason:   "сильная головная боль по утрам",
	})
	require.NoError(t, err)
	return appointment
}

func TestAppointmentCreate(t *testing.T) {
	env := newAppointmentTestEnv(t)

	appointment := env.book(t, "09:00")

	assert.Equal(t, domain.AppointmentStatusPending, appointment.Status)
	assert.Equal(t, domain.PaymentStatusPending, appointment.PaymentStatus)
	assert.Equal(t, env.patient.ID, appointment.PatientID)
	assert.Equal(t, env.doctor.ID, appointment.DoctorID)
	assert.Equal(t, "09:00", appointment.Time)
	assert.Equal(t, 2500.0, appointment.ConsultationFee)
}

func TestAppointmentCreateValidation(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		dto  domain.CreateAppointmentDTO
		kind domain.ErrorKind
	}{
		{
			name: "несуществующий врач",
			dto:  domain.CreateAppointmentDTO{DoctorID: 999, Date: env.dateStr, Time: "09:00", Reason: "достаточно длинная причина"},
			kind: domain.ErrorKindNotFound,
		},
		{
			name: "кривая дата",
			dto:  domain.CreateAppointmentDTO{DoctorID: env.doctor.ID, Date: "31-12-2026", Time: "09:00", Reason: "достаточно длинная причина"},
			kind: domain.ErrorKindValidation,
		},
		{
			name: "дата в прошлом",
			dto:  domain.CreateAppointmentDTO{DoctorID: env.doctor.ID, Date: "2020-01-01", Time: "09:00", Reason: "достаточно длинная причина"},
			kind: domain.ErrorKindValidation,
		},
		{
			name: "кривое время",
			dto:  domain.CreateAppointmentDTO{DoctorID: env.doctor.ID, Date: env.dateStr, Time: "9am", Reason: "достаточно длинная причина"},
			kind: domain.ErrorKindValidation,
		},
		{
			name: "слишком короткая причина",
			dto:  domain.CreateAppointmentDTO{DoctorID: env.doctor.ID, Date: env.dateStr, Time: "09:00", Reason: "болит"},
			kind: domain.ErrorKindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Create(ctx, env.patient.ID, tt.dto)
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}
}

func TestAppointmentCreateUnverifiedDoctor(t *testing.T) {
	env := newAppointmentTestEnv(t)

	unverified := env.doctors.add(domain.Doctor{
		UserID:         999,
		Specialization: "Хирург",
		IsVerified:     false,
	})

	_, err := env.service.Create(context.Background(), env.patient.ID, domain.CreateAppointmentDTO{
		DoctorID: unverified.ID,
		Date:     env.dateStr,
		Time:     "09:00",
		Reason:   "достаточно длинная причина",
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindNotFound, domain.KindOf(err))
}

func TestAppointmentCreateSlotTaken(t *testing.T) {
	env := newAppointmentTestEnv(t)

	env.book(t, "09:00")

	other := env.users.add(domain.User{Role: domain.UserRolePatient, IsActive: true})
	_, err := env.service.Create(context.Background(), other.ID, domain.CreateAppointmentDTO{
		DoctorID: env.doctor.ID,
		Date:     env.dateStr,
		Time:     "09:00",
		Reason:   "достаточно длинная причина",
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindConflict, domain.KindOf(err))
}

// Забронировать один слот одновременно пытаются 20 пациентов: ровно один
// получает запись, остальные — ошибку конфликта.
func TestAppointmentCreateConcurrent(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	const n = 20
	patients := make([]*domain.User, n)
	for i := range patients {
		patients[i] = env.users.add(domain.User{
			Email:    fmt.Sprintf("p%d@test.local", i),
			Phone:    fmt.Sprintf("+7903%07d", i),
			Role:     domain.UserRolePatient,
			IsActive: true,
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.service.Create(ctx, patients[i].ID, domain.CreateAppointmentDTO{
				DoctorID: env.doctor.ID,
				Date:     env.dateStr,
				Time:     "10:00",
				Reason:   "достаточно длинная причина",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, domain.ErrorKindConflict, domain.KindOf(err))
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestAppointmentCancelledSlotReusable(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	_, err := env.service.Cancel(ctx, env.patient.ID, domain.UserRolePatient, appointment.ID, "не смогу прийти")
	require.NoError(t, err)

	// После отмены слот снова свободен.
	again := env.book(t, "09:00")
	assert.NotEqual(t, appointment.ID, again.ID)
}

func TestGetAvailableSlots(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	slots, err := env.service.GetAvailableSlots(ctx, env.doctor.ID, env.dateStr)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	env.book(t, "09:30")

	slots, err = env.service.GetAvailableSlots(ctx, env.doctor.ID, env.dateStr)
	require.NoError(t, err)
	assert.Len(t, slots, 5)
	assert.NotContains(t, slots, domain.Slot{Start: "09:30", End: "10:00"})
}

func TestGetAvailableSlotsNoSchedule(t *testing.T) {
	env := newAppointmentTestEnv(t)

	noSchedule := env.doctors.add(domain.Doctor{UserID: 777, IsVerified: true})

	slots, err := env.service.GetAvailableSlots(context.Background(), noSchedule.ID, env.dateStr)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetAvailableSlotsBadDate(t *testing.T) {
	env := newAppointmentTestEnv(t)

	_, err := env.service.GetAvailableSlots(context.Background(), env.doctor.ID, "завтра")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindValidation, domain.KindOf(err))
}

func statusPtr(s domain.AppointmentStatus) *domain.AppointmentStatus { return &s }

func strPtr(s string) *string { return &s }

func TestAppointmentLifecycle(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	confirmed, err := env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status: statusPtr(domain.AppointmentStatusConfirmed),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusConfirmed, confirmed.Status)

	completed, err := env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status:    statusPtr(domain.AppointmentStatusCompleted),
		Diagnosis: strPtr("ОРВИ"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCompleted, completed.Status)
	assert.Equal(t, "ОРВИ", completed.Diagnosis)
}

func TestAppointmentInvalidTransitions(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	// pending -> completed запрещен.
	_, err := env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status: statusPtr(domain.AppointmentStatusCompleted),
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindConflict, domain.KindOf(err))

	// Из конечного статуса переходов нет.
	_, err = env.service.Cancel(ctx, env.patient.ID, domain.UserRolePatient, appointment.ID, "передумал идти")
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status: statusPtr(domain.AppointmentStatusConfirmed),
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindConflict, domain.KindOf(err))
}

func TestAppointmentRepeatedCompletionRejected(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	_, err := env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status: statusPtr(domain.AppointmentStatusConfirmed),
	})
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status:    statusPtr(domain.AppointmentStatusCompleted),
		Diagnosis: strPtr("ОРВИ"),
	})
	require.NoError(t, err)

	// Повторное завершение с новым диагнозом отклоняется: completed терминален,
	// клинические поля первой выдачи не перезаписываются.
	_, err = env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status:    statusPtr(domain.AppointmentStatusCompleted),
		Diagnosis: strPtr("грипп"),
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindConflict, domain.KindOf(err))

	stored, err := env.appointments.GetByID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCompleted, stored.Status)
	assert.Equal(t, "ОРВИ", stored.Diagnosis)

	prescription, err := env.prescriptions.GetByAppointmentID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, "ОРВИ", prescription.Diagnosis)

	// Повторная отправка статуса cancelled по отмененной записи тоже конфликт.
	other := env.book(t, "09:30")
	_, err = env.service.Cancel(ctx, env.patient.ID, domain.UserRolePatient, other.ID, "передумал идти")
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(ctx, env.docUser.ID, other.ID, domain.UpdateAppointmentStatusDTO{
		Status:             statusPtr(domain.AppointmentStatusCancelled),
		CancellationReason: strPtr("врач заболел"),
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindConflict, domain.KindOf(err))
}

func TestAppointmentCancelRequiresReason(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	_, err := env.service.Cancel(ctx, env.patient.ID, domain.UserRolePatient, appointment.ID, "   ")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindState, domain.KindOf(err))

	// Отмена врачом через смену статуса тоже требует причину.
	_, err = env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status: statusPtr(domain.AppointmentStatusCancelled),
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindState, domain.KindOf(err))
}

func TestAppointmentCancelRecordsActor(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	cancelled, err := env.service.Cancel(ctx, env.patient.ID, domain.UserRolePatient, appointment.ID, "не смогу прийти")
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, domain.CancelActorPatient, *cancelled.CancelledBy)
	assert.Equal(t, "не смогу прийти", cancelled.CancellationReason)

	second := env.book(t, "09:30")
	cancelled, err = env.service.Cancel(ctx, env.docUser.ID, domain.UserRoleDoctor, second.ID, "врач заболел")
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, domain.CancelActorDoctor, *cancelled.CancelledBy)
}

func TestAppointmentAccessControl(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	stranger := env.users.add(domain.User{Role: domain.UserRolePatient, IsActive: true})

	_, err := env.service.GetByID(ctx, stranger.ID, domain.UserRolePatient, appointment.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindForbidden, domain.KindOf(err))

	_, err = env.service.Cancel(ctx, stranger.ID, domain.UserRolePatient, appointment.ID, "чужая запись")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindForbidden, domain.KindOf(err))

	// Участники и администратор запись видят.
	_, err = env.service.GetByID(ctx, env.patient.ID, domain.UserRolePatient, appointment.ID)
	assert.NoError(t, err)
	_, err = env.service.GetByID(ctx, env.docUser.ID, domain.UserRoleDoctor, appointment.ID)
	assert.NoError(t, err)
	_, err = env.service.GetByID(ctx, 12345, domain.UserRoleAdmin, appointment.ID)
	assert.NoError(t, err)
}

func TestAppointmentUpdateStatusForeignDoctor(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	otherDocUser := env.users.add(domain.User{Role: domain.UserRoleDoctor, IsActive: true})
	env.doctors.add(domain.Doctor{UserID: otherDocUser.ID, IsVerified: true})

	_, err := env.service.UpdateStatus(ctx, otherDocUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status: statusPtr(domain.AppointmentStatusConfirmed),
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindForbidden, domain.KindOf(err))
}

func TestPrescriptionCreatedOnCompletion(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	_, err := env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status: statusPtr(domain.AppointmentStatusConfirmed),
	})
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status:           statusPtr(domain.AppointmentStatusCompleted),
		Diagnosis:        strPtr("ОРВИ"),
		PrescriptionText: strPtr("постельный режим, обильное питье"),
		Medications: []domain.MedicationDTO{
			{Name: "Парацетамол", Dosage: "500 мг", Frequency: "3 раза в день"},
		},
	})
	require.NoError(t, err)

	prescription, err := env.prescriptions.GetByAppointmentID(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, "ОРВИ", prescription.Diagnosis)
	assert.Equal(t, env.patient.ID, prescription.PatientID)
	assert.Equal(t, env.doctor.ID, prescription.DoctorID)
	assert.Len(t, prescription.Medications, 1)
	assert.NotEmpty(t, prescription.Number)
}

func TestCompletionWithoutClinicalDataSkipsPrescription(t *testing.T) {
	env := newAppointmentTestEnv(t)
	ctx := context.Background()

	appointment := env.book(t, "09:00")

	_, err := env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status: statusPtr(domain.AppointmentStatusConfirmed),
	})
	require.NoError(t, err)

	_, err = env.service.UpdateStatus(ctx, env.docUser.ID, appointment.ID, domain.UpdateAppointmentStatusDTO{
		Status: statusPtr(domain.AppointmentStatusCompleted),
	})
	require.NoError(t, err)

	_, err = env.prescriptions.GetByAppointmentID(ctx, appointment.ID)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindNotFound, domain.KindOf(err))
}

type failingCountAppointmentRepo struct {
	*fakeAppointmentRepo
}

func (r *failingCountAppointmentRepo) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestAppointmentListCountErrorPropagated(t *testing.T) {
	env := newAppointmentTestEnv(t)
	env.book(t, "09:00")

	svc := NewAppointmentService(
		&failingCountAppointmentRepo{fakeAppointmentRepo: env.appointments},
		env.schedules,
		env.doctors,
		env.users,
		env.prescriptions,
		zap.NewNop(),
	)

	// Ошибка подсчета не маскируется длиной страницы.
	_, _, err := svc.List(context.Background(), domain.AppointmentFilter{PatientID: &env.patient.ID})
	require.Error(t, err)
}

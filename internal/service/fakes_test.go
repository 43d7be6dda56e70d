package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medibook/internal/domain"
)

// Фейки репозиториев хранят данные в памяти и воспроизводят контрактные
// гарантии Postgres-слоя: уникальный активный слот, уникальный рецепт на
// запись, типизированные ошибки not_found/conflict.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*domain.User
	seq   int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) add(user domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = r.seq
	r.users[user.ID] = &user
	return &user
}

func (r *fakeUserRepo) Create(ctx context.Context, dto domain.CreateUserDTO) (int64, error) {
	user := r.add(domain.User{
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Email:        dto.Email,
		Phone:        dto.Phone,
		PasswordHash: dto.Password,
		Role:         dto.Role,
		IsActive:     true,
	})
	return user.ID, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("пользователь не найден")
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("пользователь не найден")
}

func (r *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Phone == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("пользователь не найден")
}

func (r *fakeUserRepo) Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error {
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.NewNotFoundError("пользователь не найден")
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return nil, nil
}

type fakeDoctorRepo struct {
	mu      sync.Mutex
	doctors map[int64]*domain.Doctor
	seq     int64
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[int64]*domain.Doctor)}
}

func (r *fakeDoctorRepo) add(doctor domain.Doctor) *domain.Doctor {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	doctor.ID = r.seq
	r.doctors[doctor.ID] = &doctor
	return &doctor
}

func (r *fakeDoctorRepo) Create(ctx context.Context, userID int64, dto domain.CreateDoctorDTO) (int64, error) {
	doctor := r.add(domain.Doctor{
		UserID:          userID,
		Specialization:  dto.Specialization,
		ConsultationFee: dto.ConsultationFee,
	})
	return doctor.ID, nil
}

func (r *fakeDoctorRepo) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return nil, domain.NewNotFoundError("врач не найден")
	}
	copied := *doctor
	return &copied, nil
}

func (r *fakeDoctorRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doctor := range r.doctors {
		if doctor.UserID == userID {
			copied := *doctor
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("врач не найден")
}

func (r *fakeDoctorRepo) Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error {
	return nil
}

func (r *fakeDoctorRepo) SetVerified(ctx context.Context, id int64, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return domain.NewNotFoundError("врач не найден")
	}
	doctor.IsVerified = verified
	return nil
}

func (r *fakeDoctorRepo) UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return domain.NewNotFoundError("врач не найден")
	}
	doctor.ProfilePhotoURL = photoURL
	return nil
}

func (r *fakeDoctorRepo) List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, error) {
	return nil, nil
}

func (r *fakeDoctorRepo) CountByFilter(ctx context.Context, filter domain.DoctorFilter) (int, error) {
	return 0, nil
}

type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules map[int64]*domain.Schedule
	seq       int64
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[int64]*domain.Schedule)}
}

func (r *fakeScheduleRepo) Create(ctx context.Context, schedule domain.Schedule) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[schedule.DoctorID]; ok {
		return 0, domain.NewConflictError("расписание для этого врача уже существует")
	}
	r.seq++
	schedule.ID = r.seq
	r.schedules[schedule.DoctorID] = &schedule
	return schedule.ID, nil
}

func (r *fakeScheduleRepo) GetByDoctorID(ctx context.Context, doctorID int64) (*domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule, ok := r.schedules[doctorID]
	if !ok {
		return nil, domain.NewNotFoundError("расписание не найдено")
	}
	copied := *schedule
	return &copied, nil
}

func (r *fakeScheduleRepo) Update(ctx context.Context, schedule domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.schedules[schedule.DoctorID]
	if !ok {
		return domain.NewNotFoundError("расписание не найдено")
	}
	schedule.ID = existing.ID
	r.schedules[schedule.DoctorID] = &schedule
	return nil
}

type slotKey struct {
	doctorID int64
	date     string
	time     string
}

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[int64]*domain.Appointment
	seq          int64
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[int64]*domain.Appointment)}
}

func (r *fakeAppointmentRepo) key(a *domain.Appointment) slotKey {
	return slotKey{doctorID: a.DoctorID, date: a.Date.Format("2006-01-02"), time: a.Time}
}

func isActiveStatus(s domain.AppointmentStatus) bool {
	return s == domain.AppointmentStatusPending || s == domain.AppointmentStatusConfirmed
}

// Create атомарно проверяет занятость и вставляет, как это делает частичный
// уникальный индекс в Postgres.
func (r *fakeAppointmentRepo) Create(ctx context.Context, appointment domain.Appointment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.key(&appointment)
	for _, existing := range r.appointments {
		if isActiveStatus(existing.Status) && r.key(existing) == key {
			return 0, domain.NewConflictError("выбранный слот времени уже занят")
		}
	}

	r.seq++
	appointment.ID = r.seq
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt
	r.appointments[appointment.ID] = &appointment
	return appointment.ID, nil
}

func (r *fakeAppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.appointments[id]
	if !ok {
		return nil, domain.NewNotFoundError("запись на прием не найдена")
	}
	copied := *appointment
	return &copied, nil
}

func (r *fakeAppointmentRepo) Update(ctx context.Context, appointment domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.appointments[appointment.ID]
	if !ok {
		return domain.NewNotFoundError("запись на прием не найдена")
	}
	appointment.CreatedAt = existing.CreatedAt
	appointment.UpdatedAt = time.Now()
	r.appointments[appointment.ID] = &appointment
	return nil
}

func (r *fakeAppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Appointment, 0)
	for _, a := range r.appointments {
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (r *fakeAppointmentRepo) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	list, _ := r.List(ctx, filter)
	return len(list), nil
}

func (r *fakeAppointmentRepo) ListActiveTimes(ctx context.Context, doctorID int64, date time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := date.Format("2006-01-02")
	times := make([]string, 0)
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && isActiveStatus(a.Status) && a.Date.Format("2006-01-02") == day {
			times = append(times, a.Time)
		}
	}
	return times, nil
}

func (r *fakeAppointmentRepo) ExistsActive(ctx context.Context, doctorID int64, date time.Time, timeStr string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := slotKey{doctorID: doctorID, date: date.Format("2006-01-02"), time: timeStr}
	for _, a := range r.appointments {
		if isActiveStatus(a.Status) && r.key(a) == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) ExistsCompleted(ctx context.Context, patientID, doctorID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.PatientID == patientID && a.DoctorID == doctorID && a.Status == domain.AppointmentStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

type fakePrescriptionRepo struct {
	mu            sync.Mutex
	prescriptions map[int64]*domain.Prescription
	byAppointment map[int64]int64
	seq           int64
}

func newFakePrescriptionRepo() *fakePrescriptionRepo {
	return &fakePrescriptionRepo{
		prescriptions: make(map[int64]*domain.Prescription),
		byAppointment: make(map[int64]int64),
	}
}

func (r *fakePrescriptionRepo) Create(ctx context.Context, prescription domain.Prescription) (*domain.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byAppointment[prescription.AppointmentID]; ok {
		return nil, domain.NewConflictError("рецепт для этой записи уже существует")
	}
	r.seq++
	prescription.ID = r.seq
	prescription.Number = fmt.Sprintf("RX-%06d", r.seq)
	prescription.CreatedAt = time.Now()
	prescription.UpdatedAt = prescription.CreatedAt
	r.prescriptions[prescription.ID] = &prescription
	r.byAppointment[prescription.AppointmentID] = prescription.ID
	copied := prescription
	return &copied, nil
}

func (r *fakePrescriptionRepo) GetByID(ctx context.Context, id int64) (*domain.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prescription, ok := r.prescriptions[id]
	if !ok {
		return nil, domain.NewNotFoundError("рецепт не найден")
	}
	copied := *prescription
	return &copied, nil
}

func (r *fakePrescriptionRepo) GetByAppointmentID(ctx context.Context, appointmentID int64) (*domain.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byAppointment[appointmentID]
	if !ok {
		return nil, domain.NewNotFoundError("рецепт не найден")
	}
	copied := *r.prescriptions[id]
	return &copied, nil
}

func (r *fakePrescriptionRepo) List(ctx context.Context, filter domain.PrescriptionFilter) ([]domain.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Prescription, 0)
	for _, p := range r.prescriptions {
		if filter.PatientID != nil && p.PatientID != *filter.PatientID {
			continue
		}
		if filter.DoctorID != nil && p.DoctorID != *filter.DoctorID {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

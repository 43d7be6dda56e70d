package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medibook/internal/domain"
)

type DoctorRepo struct {
	db *pgxpool.Pool
}

func NewDoctorRepository(db *pgxpool.Pool) *DoctorRepo {
	return &DoctorRepo{
		db: db,
	}
}

const doctorSelect = `
	SELECT d.id, d.user_id, d.specialization, d.description, d.experience_years,
	       d.consultation_fee, d.is_verified, d.profile_photo_url,
	       COALESCE(AVG(r.rating), 0) AS rating, COUNT(r.id) AS reviews_count,
	       d.created_at, d.updated_at,
	       u.id, u.first_name, u.last_name, u.middle_name, u.email, u.phone, u.role, u.is_active, u.created_at, u.updated_at
	FROM doctors d
	JOIN users u ON d.user_id = u.id
	LEFT JOIN reviews r ON r.doctor_id = d.id
`

const doctorGroupBy = `
	GROUP BY d.id, u.id
`

func scanDoctor(row pgx.Row) (*domain.Doctor, error) {
	var doctor domain.Doctor
	err := row.Scan(
		&doctor.ID,
		&doctor.UserID,
		&doctor.Specialization,
		&doctor.Description,
		&doctor.ExperienceYears,
		&doctor.ConsultationFee,
		&doctor.IsVerified,
		&doctor.ProfilePhotoURL,
		&doctor.Rating,
		&doctor.ReviewsCount,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
		&doctor.User.ID,
		&doctor.User.FirstName,
		&doctor.User.LastName,
		&doctor.User.MiddleName,
		&doctor.User.Email,
		&doctor.User.Phone,
		&doctor.User.Role,
		&doctor.User.IsActive,
		&doctor.User.CreatedAt,
		&doctor.User.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("врач не найден")
		}
		return nil, fmt.Errorf("ошибка сканирования данных врача: %w", err)
	}
	return &doctor, nil
}

func (r *DoctorRepo) Create(ctx context.Context, userID int64, dto domain.CreateDoctorDTO) (int64, error) {
	query := `
		INSERT INTO doctors (user_id, specialization, description, experience_years, consultation_fee, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $6)
		RETURNING id
	`

	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx, query,
		userID,
		dto.Specialization,
		dto.Description,
		dto.ExperienceYears,
		dto.ConsultationFee,
		now,
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.NewConflictError("профиль врача для этого пользователя уже существует")
		}
		return 0, fmt.Errorf("ошибка создания профиля врача: %w", err)
	}

	return id, nil
}

func (r *DoctorRepo) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	query := doctorSelect + " WHERE d.id = $1 " + doctorGroupBy
	return scanDoctor(r.db.QueryRow(ctx, query, id))
}

func (r *DoctorRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Doctor, error) {
	query := doctorSelect + " WHERE d.user_id = $1 " + doctorGroupBy
	return scanDoctor(r.db.QueryRow(ctx, query, userID))
}

func (r *DoctorRepo) Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error {
	var updateFields []string
	var args []interface{}

	argCount := 1

	if dto.Specialization != nil {
		updateFields = append(updateFields, fmt.Sprintf("specialization = $%d", argCount))
		args = append(args, *dto.Specialization)
		argCount++
	}

	if dto.Description != nil {
		updateFields = append(updateFields, fmt.Sprintf("description = $%d", argCount))
		args = append(args, *dto.Description)
		argCount++
	}

	if dto.ExperienceYears != nil {
		updateFields = append(updateFields, fmt.Sprintf("experience_years = $%d", argCount))
		args = append(args, *dto.ExperienceYears)
		argCount++
	}

	if dto.ConsultationFee != nil {
		updateFields = append(updateFields, fmt.Sprintf("consultation_fee = $%d", argCount))
		args = append(args, *dto.ConsultationFee)
		argCount++
	}

	if len(updateFields) == 0 {
		return nil
	}

	updateFields = append(updateFields, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, time.Now())
	argCount++

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE doctors
		SET %s
		WHERE id = $%d
	`, strings.Join(updateFields, ", "), argCount)

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления профиля врача: %w", err)
	}

	return nil
}

func (r *DoctorRepo) SetVerified(ctx context.Context, id int64, verified bool) error {
	query := `
		UPDATE doctors
		SET is_verified = $1, updated_at = $2
		WHERE id = $3
	`

	tag, err := r.db.Exec(ctx, query, verified, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса верификации: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("врач не найден")
	}

	return nil
}

func (r *DoctorRepo) UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error {
	query := `
		UPDATE doctors
		SET profile_photo_url = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(ctx, query, photoURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления фото профиля: %w", err)
	}

	return nil
}

func (r *DoctorRepo) List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, error) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.Specialization != nil {
		conditions = append(conditions, fmt.Sprintf("d.specialization ILIKE $%d", argCount))
		args = append(args, "%"+*filter.Specialization+"%")
		argCount++
	}

	if filter.OnlyVerified {
		conditions = append(conditions, "d.is_verified = true")
	}

	query := doctorSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += doctorGroupBy
	query += " ORDER BY d.id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	doctors := make([]domain.Doctor, 0)
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, *doctor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по строкам: %w", err)
	}

	return doctors, nil
}

func (r *DoctorRepo) CountByFilter(ctx context.Context, filter domain.DoctorFilter) (int, error) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.Specialization != nil {
		conditions = append(conditions, fmt.Sprintf("specialization ILIKE $%d", argCount))
		args = append(args, "%"+*filter.Specialization+"%")
		argCount++
	}

	if filter.OnlyVerified {
		conditions = append(conditions, "is_verified = true")
	}

	query := "SELECT COUNT(*) FROM doctors"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета врачей: %w", err)
	}

	return count, nil
}

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

type ReviewRepo struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{
		db: db,
	}
}

func (r *ReviewRepo) Create(ctx context.Context, patientID int64, dto domain.CreateReviewDTO) (int64, error) {
	query := `
		INSERT INTO reviews (patient_id, doctor_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`

	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx, query,
		patientID,
		dto.DoctorID,
		dto.Rating,
		dto.Comment,
		now,
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.NewConflictError("отзыв об этом враче уже оставлен")
		}
		return 0, fmt.Errorf("ошибка создания отзыва: %w", err)
	}

	return id, nil
}

const reviewSelect = `
	SELECT r.id, r.patient_id, r.doctor_id, r.rating, r.comment,
	       u.first_name || ' ' || u.last_name AS patient_name,
	       r.created_at, r.updated_at
	FROM reviews r
	JOIN users u ON r.patient_id = u.id
`

func scanReview(row pgx.Row) (*domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.PatientID,
		&review.DoctorID,
		&review.Rating,
		&review.Comment,
		&review.PatientName,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("отзыв не найден")
		}
		return nil, fmt.Errorf("ошибка сканирования отзыва: %w", err)
	}
	return &review, nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	query := reviewSelect + " WHERE r.id = $1"
	return scanReview(r.db.QueryRow(ctx, query, id))
}

func (r *ReviewRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("ошибка удаления отзыва: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("отзыв не найден")
	}
	return nil
}

func reviewConditions(filter domain.ReviewFilter, prefix string) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.DoctorID != nil {
		conditions = append(conditions, fmt.Sprintf("%sdoctor_id = $%d", prefix, argCount))
		args = append(args, *filter.DoctorID)
		argCount++
	}

	if filter.PatientID != nil {
		conditions = append(conditions, fmt.Sprintf("%spatient_id = $%d", prefix, argCount))
		args = append(args, *filter.PatientID)
		argCount++
	}

	return conditions, args
}

func (r *ReviewRepo) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	conditions, args := reviewConditions(filter, "r.")

	query := reviewSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC"

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

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return reviews, nil
}

func (r *ReviewRepo) CountByFilter(ctx context.Context, filter domain.ReviewFilter) (int, error) {
	conditions, args := reviewConditions(filter, "")

	query := "SELECT COUNT(*) FROM reviews"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета отзывов: %w", err)
	}

	return count, nil
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inquiry-service/internal/domain"
)

// InquiryFilter captures staff listing parameters.
type InquiryFilter struct {
	Confirmed *bool
	Status    *string
	Category  *domain.InquiryCategory
	Limit     int
	Offset    int
}

// InquiryRepository encapsulates inquiry persistence.
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *domain.Inquiry) error
	GetByID(ctx context.Context, id string) (*domain.Inquiry, error)
	List(ctx context.Context, filter InquiryFilter) ([]domain.Inquiry, error)
	Update(ctx context.Context, id string, update domain.InquiryUpdate, updatedBy string) error
	SetConfirmed(ctx context.Context, id string, confirmed bool, updatedBy string) error
	Delete(ctx context.Context, id string) error
}

type inquiryRepository struct {
	pool *pgxpool.Pool
}

// NewInquiryRepository instantiates repository.
func NewInquiryRepository(pool *pgxpool.Pool) InquiryRepository {
	return &inquiryRepository{pool: pool}
}

const inquiryColumns = `id, number, confirmed, name, phone, email, company, category, nationality,
               message, attachments, submitter_ip, risk_score, status, notes, assigned_to,
               created_at, updated_at, updated_by`

func (r *inquiryRepository) Create(ctx context.Context, inquiry *domain.Inquiry) error {
	attachments, err := json.Marshal(inquiry.Attachments)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO inquiries (number, confirmed, name, phone, email, company, category, nationality,
                               message, attachments, submitter_ip, risk_score, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		inquiry.Number,
		inquiry.Confirmed,
		inquiry.Name,
		inquiry.Phone,
		inquiry.Email,
		inquiry.Company,
		inquiry.Category,
		inquiry.Nationality,
		inquiry.Message,
		attachments,
		inquiry.SubmitterIP,
		inquiry.RiskScore,
		inquiry.Status,
	).Scan(&inquiry.ID, &inquiry.CreatedAt)
}

func (r *inquiryRepository) GetByID(ctx context.Context, id string) (*domain.Inquiry, error) {
	query := fmt.Sprintf(`SELECT %s FROM inquiries WHERE id=$1`, inquiryColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanInquiry(row)
}

func (r *inquiryRepository) List(ctx context.Context, filter InquiryFilter) ([]domain.Inquiry, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Confirmed != nil {
		args = append(args, *filter.Confirmed)
		clauses = append(clauses, fmt.Sprintf("confirmed=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM inquiries WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		inquiryColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Inquiry
	for rows.Next() {
		inquiry, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inquiry)
	}
	return result, rows.Err()
}

func (r *inquiryRepository) Update(ctx context.Context, id string, update domain.InquiryUpdate, updatedBy string) error {
	sets := []string{}
	args := []any{}

	if update.Confirmed != nil {
		args = append(args, *update.Confirmed)
		sets = append(sets, fmt.Sprintf("confirmed=$%d", len(args)))
	}
	if update.Status != nil {
		args = append(args, *update.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if update.Notes != nil {
		args = append(args, *update.Notes)
		sets = append(sets, fmt.Sprintf("notes=$%d", len(args)))
	}
	if update.AssignedTo != nil {
		args = append(args, *update.AssignedTo)
		sets = append(sets, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, updatedBy)
	sets = append(sets, fmt.Sprintf("updated_by=$%d", len(args)), "updated_at=NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE inquiries SET %s WHERE id=$%d`, strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *inquiryRepository) SetConfirmed(ctx context.Context, id string, confirmed bool, updatedBy string) error {
	const query = `UPDATE inquiries SET confirmed=$1, updated_by=$2, updated_at=NOW() WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, confirmed, updatedBy, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *inquiryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM inquiries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInquiry(row rowScanner) (*domain.Inquiry, error) {
	var (
		inquiry     domain.Inquiry
		attachments []byte
		createdAt   time.Time
	)
	if err := row.Scan(
		&inquiry.ID,
		&inquiry.Number,
		&inquiry.Confirmed,
		&inquiry.Name,
		&inquiry.Phone,
		&inquiry.Email,
		&inquiry.Company,
		&inquiry.Category,
		&inquiry.Nationality,
		&inquiry.Message,
		&attachments,
		&inquiry.SubmitterIP,
		&inquiry.RiskScore,
		&inquiry.Status,
		&inquiry.Notes,
		&inquiry.AssignedTo,
		&createdAt,
		&inquiry.UpdatedAt,
		&inquiry.UpdatedBy,
	); err != nil {
		return nil, err
	}
	inquiry.CreatedAt = createdAt
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &inquiry.Attachments); err != nil {
			return nil, err
		}
	}
	return &inquiry, nil
}

package repository

import (
	"context"
	"time"

	"seat-reservation-engine/internal/model"
	apperrors "seat-reservation-engine/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SectionRepository interface {
	Create(ctx context.Context, section *model.Section) (*model.Section, error)
	List(ctx context.Context) ([]*model.Section, error)
	FindBySectionID(ctx context.Context, sectionID string) (*model.Section, error)
	// AdjustCapacity 管理員容量修正；floor 是 sold+locked 下限，
	// 調整後容量低於 floor 時整個更新拒絕
	AdjustCapacity(ctx context.Context, sectionID string, delta int, floor int) (*model.Section, error)
	Delete(ctx context.Context, sectionID string) error
}

type SectionRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSectionRepository(pool *pgxpool.Pool) SectionRepository {
	return &SectionRepositoryImpl{
		pool: pool,
	}
}

func (r *SectionRepositoryImpl) Create(ctx context.Context, section *model.Section) (*model.Section, error) {
	query := `
		INSERT INTO sections (section_id, bowl, capacity, seat_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id, section_id, bowl, capacity, seat_price, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		section.SectionID, section.Bowl, section.Capacity, section.SeatPrice,
	).Scan(
		&section.ID,
		&section.SectionID,
		&section.Bowl,
		&section.Capacity,
		&section.SeatPrice,
		&section.CreatedAt,
		&section.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return section, nil
}

func (r *SectionRepositoryImpl) List(ctx context.Context) ([]*model.Section, error) {
	query := `
		SELECT id, section_id, bowl, capacity, seat_price,
		       created_at, updated_at, deleted_at
		FROM sections
		WHERE deleted_at IS NULL
		ORDER BY section_id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := make([]*model.Section, 0)

	for rows.Next() {
		var section model.Section
		err := rows.Scan(
			&section.ID,
			&section.SectionID,
			&section.Bowl,
			&section.Capacity,
			&section.SeatPrice,
			&section.CreatedAt,
			&section.UpdatedAt,
			&section.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		sections = append(sections, &section)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

func (r *SectionRepositoryImpl) FindBySectionID(ctx context.Context, sectionID string) (*model.Section, error) {
	query := `
		SELECT id, section_id, bowl, capacity, seat_price,
		       created_at, updated_at, deleted_at
		FROM sections
		WHERE section_id = $1 AND deleted_at IS NULL
	`

	var section model.Section
	err := r.pool.QueryRow(ctx, query, sectionID).Scan(
		&section.ID,
		&section.SectionID,
		&section.Bowl,
		&section.Capacity,
		&section.SeatPrice,
		&section.CreatedAt,
		&section.UpdatedAt,
		&section.DeletedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrSectionNotFound
		}
		return nil, err
	}

	return &section, nil
}

func (r *SectionRepositoryImpl) AdjustCapacity(ctx context.Context, sectionID string, delta int, floor int) (*model.Section, error) {
	query := `
		UPDATE sections
		SET capacity = capacity + $1, updated_at = $2
		WHERE section_id = $3 AND deleted_at IS NULL AND capacity + $1 >= $4
		RETURNING id, section_id, bowl, capacity, seat_price, created_at, updated_at
	`

	var section model.Section
	err := r.pool.QueryRow(ctx, query, delta, time.Now().UTC(), sectionID, floor).Scan(
		&section.ID,
		&section.SectionID,
		&section.Bowl,
		&section.Capacity,
		&section.SeatPrice,
		&section.CreatedAt,
		&section.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			// 分區不存在或調整後低於 sold+locked 下限
			return nil, apperrors.ErrInvalidInput
		}
		return nil, err
	}

	return &section, nil
}

func (r *SectionRepositoryImpl) Delete(ctx context.Context, sectionID string) error {
	query := `
		UPDATE sections
		SET deleted_at = $1, updated_at = $2
		WHERE section_id = $3 AND deleted_at IS NULL
	`
	now := time.Now().UTC()
	result, err := r.pool.Exec(ctx, query, now, now, sectionID)
	if err != nil {
		return err
	}

	// check if section exists and not already deleted
	if result.RowsAffected() == 0 {
		return apperrors.ErrSectionNotFound
	}

	return nil
}

package psql

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/capsulekeep/capsule-server/internal/domain"
	"github.com/capsulekeep/capsule-server/internal/repository"
)

// MetadataRepository implements repository.MetadataRepository using PostgreSQL
type MetadataRepository struct {
	db DBTX
}

// NewMetadataRepository creates a new PostgreSQL metadata repository
func NewMetadataRepository(db DBTX) repository.MetadataRepository {
	return &MetadataRepository{db: db}
}

// NewMetadataRepositoryWithPool creates a new PostgreSQL metadata repository with a connection pool
func NewMetadataRepositoryWithPool(pool *pgxpool.Pool) repository.MetadataRepository {
	return &MetadataRepository{db: pool}
}

const metadataColumns = `
	id, owner_id, content_address, filename, content_type,
	title, description, uploaded_at, access_condition, category, tags`

func (r *MetadataRepository) Create(ctx context.Context, metadata *domain.Metadata) error {
	query := `
		INSERT INTO metadata (` + metadataColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		metadata.ID, metadata.OwnerID, metadata.ContentAddress, metadata.Filename,
		metadata.ContentType, metadata.Title, metadata.Description, metadata.UploadedAt,
		metadata.AccessCondition, metadata.Category, metadata.Tags)
	if err != nil {
		return handlePostgresError("create metadata", err)
	}

	return nil
}

func (r *MetadataRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Metadata, error) {
	query := `SELECT ` + metadataColumns + ` FROM metadata WHERE id = $1`

	var m domain.Metadata
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.OwnerID, &m.ContentAddress, &m.Filename, &m.ContentType,
		&m.Title, &m.Description, &m.UploadedAt, &m.AccessCondition, &m.Category, &m.Tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMetadataNotFound
		}
		return nil, handlePostgresError("get metadata", err)
	}

	return &m, nil
}

func (r *MetadataRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Metadata, error) {
	query := `
		SELECT ` + metadataColumns + `
		FROM metadata WHERE owner_id = $1
		ORDER BY uploaded_at DESC, id`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, handlePostgresError("list metadata by owner", err)
	}
	defer rows.Close()

	var result []*domain.Metadata
	for rows.Next() {
		var m domain.Metadata
		if err := rows.Scan(
			&m.ID, &m.OwnerID, &m.ContentAddress, &m.Filename, &m.ContentType,
			&m.Title, &m.Description, &m.UploadedAt, &m.AccessCondition, &m.Category, &m.Tags,
		); err != nil {
			return nil, handlePostgresError("scan metadata", err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list metadata by owner", err)
	}

	return result, nil
}

func (r *MetadataRepository) Update(ctx context.Context, metadata *domain.Metadata) error {
	query := `
		UPDATE metadata
		SET filename = $2, content_type = $3, title = $4, description = $5,
		    access_condition = $6, category = $7, tags = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		metadata.ID, metadata.Filename, metadata.ContentType, metadata.Title,
		metadata.Description, metadata.AccessCondition, metadata.Category, metadata.Tags)
	if err != nil {
		return handlePostgresError("update metadata", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMetadataNotFound
	}

	return nil
}

func (r *MetadataRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM metadata WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete metadata", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMetadataNotFound
	}

	return nil
}

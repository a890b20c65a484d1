package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/ports"
)

// DocumentRepositoryImpl implements the DocumentRepository interface
type DocumentRepositoryImpl struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sqlx.DB) ports.DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

const documentColumns = `id, user_id, title, document_type, template_id, content, file_path,
	metadata, version, is_active, created_at, updated_at`

func (r *DocumentRepositoryImpl) Create(ctx context.Context, document *entities.Document) error {
	query := `
		INSERT INTO documents (user_id, title, document_type, template_id, content, file_path, metadata, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	metadata, err := marshalJSONB(document.Metadata)
	if err != nil {
		return err
	}

	err = executorFrom(ctx, r.db).QueryRowContext(ctx, query,
		document.UserID, document.Title, document.DocumentType, document.TemplateID,
		document.Content, document.FilePath, metadata, document.Version,
	).Scan(&document.ID, &document.CreatedAt, &document.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

func (r *DocumentRepositoryImpl) GetByID(ctx context.Context, id int, userID uuid.UUID) (*entities.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1 AND user_id = $2 AND is_active`, documentColumns)

	row := executorFrom(ctx, r.db).QueryRowContext(ctx, query, id, userID)
	document, err := scanDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return document, nil
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, document *entities.Document) error {
	query := `
		UPDATE documents
		SET title = $3, content = $4, metadata = $5, version = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2 AND is_active
		RETURNING updated_at`

	metadata, err := marshalJSONB(document.Metadata)
	if err != nil {
		return err
	}

	err = executorFrom(ctx, r.db).QueryRowContext(ctx, query,
		document.ID, document.UserID, document.Title, document.Content,
		metadata, document.Version,
	).Scan(&document.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrDocumentNotFound
		}
		return fmt.Errorf("update document: %w", err)
	}

	return nil
}

// Delete is a soft delete; the row survives for audit.
func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id int, userID uuid.UUID) error {
	query := `UPDATE documents SET is_active = false, updated_at = CURRENT_TIMESTAMP WHERE id = $1 AND user_id = $2 AND is_active`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrDocumentNotFound
	}

	return nil
}

func (r *DocumentRepositoryImpl) List(ctx context.Context, filter ports.DocumentFilter) ([]*entities.Document, int, error) {
	conditions := []string{"is_active"}
	var args []interface{}
	argIndex := 1

	if filter.IsActive != nil {
		conditions = []string{fmt.Sprintf("is_active = $%d", argIndex)}
		args = append(args, *filter.IsActive)
		argIndex++
	}

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.DocumentType != nil {
		conditions = append(conditions, fmt.Sprintf("document_type = $%d", argIndex))
		args = append(args, *filter.DocumentType)
		argIndex++
	}

	if filter.Search != nil && *filter.Search != "" {
		searchPattern := "%" + *filter.Search + "%"
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argIndex))
		args = append(args, searchPattern)
		argIndex++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM documents %s", whereClause)
	var total int
	err := executorFrom(ctx, r.db).QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s FROM documents %s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d`, documentColumns, whereClause, argIndex, argIndex+1)

	args = append(args, limit, filter.Offset)

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var documents []*entities.Document
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, document)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return documents, total, nil
}

func scanDocument(row rowScanner) (*entities.Document, error) {
	var document entities.Document
	var metadata []byte

	err := row.Scan(
		&document.ID, &document.UserID, &document.Title, &document.DocumentType,
		&document.TemplateID, &document.Content, &document.FilePath, &metadata,
		&document.Version, &document.IsActive, &document.CreatedAt, &document.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(metadata, &document.Metadata); err != nil {
		return nil, err
	}

	return &document, nil
}

// TemplateRepositoryImpl implements the TemplateRepository interface
type TemplateRepositoryImpl struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sqlx.DB) ports.TemplateRepository {
	return &TemplateRepositoryImpl{db: db}
}

const templateColumns = `id, name, document_type, description, template_content, form_fields,
	is_active, created_by, created_at, updated_at`

func (r *TemplateRepositoryImpl) Create(ctx context.Context, template *entities.Template) error {
	query := `
		INSERT INTO templates (name, document_type, description, template_content, form_fields, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	formFields, err := marshalJSONB(template.FormFields)
	if err != nil {
		return err
	}

	err = executorFrom(ctx, r.db).QueryRowContext(ctx, query,
		template.Name, template.DocumentType, template.Description,
		template.Content, formFields, template.CreatedBy,
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}

	return nil
}

func (r *TemplateRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM templates WHERE id = $1 AND is_active`, templateColumns)

	row := executorFrom(ctx, r.db).QueryRowContext(ctx, query, id)
	template, err := scanTemplate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get template: %w", err)
	}

	return template, nil
}

func (r *TemplateRepositoryImpl) ListByType(ctx context.Context, documentType entities.DocumentType) ([]*entities.Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM templates WHERE is_active`, templateColumns)
	var args []interface{}

	if documentType != "" {
		query += ` AND document_type = $1`
		args = append(args, documentType)
	}
	query += ` ORDER BY name ASC`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*entities.Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return templates, nil
}

func scanTemplate(row rowScanner) (*entities.Template, error) {
	var template entities.Template
	var formFields []byte

	err := row.Scan(
		&template.ID, &template.Name, &template.DocumentType, &template.Description,
		&template.Content, &formFields, &template.IsActive, &template.CreatedBy,
		&template.CreatedAt, &template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(formFields, &template.FormFields); err != nil {
		return nil, err
	}

	return &template, nil
}

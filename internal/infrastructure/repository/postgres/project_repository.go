package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

type ProjectRepository struct {
	db    *sql.DB
	newID func() string
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db, newID: uuid.NewString}
}

const projectColumns = `id, owner_id, name, description, type, created_at, updated_at`

// FindOrCreateDefault relies on the partial unique index over (owner_id, name)
// so concurrent first uploads converge on one project.
func (r *ProjectRepository) FindOrCreateDefault(ctx context.Context, ownerID string) (*domain.Project, error) {
	if ownerID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "find or create default project", errors.New("owner id is required"))
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO projects (`+projectColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (owner_id, name) WHERE type = 'uploads' DO NOTHING
`, r.newID(), ownerID, domain.DefaultProjectName, domain.DefaultProjectDescription, domain.DefaultProjectType, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert default project: %w", err)
	}
	return r.FindDefault(ctx, ownerID)
}

func (r *ProjectRepository) FindDefault(ctx context.Context, ownerID string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+projectColumns+`
FROM projects
WHERE owner_id = $1 AND name = $2 AND type = $3
`, ownerID, domain.DefaultProjectName, domain.DefaultProjectType)

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrProjectNotFound, "find default project", fmt.Errorf("owner=%s", ownerID))
		}
		return nil, err
	}
	return project, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, ownerID, projectID string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+projectColumns+`
FROM projects
WHERE id = $1 AND owner_id = $2
`, projectID, ownerID)

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrProjectNotFound, "get project", fmt.Errorf("id=%s", projectID))
		}
		return nil, err
	}
	return project, nil
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+projectColumns+`
FROM projects
WHERE owner_id = $1
ORDER BY created_at, id
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

// Create assigns an id when the project has none.
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	if project.ID == "" {
		project.ID = r.newID()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}
	if project.UpdatedAt.IsZero() {
		project.UpdatedAt = project.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO projects (`+projectColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, project.ID, project.OwnerID, project.Name, project.Description, project.Type, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
UPDATE projects
SET name = $1, description = $2, type = $3, updated_at = $4
WHERE id = $5 AND owner_id = $6
`, project.Name, project.Description, project.Type, project.UpdatedAt, project.ID, project.OwnerID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return affectedOrNotFound(result, domain.ErrProjectNotFound, "update project", project.ID)
}

// Delete removes the project's chats explicitly; documents and chunks go
// through ON DELETE CASCADE.
func (r *ProjectRepository) Delete(ctx context.Context, ownerID, projectID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete project tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM chats
WHERE project_id = $1 AND owner_id = $2
`, projectID, ownerID); err != nil {
		return fmt.Errorf("delete project chats: %w", err)
	}
	result, err := tx.ExecContext(ctx, `
DELETE FROM projects
WHERE id = $1 AND owner_id = $2
`, projectID, ownerID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if err := affectedOrNotFound(result, domain.ErrProjectNotFound, "delete project", projectID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete project tx: %w", err)
	}
	return nil
}

func (r *ProjectRepository) CountContents(ctx context.Context, projectID string) (int, int, error) {
	var documents, chats int
	err := r.db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM documents WHERE project_id = $1),
	(SELECT COUNT(*) FROM chats WHERE project_id = $1)
`, projectID).Scan(&documents, &chats)
	if err != nil {
		return 0, 0, fmt.Errorf("count project contents: %w", err)
	}
	return documents, chats, nil
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Type, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}

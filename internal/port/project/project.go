package project

import (
	"context"

	"github.com/google/uuid"

	domainproject "github.com/alanyang/project-registry/internal/domain/project"
)

//go:generate mockgen -destination=../../mocks/project_repository.go -package=mocks -mock_names=Repository=MockProjectRepository . Repository

// Repository is the durable, key-ordered project table.
// [DIP] service/project depends on this interface, not on a concrete storage.
type Repository interface {
	// Create inserts a new record. An existing id yields domainproject.ErrDuplicateID.
	Create(ctx context.Context, p domainproject.Project) (domainproject.Project, error)
	// GetByID wraps domainproject.ErrNotFound when the id is absent.
	GetByID(ctx context.Context, id uuid.UUID) (domainproject.Project, error)
	// Update overwrites an existing record. Absent ids yield domainproject.ErrNotFound.
	Update(ctx context.Context, p domainproject.Project) error
	// List returns every record ordered by id.
	List(ctx context.Context) ([]domainproject.Project, error)
}

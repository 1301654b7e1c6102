package driven

import (
	"context"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

// EntityStore defines the driven port for assessed entities, their assessors,
// and their scheduled surveys. GetEntity returns (nil, nil) if the id is unknown.
type EntityStore interface {
	ListEntities(ctx context.Context) ([]model.Entity, error)
	GetEntity(ctx context.Context, id int64) (*model.Entity, error)
	// CreateEntity stores the entity with its assessors and survey ids and
	// returns it with database ids assigned.
	CreateEntity(ctx context.Context, entity model.Entity) (model.Entity, error)
}

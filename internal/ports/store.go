package ports

import (
	"context"
	"errors"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

var ErrSchoolNotFound = errors.New("school not found")

// SchoolStore persists whole tenant snapshots. Save replaces the stored
// snapshot wholesale; there is no partial update.
type SchoolStore interface {
	Load(ctx context.Context, id string) (models.School, error)
	Save(ctx context.Context, school models.School) error
	List(ctx context.Context) ([]models.School, error)
}

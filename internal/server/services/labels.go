package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/labels"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
)

const maxLabelNameLength = 255

// LabelService is the registry of one label kind, tags or ingredients.
type LabelService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	kind        models.LabelKind
}

func NewLabelService(db *sql.DB, m repomanager.RepositoryManager, kind models.LabelKind) *LabelService {
	return &LabelService{db: db, repomanager: m, kind: kind}
}

func (s *LabelService) repo() labels.Repository {
	return s.repomanager.Labels(s.db, s.kind)
}

func (s *LabelService) List(ctx context.Context, userID int64, assignedOnly bool) ([]*models.Label, error) {
	return s.repo().List(ctx, userID, assignedOnly)
}

// Create returns the caller's label with this name, creating it if needed.
func (s *LabelService) Create(ctx context.Context, userID int64, name string) (*models.Label, error) {
	name, err := checkLabelName(name)
	if err != nil {
		return nil, err
	}
	return s.repo().GetOrCreate(ctx, userID, name)
}

func (s *LabelService) Get(ctx context.Context, userID, id int64) (*models.Label, error) {
	l, err := s.repo().Get(ctx, userID, id)
	if err != nil {
		return nil, scoped(err)
	}
	return l, nil
}

// Update renames a label. Taking a name already used by another label of
// the same kind and owner is a *common.ConflictError on "name".
func (s *LabelService) Update(ctx context.Context, userID, id int64, name string) (*models.Label, error) {
	name, err := checkLabelName(name)
	if err != nil {
		return nil, err
	}
	l, err := s.repo().Rename(ctx, userID, id, name)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%s %q: %w", s.kind, name,
				&common.ConflictError{Field: "name", Message: "A label with this name already exists."})
		}
		return nil, scoped(err)
	}
	return l, nil
}

// Delete removes a label; recipes referencing it lose the association only.
func (s *LabelService) Delete(ctx context.Context, userID, id int64) error {
	return scoped(s.repo().Delete(ctx, userID, id))
}

func checkLabelName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", common.NewValidationError("name", "This field may not be blank.")
	case len([]rune(name)) > maxLabelNameLength:
		return "", common.NewValidationError("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxLabelNameLength))
	}
	return name, nil
}

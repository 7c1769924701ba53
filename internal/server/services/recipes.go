package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/logging"
	"github.com/dmitrijs2005/recipebook/internal/server/images"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
)

const (
	maxTitleLength = 255
	maxLinkLength  = 255
)

// RecipeInput carries the writable fields of a recipe. Nil means the
// field was absent from the request. For Tags and Ingredients a non-nil
// empty slice clears the set.
type RecipeInput struct {
	Title       *string
	TimeMinutes *int
	Price       *models.Price
	Description *string
	Link        *string
	Tags        *[]string
	Ingredients *[]string
}

type RecipeService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	images        images.Store
	maxImageBytes int64
	logger        logging.Logger
}

func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager, store images.Store, maxImageBytes int64, logger logging.Logger) *RecipeService {
	return &RecipeService{
		db:            db,
		repomanager:   m,
		images:        store,
		maxImageBytes: maxImageBytes,
		logger:        logger.With("module", "recipes"),
	}
}

// List returns the caller's recipes, newest first, with their tags and
// ingredients attached.
func (s *RecipeService) List(ctx context.Context, userID int64, filter models.RecipeFilter) ([]*models.Recipe, error) {
	list, err := s.repomanager.Recipes(s.db).List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if err := s.attachLabels(ctx, s.db, list...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *RecipeService) Get(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	r, err := s.repomanager.Recipes(s.db).Get(ctx, userID, id)
	if err != nil {
		return nil, scoped(err)
	}
	if err := s.attachLabels(ctx, s.db, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Create stores a new recipe. Named tags and ingredients are looked up in
// the caller's registries and created when missing, all in one transaction.
func (s *RecipeService) Create(ctx context.Context, userID int64, in RecipeInput) (*models.Recipe, error) {
	r := &models.Recipe{UserID: userID}
	if err := applyRecipeInput(r, &in, true); err != nil {
		return nil, err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Recipes(tx).Create(ctx, r); err != nil {
			return fmt.Errorf("error creating recipe: %w", err)
		}
		if err := s.writeLabels(ctx, tx, r, in); err != nil {
			return err
		}
		return s.attachLabels(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Update changes a recipe of the caller. With full set every required field
// must be present, otherwise only the given fields change.
func (s *RecipeService) Update(ctx context.Context, userID, id int64, in RecipeInput, full bool) (*models.Recipe, error) {
	var r *models.Recipe
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Recipes(tx)

		cur, err := repo.Get(ctx, userID, id)
		if err != nil {
			return scoped(err)
		}
		if err := applyRecipeInput(cur, &in, full); err != nil {
			return err
		}
		if err := repo.Update(ctx, cur); err != nil {
			return scoped(err)
		}
		if err := s.writeLabels(ctx, tx, cur, in); err != nil {
			return err
		}
		if err := s.attachLabels(ctx, tx, cur); err != nil {
			return err
		}
		r = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a recipe of the caller. Its labels survive; the stored
// image is removed on a best-effort basis.
func (s *RecipeService) Delete(ctx context.Context, userID, id int64) error {
	repo := s.repomanager.Recipes(s.db)

	r, err := repo.Get(ctx, userID, id)
	if err != nil {
		return scoped(err)
	}
	if err := repo.Delete(ctx, userID, id); err != nil {
		return scoped(err)
	}

	s.dropImage(ctx, r.Image)
	return nil
}

// UploadImage replaces the image of a recipe. The content must be a JPEG,
// PNG or GIF no larger than the configured limit.
func (s *RecipeService) UploadImage(ctx context.Context, userID, id int64, body io.Reader) (*models.Recipe, error) {
	repo := s.repomanager.Recipes(s.db)

	r, err := repo.Get(ctx, userID, id)
	if err != nil {
		return nil, scoped(err)
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > s.maxImageBytes {
		return nil, common.NewValidationError("image", fmt.Sprintf("Ensure the file is at most %d bytes.", s.maxImageBytes))
	}
	format, err := images.Detect(data)
	if err != nil {
		return nil, common.NewValidationError("image",
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	key := images.NewKey(format.Ext)
	if err := s.images.Put(ctx, key, bytes.NewReader(data), int64(len(data)), format.ContentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	if err := repo.SetImage(ctx, userID, id, key); err != nil {
		s.dropImage(ctx, key)
		return nil, scoped(err)
	}

	s.dropImage(ctx, r.Image)
	r.Image = key
	return r, nil
}

// ImageURL resolves a stored image key into a client-facing URL. An empty
// key yields an empty URL.
func (s *RecipeService) ImageURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.images.URL(ctx, key)
}

func (s *RecipeService) dropImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "image cleanup failed", "key", key, "err", err)
	}
}

// writeLabels replaces the association sets present in in.
func (s *RecipeService) writeLabels(ctx context.Context, tx dbx.DBTX, r *models.Recipe, in RecipeInput) error {
	sets := []struct {
		kind  models.LabelKind
		names *[]string
	}{
		{models.KindTag, in.Tags},
		{models.KindIngredient, in.Ingredients},
	}

	for _, set := range sets {
		if set.names == nil {
			continue
		}
		repo := s.repomanager.Labels(tx, set.kind)

		ids := make([]int64, 0, len(*set.names))
		for _, name := range *set.names {
			l, err := repo.GetOrCreate(ctx, r.UserID, name)
			if err != nil {
				return fmt.Errorf("error resolving %s %q: %w", set.kind, name, err)
			}
			ids = append(ids, l.ID)
		}
		if err := repo.SetForRecipe(ctx, r.ID, ids); err != nil {
			return fmt.Errorf("error linking %s: %w", set.kind.Plural(), err)
		}
	}
	return nil
}

func (s *RecipeService) attachLabels(ctx context.Context, db dbx.DBTX, list ...*models.Recipe) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	for i, r := range list {
		ids[i] = r.ID
	}

	tags, err := s.repomanager.Labels(db, models.KindTag).ListByRecipes(ctx, ids)
	if err != nil {
		return err
	}
	ingredients, err := s.repomanager.Labels(db, models.KindIngredient).ListByRecipes(ctx, ids)
	if err != nil {
		return err
	}

	for _, r := range list {
		r.Tags = nonNil(tags[r.ID])
		r.Ingredients = nonNil(ingredients[r.ID])
	}
	return nil
}

func nonNil(l []*models.Label) []*models.Label {
	if l == nil {
		return []*models.Label{}
	}
	return l
}

// applyRecipeInput validates in and copies it onto r. Label names in in
// are replaced by their cleaned form. With full set the required fields
// must all be present.
func applyRecipeInput(r *models.Recipe, in *RecipeInput, full bool) error {
	verr := &common.ValidationError{}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		switch {
		case t == "":
			verr.Add("title", "This field may not be blank.")
		case len([]rune(t)) > maxTitleLength:
			verr.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength))
		default:
			r.Title = t
		}
	} else if full {
		verr.Add("title", "This field is required.")
	}

	if in.TimeMinutes != nil {
		switch {
		case *in.TimeMinutes < 0:
			verr.Add("time_minutes", "Ensure this value is greater than or equal to 0.")
		case *in.TimeMinutes > math.MaxInt32:
			verr.Add("time_minutes", fmt.Sprintf("Ensure this value is less than or equal to %d.", math.MaxInt32))
		default:
			r.TimeMinutes = *in.TimeMinutes
		}
	} else if full {
		verr.Add("time_minutes", "This field is required.")
	}

	if in.Price != nil {
		if err := in.Price.Validate(); err != nil {
			var pe *common.ValidationError
			if !errors.As(err, &pe) {
				return err
			}
			for _, m := range pe.Fields["price"] {
				verr.Add("price", m)
			}
		} else {
			r.Price = *in.Price
		}
	} else if full {
		verr.Add("price", "This field is required.")
	}

	if in.Description != nil {
		r.Description = *in.Description
	}

	if in.Link != nil {
		l := strings.TrimSpace(*in.Link)
		if len([]rune(l)) > maxLinkLength {
			verr.Add("link", fmt.Sprintf("Ensure this field has no more than %d characters.", maxLinkLength))
		} else {
			r.Link = l
		}
	}

	if in.Tags != nil {
		clean, err := cleanLabelNames(*in.Tags)
		if err != nil {
			verr.Add("tags", err.Error())
		}
		in.Tags = &clean
	}
	if in.Ingredients != nil {
		clean, err := cleanLabelNames(*in.Ingredients)
		if err != nil {
			verr.Add("ingredients", err.Error())
		}
		in.Ingredients = &clean
	}

	return verr.OrNil()
}

// cleanLabelNames returns the trimmed, distinct names in sorted order.
func cleanLabelNames(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		c, err := checkLabelName(n)
		if err != nil {
			var ve *common.ValidationError
			if errors.As(err, &ve) {
				return nil, errors.New(strings.Join(ve.Fields["name"], " "))
			}
			return nil, err
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

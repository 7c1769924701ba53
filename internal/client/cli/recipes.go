package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/client/client"
	"github.com/dmitrijs2005/recipebook/internal/client/models"
)

// recipeSummary is one row of the list output.
type recipeSummary struct {
	ID          int64    `yaml:"id"`
	Title       string   `yaml:"title"`
	TimeMinutes int      `yaml:"time_minutes"`
	Price       string   `yaml:"price"`
	Tags        []string `yaml:"tags,flow"`
	Ingredients []string `yaml:"ingredients,flow"`
}

func labelNames(list []models.Label) []string {
	names := make([]string, len(list))
	for i, l := range list {
		names[i] = l.Name
	}
	return names
}

// List prints the caller's recipes. Arguments tags=1,2 and ingredients=3
// narrow the result.
func (a *App) List(ctx context.Context, args []string) error {
	filter, err := parseFilter(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	list, err := a.api.ListRecipes(ctx, filter)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No recipes")
		return nil
	}

	rows := make([]recipeSummary, len(list))
	for i, r := range list {
		rows[i] = recipeSummary{
			ID:          r.ID,
			Title:       r.Title,
			TimeMinutes: r.TimeMinutes,
			Price:       r.Price,
			Tags:        labelNames(r.Tags),
			Ingredients: labelNames(r.Ingredients),
		}
	}
	return printYAML(a.out, rows)
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := argID(args, "show <id>")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	r, err := a.api.GetRecipe(ctx, id)
	if err != nil {
		return err
	}
	return printYAML(a.out, r)
}

// Add walks the user through the recipe fields and creates the recipe.
func (a *App) Add(ctx context.Context) error {
	var in models.RecipeInput
	var err error

	if in.Title, err = getSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	minutes, err := getSimpleText(a.reader, "Time (minutes)", a.out)
	if err != nil {
		return err
	}
	if in.TimeMinutes, err = strconv.Atoi(minutes); err != nil {
		return fmt.Errorf("time must be a whole number of minutes")
	}
	if in.Price, err = getSimpleText(a.reader, "Price, e.g. 10.40", a.out); err != nil {
		return err
	}
	if in.Link, err = getSimpleText(a.reader, "Link (optional)", a.out); err != nil {
		return err
	}
	if in.Description, err = GetMultiline(a.reader, "Description (optional)", a.out); err != nil {
		return err
	}
	tags, err := getSimpleText(a.reader, "Tags, comma separated", a.out)
	if err != nil {
		return err
	}
	ingredients, err := getSimpleText(a.reader, "Ingredients, comma separated", a.out)
	if err != nil {
		return err
	}
	in.Tags = labelRefs(splitList(tags))
	in.Ingredients = labelRefs(splitList(ingredients))

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	r, err := a.api.CreateRecipe(ctx, in)
	if err != nil {
		return err
	}
	return printYAML(a.out, r)
}

func labelRefs(names []string) []models.LabelRef {
	refs := make([]models.LabelRef, len(names))
	for i, n := range names {
		refs[i] = models.LabelRef{Name: n}
	}
	return refs
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := argID(args, "delete <id>")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	if err := a.api.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recipe %d deleted\n", id)
	return nil
}

// Upload sends a local image file as the recipe's picture.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: upload <id> <path>")
	}
	id, err := argID(args[:1], "upload <id> <path>")
	if err != nil {
		return err
	}

	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	out, err := a.api.UploadImage(ctx, id, filepath.Base(args[1]), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Image stored at %s\n", out.Image)
	return nil
}

func (a *App) Tags(ctx context.Context, args []string) error {
	return a.labels(ctx, client.Tags, args)
}

func (a *App) Ingredients(ctx context.Context, args []string) error {
	return a.labels(ctx, client.Ingredients, args)
}

// labels prints a label list; the "assigned" argument limits it to labels
// used by at least one recipe.
func (a *App) labels(ctx context.Context, kind client.LabelKind, args []string) error {
	assigned := false
	for _, arg := range args {
		if arg != "assigned" {
			return fmt.Errorf("usage: %s [assigned]", kind)
		}
		assigned = true
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	list, err := a.api.ListLabels(ctx, kind, assigned)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintf(a.out, "No %s\n", kind)
		return nil
	}
	return printYAML(a.out, list)
}

func argID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

// parseFilter reads "tags=1,2" and "ingredients=3" arguments.
func parseFilter(args []string) (models.RecipeFilter, error) {
	var f models.RecipeFilter
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return f, fmt.Errorf("expected tags=<ids> or ingredients=<ids>, got %q", arg)
		}
		ids, err := parseIDs(value)
		if err != nil {
			return f, err
		}
		switch key {
		case "tags":
			f.Tags = append(f.Tags, ids...)
		case "ingredients":
			f.Ingredients = append(f.Ingredients, ids...)
		default:
			return f, fmt.Errorf("unknown filter %q", key)
		}
	}
	return f, nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, item := range splitList(s) {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", item)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

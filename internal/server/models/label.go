package models

import "fmt"

// LabelKind selects which user-scoped name registry a Label belongs to.
// Tags and ingredients share one shape and one set of rules.
type LabelKind string

const (
	KindTag        LabelKind = "tag"
	KindIngredient LabelKind = "ingredient"
)

// Table is the table holding labels of this kind.
func (k LabelKind) Table() string {
	switch k {
	case KindTag:
		return "tags"
	case KindIngredient:
		return "ingredients"
	}
	panic(fmt.Sprintf("unknown label kind %q", string(k)))
}

// JoinTable is the recipe association table for this kind.
func (k LabelKind) JoinTable() string {
	return "recipe_" + k.Table()
}

// JoinColumn is the label column in JoinTable.
func (k LabelKind) JoinColumn() string {
	return string(k) + "_id"
}

// Plural is used for field names in API payloads and error details.
func (k LabelKind) Plural() string {
	return k.Table()
}

// Label is a tag or an ingredient owned by one user.
type Label struct {
	ID     int64
	UserID int64
	Name   string
}

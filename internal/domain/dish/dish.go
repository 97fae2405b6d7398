// Package dish holds the menu item entity as served by the backend catalog.
package dish

// Rating bounds accepted by the backend.
const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 3
)

// Dish is a menu item. It has no reference fields, so a plain assignment is a
// full snapshot: later catalog changes never reach copies held elsewhere.
type Dish struct {
	ID          int64
	Name        string
	Category    string
	ImageURL    string
	Tags        string
	Rating      int
	IsAvailable bool
}

// Filter narrows a dish listing.
type Filter struct {
	// Category limits the listing to one category. Empty means all.
	Category string
	// AvailableOnly hides dishes the kitchen cannot currently serve.
	AvailableOnly bool
}

// DefaultFilter lists available dishes of every category.
func DefaultFilter() Filter {
	return Filter{AvailableOnly: true}
}

// Input carries the fields of a dish to create.
type Input struct {
	Name        string
	Category    string
	ImageURL    string
	Tags        string
	Rating      int
	IsAvailable bool
}

// NewInput returns an Input with the backend defaults applied.
func NewInput(name, category string) Input {
	return Input{
		Name:        name,
		Category:    category,
		Rating:      DefaultRating,
		IsAvailable: true,
	}
}

// Update is a partial dish update. Nil fields are left untouched.
type Update struct {
	Name        *string
	Category    *string
	ImageURL    *string
	Tags        *string
	Rating      *int
	IsAvailable *bool
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return u.Name == nil && u.Category == nil && u.ImageURL == nil &&
		u.Tags == nil && u.Rating == nil && u.IsAvailable == nil
}

// UpdateFrom builds a full-overwrite Update from an Input.
func UpdateFrom(in Input) Update {
	return Update{
		Name:        &in.Name,
		Category:    &in.Category,
		ImageURL:    &in.ImageURL,
		Tags:        &in.Tags,
		Rating:      &in.Rating,
		IsAvailable: &in.IsAvailable,
	}
}

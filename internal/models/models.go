package models

import "time"

// Field length limits applied before any persistence call.
const (
	MaxURLLength         = 2048
	MaxDescriptionLength = 500
	MaxTagLength         = 50
	MaxTags              = 20
	MaxCategoryLength    = 50
)

// Registry is a single bookmarked URL entry.
type Registry struct {
	ID           string     `json:"id" db:"id"`
	OwnerID      string     `json:"owner_id" db:"owner_id"`
	URL          string     `json:"url" db:"url"`
	Description  string     `json:"description" db:"description"`
	Tags         []string   `json:"tags" db:"tags"`
	Category     string     `json:"category" db:"category"`
	Favorite     bool       `json:"favorite" db:"favorite"`
	Public       bool       `json:"public" db:"public"`
	VisitCount   int64      `json:"visit_count" db:"visit_count"`
	ContentHash  string     `json:"-" db:"content_hash"`
	DateAdded    time.Time  `json:"date_added" db:"date_added"`
	DateModified time.Time  `json:"date_modified" db:"date_modified"`
	DateDeleted  *time.Time `json:"-" db:"date_deleted"`
}

// Active reports whether the registry has not been soft-deleted.
func (r Registry) Active() bool {
	return r.DateDeleted == nil
}

// RegistryView is the search projection. Database-only fields
// (visit count, timestamps) never appear here.
type RegistryView struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Favorite    bool     `json:"favorite"`
	Public      bool     `json:"public"`
}

// View projects a registry into its public shape.
func (r Registry) View() RegistryView {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return RegistryView{
		ID:          r.ID,
		URL:         r.URL,
		Description: r.Description,
		Tags:        tags,
		Category:    r.Category,
		Favorite:    r.Favorite,
		Public:      r.Public,
	}
}

// ImportItem is one candidate entry of an import batch.
// Public is a pointer so an omitted field keeps its documented default (true).
type ImportItem struct {
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Favorite    bool     `json:"favorite"`
	Public      *bool    `json:"public"`
}

type ImportResponse struct {
	ImportedCount int `json:"imported_count"`
}

// ImportURLRequest asks the server to fetch a JSON batch from a remote URL.
type ImportURLRequest struct {
	URL string `json:"url"`
}

type SearchResponse struct {
	Results []RegistryView `json:"results"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

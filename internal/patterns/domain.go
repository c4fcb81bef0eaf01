package patterns

import "time"

// Difficulty levels accepted on a pattern.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Pattern is a published quilting pattern.
type Pattern struct {
	ID             string     `json:"id"`
	DesignerID     string     `json:"designerId"`
	DesignerName   string     `json:"designerName"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Difficulty     string     `json:"difficulty"`
	PieceCount     int        `json:"pieceCount"`
	Premium        bool       `json:"premium"`
	ImageURL       string     `json:"imageUrl"`
	PDFURL         string     `json:"-"`
	FavoritesCount int        `json:"favoritesCount"`
	PublishedAt    *time.Time `json:"publishedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// ListFilter narrows a pattern listing.
type ListFilter struct {
	Category   string
	Difficulty string
	Query      string
	Page       int
	PerPage    int
}

// Download points a client at the pattern file. Premium downloads are
// only handed out behind the entitlement gate.
type Download struct {
	Slug   string `json:"slug"`
	PDFURL string `json:"pdfUrl"`
}

package blocks

// Block is an entry in the classic quilt-block reference library.
type Block struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	GridSize    int    `json:"gridSize"`
	Description string `json:"description"`
	DiagramURL  string `json:"diagramUrl"`
}

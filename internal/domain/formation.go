package domain

// Formation is a training program: the top level of the catalog.
type Formation struct {
	ID        string       `json:"id"`
	Category  Category     `json:"category"`
	ImageURL  string       `json:"image_url"`
	BrevetID  string       `json:"brevet_id,omitempty"`
	HasLevels bool         `json:"has_levels"`
	Text      Translations `json:"text"` // name, description
}

// FormationFields lists the localized text attributes of a formation row.
var FormationFields = []string{"name", "description"}

// Level is an ordered module of a formation.
type Level struct {
	ID              string           `json:"id"`
	FormationID     string           `json:"formation_id"`
	DisplayOrder    int              `json:"display_order"`
	SessionsPerWeek int              `json:"sessions_per_week"`
	ImageURL        string           `json:"image_url"`
	GalleryURLs     []string         `json:"gallery_urls,omitempty"`
	VideoURL        string           `json:"video_url,omitempty"`
	Text            Translations     `json:"text"`  // name, description, duration, goals
	Lists           ListTranslations `json:"lists"` // competencies
}

var (
	LevelFields     = []string{"name", "description", "duration", "goals"}
	LevelListFields = []string{"competencies"}
)

// Brevet is a certificate record, optionally shared by several formations.
type Brevet struct {
	ID     string       `json:"id"`
	PDFURL string       `json:"pdf_url"`
	Text   Translations `json:"text"` // name, description, category
}

var BrevetFields = []string{"name", "description", "category"}

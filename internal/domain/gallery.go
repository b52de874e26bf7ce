package domain

import "strings"

// GalleryTag is the coarse filter tag of a gallery image.
type GalleryTag string

func (t GalleryTag) String() string {
	return string(t)
}

const (
	GalleryTagAll         GalleryTag = "all"
	GalleryTagTraining    GalleryTag = "training"
	GalleryTagEquipment   GalleryTag = "equipment"
	GalleryTagCivilian    GalleryTag = GalleryTag(CategoryCivilian)
	GalleryTagFirefighter GalleryTag = GalleryTag(CategoryFirefighter)
)

var GalleryTags = []GalleryTag{
	GalleryTagAll,
	GalleryTagTraining,
	GalleryTagEquipment,
	GalleryTagCivilian,
	GalleryTagFirefighter,
}

// ParseGalleryTag maps unknown or empty values to GalleryTagAll.
func ParseGalleryTag(s string) GalleryTag {
	t := GalleryTag(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range GalleryTags {
		if t == known {
			return t
		}
	}
	return GalleryTagAll
}

// GalleryExtra is a freestanding gallery image row.
type GalleryExtra struct {
	ID       string       `json:"id"`
	ImageURL string       `json:"image_url"`
	Tag      GalleryTag   `json:"tag"`
	Text     Translations `json:"text"` // title, description
}

var GalleryExtraFields = []string{"title", "description"}

// GalleryImage is the display-ready tile assembled from formations, levels and extras.
type GalleryImage struct {
	ID          string     `json:"id"` // prefixed by source kind: formation-, level-, extra-
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Tag         GalleryTag `json:"tag"`
}

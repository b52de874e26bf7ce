package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Row is one record as returned by the content service: column name to value, with
// localized attributes materialized as <field>_<lang> columns.
type Row map[string]any

// String returns the column as text. UUID byte arrays (pgx) and JSON numbers are formatted.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case [16]byte:
		return uuid.UUID(v).String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the column as an int, zero when absent or not numeric.
func (r Row) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

// Bool returns the column as a bool.
func (r Row) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Strings returns an array column, dropping blank entries.
func (r Row) Strings(key string) []string {
	var raw []string
	switch v := r[key].(type) {
	case []string:
		raw = v
	case []any:
		raw = make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		// JSON-encoded array stored in a text column
		if strings.HasPrefix(strings.TrimSpace(v), "[") {
			_ = json.Unmarshal([]byte(v), &raw)
		}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Schema describes which language columns exist and which one is the fallback.
type Schema struct {
	Languages []Language
	Default   Language
}

// Column returns the physical column name of a localized field.
func Column(field string, lang Language) string {
	return field + "_" + string(lang)
}

// Translations collects <field>_<lang> columns. A legacy unsuffixed <field> column is
// accepted as the default-language value when no suffixed column carries text.
func (s Schema) Translations(r Row, fields []string) Translations {
	t := make(Translations, len(fields))
	for _, f := range fields {
		found := false
		for _, l := range s.Languages {
			if v := r.String(Column(f, l)); v != "" {
				t.Set(f, l, v)
				found = true
			}
		}
		if !found {
			if v := r.String(f); v != "" {
				t.Set(f, s.Default, v)
			}
		}
	}
	return t
}

// ListTranslations is the list-valued counterpart of Translations.
func (s Schema) ListTranslations(r Row, fields []string) ListTranslations {
	t := make(ListTranslations, len(fields))
	for _, f := range fields {
		found := false
		for _, l := range s.Languages {
			if v := r.Strings(Column(f, l)); len(v) > 0 {
				t.Set(f, l, v)
				found = true
			}
		}
		if !found {
			if v := r.Strings(f); len(v) > 0 {
				t.Set(f, s.Default, v)
			}
		}
	}
	return t
}

// Formation decodes a formations row.
func (s Schema) Formation(r Row) Formation {
	return Formation{
		ID:        r.String("id"),
		Category:  Category(strings.ToLower(r.String("category"))),
		ImageURL:  strings.TrimSpace(r.String("image_url")),
		BrevetID:  r.String("brevet_id"),
		HasLevels: r.Bool("has_levels"),
		Text:      s.Translations(r, FormationFields),
	}
}

// Level decodes a formation_levels row.
func (s Schema) Level(r Row) Level {
	return Level{
		ID:              r.String("id"),
		FormationID:     r.String("formation_id"),
		DisplayOrder:    r.Int("display_order"),
		SessionsPerWeek: r.Int("sessions_per_week"),
		ImageURL:        strings.TrimSpace(r.String("image_url")),
		GalleryURLs:     r.Strings("gallery_urls"),
		VideoURL:        strings.TrimSpace(r.String("video_url")),
		Text:            s.Translations(r, LevelFields),
		Lists:           s.ListTranslations(r, LevelListFields),
	}
}

// Brevet decodes a brevets row.
func (s Schema) Brevet(r Row) Brevet {
	return Brevet{
		ID:     r.String("id"),
		PDFURL: strings.TrimSpace(r.String("pdf_url")),
		Text:   s.Translations(r, BrevetFields),
	}
}

// GalleryExtra decodes a gallery_images row. Unknown tags become training.
func (s Schema) GalleryExtra(r Row) GalleryExtra {
	tag := ParseGalleryTag(r.String("category"))
	if tag == GalleryTagAll {
		tag = GalleryTagTraining
	}
	return GalleryExtra{
		ID:       r.String("id"),
		ImageURL: strings.TrimSpace(r.String("image_url")),
		Tag:      tag,
		Text:     s.Translations(r, GalleryExtraFields),
	}
}

// Package gallery merges item, level and freestanding images into one filterable collection.
package gallery

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/locale"
)

// Catalog is the part of catalog.Store the aggregator reads.
type Catalog interface {
	AllFormations(ctx context.Context) ([]domain.Formation, error)
	AllLevels(ctx context.Context) ([]domain.Level, error)
	GalleryExtras(ctx context.Context) ([]domain.GalleryExtra, error)
}

// Result is the merged collection plus the sources that could not be loaded.
type Result struct {
	Images []domain.GalleryImage
	Failed []string
}

// Degraded reports whether any source was omitted.
func (r Result) Degraded() bool {
	return len(r.Failed) > 0
}

type Aggregator struct {
	catalog Catalog
}

func NewAggregator(catalog Catalog) *Aggregator {
	return &Aggregator{catalog: catalog}
}

// ListImages fetches the three sources concurrently. A failing source is left out
// without affecting the others. Item images come first, then level images, then
// extras, each in fetch order.
func (a *Aggregator) ListImages(ctx context.Context, lc locale.Context) Result {
	var (
		formations []domain.Formation
		levels     []domain.Level
		extras     []domain.GalleryExtra
		failed     [3]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if formations, err = a.catalog.AllFormations(gctx); err != nil {
			log.Warnf("⚠️ Gallery source formations unavailable: %v", err)
			failed[0] = true
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if levels, err = a.catalog.AllLevels(gctx); err != nil {
			log.Warnf("⚠️ Gallery source levels unavailable: %v", err)
			failed[1] = true
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if extras, err = a.catalog.GalleryExtras(gctx); err != nil {
			log.Warnf("⚠️ Gallery source extras unavailable: %v", err)
			failed[2] = true
		}
		return nil
	})
	_ = g.Wait()

	res := Result{Images: make([]domain.GalleryImage, 0, len(formations)+len(levels)+len(extras))}
	for i, name := range []string{"formations", "levels", "extras"} {
		if failed[i] {
			res.Failed = append(res.Failed, name)
		}
	}

	for _, f := range formations {
		if strings.TrimSpace(f.ImageURL) == "" {
			continue
		}
		res.Images = append(res.Images, domain.GalleryImage{
			ID:          "formation-" + f.ID,
			URL:         f.ImageURL,
			Title:       lc.Text(f.Text, "name"),
			Description: lc.Text(f.Text, "description"),
			Tag:         domain.GalleryTag(f.Category),
		})
	}
	for _, l := range levels {
		if strings.TrimSpace(l.ImageURL) == "" {
			continue
		}
		res.Images = append(res.Images, domain.GalleryImage{
			ID:          "level-" + l.ID,
			URL:         l.ImageURL,
			Title:       lc.Text(l.Text, "name"),
			Description: lc.Text(l.Text, "description"),
			Tag:         domain.GalleryTagTraining,
		})
	}
	for _, e := range extras {
		if strings.TrimSpace(e.ImageURL) == "" {
			continue
		}
		res.Images = append(res.Images, domain.GalleryImage{
			ID:          "extra-" + e.ID,
			URL:         e.ImageURL,
			Title:       lc.Text(e.Text, "title"),
			Description: lc.Text(e.Text, "description"),
			Tag:         e.Tag,
		})
	}

	return res
}

// FilterByCategory keeps the images tagged tag. GalleryTagAll keeps everything.
func FilterByCategory(images []domain.GalleryImage, tag domain.GalleryTag) []domain.GalleryImage {
	if tag == domain.GalleryTagAll || tag == "" {
		return images
	}
	out := make([]domain.GalleryImage, 0, len(images))
	for _, img := range images {
		if img.Tag == tag {
			out = append(out, img)
		}
	}
	return out
}

// Counts returns how many images carry each tag, with GalleryTagAll holding the total.
func Counts(images []domain.GalleryImage) map[domain.GalleryTag]int {
	counts := map[domain.GalleryTag]int{domain.GalleryTagAll: len(images)}
	for _, img := range images {
		counts[img.Tag]++
	}
	return counts
}

// Package catalog caches content records per query and exposes them as ordered,
// grouped collections for the browsing views.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"firetechnics/site/internal/domain"
)

// Source is the read-only content boundary.
type Source interface {
	ListFormations(ctx context.Context, category domain.Category) ([]domain.Formation, error)
	GetFormation(ctx context.Context, id string) (*domain.Formation, error)
	ListLevels(ctx context.Context, formationID string) ([]domain.Level, error)
	ListAllFormations(ctx context.Context) ([]domain.Formation, error)
	ListAllLevels(ctx context.Context) ([]domain.Level, error)
	GetBrevets(ctx context.Context, ids []string) ([]domain.Brevet, error)
	ListBrevets(ctx context.Context) ([]domain.Brevet, error)
	ListGalleryExtras(ctx context.Context) ([]domain.GalleryExtra, error)
}

// FetchError reports a failed content fetch with no cached fallback. It matches
// domain.ErrFetchFailed and the underlying cause with errors.Is.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{domain.ErrFetchFailed, e.Err}
}

type entry struct {
	value     any
	fetchedAt time.Time
}

// Store is a read-through cache over a Source. Each distinct query is fetched at most
// once concurrently; a failed refresh keeps serving the previous value.
type Store struct {
	src Source
	ttl time.Duration
	def domain.Language
	now func() time.Time

	mutex   sync.RWMutex
	entries map[string]entry
	errs    map[string]error

	group singleflight.Group
}

// NewStore creates a Store. A zero ttl keeps entries until Purge.
func NewStore(src Source, ttl time.Duration, defaultLang domain.Language) *Store {
	return &Store{
		src:     src,
		ttl:     ttl,
		def:     defaultLang,
		now:     time.Now,
		entries: make(map[string]entry),
		errs:    make(map[string]error),
	}
}

// DefaultLanguage is the language whose names define list order.
func (s *Store) DefaultLanguage() domain.Language {
	return s.def
}

func (s *Store) lookup(key string) (any, bool, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, false
	}
	fresh := s.ttl <= 0 || s.now().Sub(e.fetchedAt) < s.ttl
	return e.value, true, fresh
}

func (s *Store) put(key string, v any) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[key] = entry{value: v, fetchedAt: s.now()}
	delete(s.errs, key)
}

func (s *Store) fail(key string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.errs[key] = err
}

// Err reports the fetch failures that have not been followed by a successful refresh.
func (s *Store) Err() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.errs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s.errs))
	for k := range s.errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, fmt.Errorf("%s: %w", k, s.errs[k]))
	}
	return errors.Join(errs...)
}

// Purge drops every cached entry so the next read refetches.
func (s *Store) Purge() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[string]entry)
}

// load returns the cached value for key, fetching it when absent or expired.
// Concurrent callers for the same key share one fetch.
func load[T any](ctx context.Context, s *Store, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	cached, ok, fresh := s.lookup(key)
	if ok && fresh {
		return cached.(T), nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.put(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return res.Val.(T), nil
		}
		if errors.Is(res.Err, domain.ErrNotFound) {
			return zero, res.Err
		}
		s.fail(key, res.Err)
		if ok {
			log.Warnf("⚠️ Serving stale %s after failed refresh: %v", key, res.Err)
			return cached.(T), nil
		}
		return zero, &FetchError{Key: key, Err: res.Err}
	}
}

func (s *Store) collator() *collate.Collator {
	return collate.New(language.Make(s.def.String()))
}

// ListByCategory returns the items of category ordered by default-language name, then id.
// The order does not depend on the display language.
func (s *Store) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Formation, error) {
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}
	items, err := load(ctx, s, "formations:"+category.String(), func(ctx context.Context) ([]domain.Formation, error) {
		items, err := s.src.ListFormations(ctx, category)
		if err != nil {
			return nil, err
		}
		s.sortByName(items)
		for _, f := range items {
			s.put("formation:"+f.ID, f)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (s *Store) sortByName(items []domain.Formation) {
	c := s.collator()
	sort.SliceStable(items, func(i, j int) bool {
		a := strings.TrimSpace(items[i].Text.Get("name", s.def))
		b := strings.TrimSpace(items[j].Text.Get("name", s.def))
		if cmp := c.CompareString(a, b); cmp != 0 {
			return cmp < 0
		}
		return items[i].ID < items[j].ID
	})
}

// GetItem returns one item or domain.ErrNotFound.
func (s *Store) GetItem(ctx context.Context, id string) (domain.Formation, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Formation{}, domain.ErrNotFound
	}
	return load(ctx, s, "formation:"+id, func(ctx context.Context) (domain.Formation, error) {
		f, err := s.src.GetFormation(ctx, id)
		if err != nil {
			return domain.Formation{}, err
		}
		return *f, nil
	})
}

// ListSubLevels returns the levels of an item ordered by display order.
func (s *Store) ListSubLevels(ctx context.Context, itemID string) ([]domain.Level, error) {
	levels, err := load(ctx, s, "levels:"+itemID, func(ctx context.Context) ([]domain.Level, error) {
		levels, err := s.src.ListLevels(ctx, itemID)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(levels, func(i, j int) bool {
			if levels[i].DisplayOrder != levels[j].DisplayOrder {
				return levels[i].DisplayOrder < levels[j].DisplayOrder
			}
			return levels[i].ID < levels[j].ID
		})
		return levels, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(levels), nil
}

// FindLevel returns the level of itemID with the given display order.
func (s *Store) FindLevel(ctx context.Context, itemID string, order int) (domain.Level, error) {
	levels, err := s.ListSubLevels(ctx, itemID)
	if err != nil {
		return domain.Level{}, err
	}
	for _, l := range levels {
		if l.DisplayOrder == order {
			return l, nil
		}
	}
	return domain.Level{}, domain.ErrNotFound
}

// GetCertificate returns one certificate or domain.ErrNotFound.
func (s *Store) GetCertificate(ctx context.Context, id string) (domain.Brevet, error) {
	found, err := s.certificates(ctx, []string{id})
	if b, ok := found[id]; ok {
		return b, nil
	}
	if err != nil {
		return domain.Brevet{}, err
	}
	return domain.Brevet{}, domain.ErrNotFound
}

// CertificatesFor returns the certificates linked to items keyed by id. Each distinct
// id is fetched at most once, in a single batch for all uncached ids. On failure the
// certificates already known are still returned alongside the error.
func (s *Store) CertificatesFor(ctx context.Context, items ...domain.Formation) (map[string]domain.Brevet, error) {
	ids := make([]string, 0, len(items))
	for _, f := range items {
		if f.BrevetID != "" {
			ids = append(ids, f.BrevetID)
		}
	}
	return s.certificates(ctx, ids)
}

func (s *Store) certificates(ctx context.Context, ids []string) (map[string]domain.Brevet, error) {
	found := make(map[string]domain.Brevet, len(ids))
	seen := make(map[string]bool, len(ids))
	missing := make([]string, 0, len(ids))

	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		v, ok, fresh := s.lookup("brevet:" + id)
		if ok {
			if b, isSet := v.(*domain.Brevet); isSet && b != nil {
				found[id] = *b
			}
		}
		if !ok || !fresh {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	sort.Strings(missing)
	key := "brevets:batch:" + strings.Join(missing, ",")
	ch := s.group.DoChan(key, func() (any, error) {
		brevets, err := s.src.GetBrevets(context.WithoutCancel(ctx), missing)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]*domain.Brevet, len(brevets))
		for i := range brevets {
			byID[brevets[i].ID] = &brevets[i]
		}
		for _, id := range missing {
			// nil marks an id the content service does not know
			s.put("brevet:"+id, byID[id])
		}
		return nil, nil
	})

	var err error
	select {
	case <-ctx.Done():
		return found, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			for _, id := range missing {
				s.fail("brevet:"+id, res.Err)
			}
			log.Warnf("⚠️ Certificates %s unavailable: %v", strings.Join(missing, ","), res.Err)
			err = &FetchError{Key: key, Err: res.Err}
		}
	}

	for _, id := range missing {
		if v, ok, _ := s.lookup("brevet:" + id); ok {
			if b, isSet := v.(*domain.Brevet); isSet && b != nil {
				found[id] = *b
			}
		}
	}
	return found, err
}

// ListCertificates returns every certificate in fetch order.
func (s *Store) ListCertificates(ctx context.Context) ([]domain.Brevet, error) {
	brevets, err := load(ctx, s, "brevets:all", func(ctx context.Context) ([]domain.Brevet, error) {
		brevets, err := s.src.ListBrevets(ctx)
		if err != nil {
			return nil, err
		}
		for i := range brevets {
			s.put("brevet:"+brevets[i].ID, &brevets[i])
		}
		return brevets, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(brevets), nil
}

// AllFormations returns every item in fetch order.
func (s *Store) AllFormations(ctx context.Context) ([]domain.Formation, error) {
	return load(ctx, s, "formations:all", s.src.ListAllFormations)
}

// AllLevels returns every level in fetch order.
func (s *Store) AllLevels(ctx context.Context) ([]domain.Level, error) {
	return load(ctx, s, "levels:all", s.src.ListAllLevels)
}

// GalleryExtras returns the freestanding gallery images in fetch order.
func (s *Store) GalleryExtras(ctx context.Context) ([]domain.GalleryExtra, error) {
	return load(ctx, s, "gallery:extras", s.src.ListGalleryExtras)
}

// Package catalogtest provides an in-memory content source for tests.
package catalogtest

import (
	"context"
	"sync"

	"firetechnics/site/internal/domain"
)

// Source is an in-memory catalog.Source that counts calls per method and can be
// told to fail individual methods.
type Source struct {
	mutex sync.Mutex

	Formations []domain.Formation
	Levels     []domain.Level
	Brevets    []domain.Brevet
	Extras     []domain.GalleryExtra

	// Fail maps a method name to the error it returns.
	Fail  map[string]error
	calls map[string]int
	// BrevetBatches records the id sets passed to GetBrevets.
	BrevetBatches [][]string
	// Gate, when set, blocks every call until it is closed.
	Gate chan struct{}
}

func (s *Source) enter(method string) error {
	if s.Gate != nil {
		<-s.Gate
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++
	return s.Fail[method]
}

// SetFail makes method return err; a nil err clears the failure.
func (s *Source) SetFail(method string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.Fail == nil {
		s.Fail = make(map[string]error)
	}
	if err == nil {
		delete(s.Fail, method)
		return
	}
	s.Fail[method] = err
}

// Calls returns how often method was invoked.
func (s *Source) Calls(method string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (s *Source) TotalCalls() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *Source) ListFormations(ctx context.Context, category domain.Category) ([]domain.Formation, error) {
	if err := s.enter("ListFormations"); err != nil {
		return nil, err
	}
	var out []domain.Formation
	for _, f := range s.Formations {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Source) GetFormation(ctx context.Context, id string) (*domain.Formation, error) {
	if err := s.enter("GetFormation"); err != nil {
		return nil, err
	}
	for _, f := range s.Formations {
		if f.ID == id {
			f := f
			return &f, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Source) ListLevels(ctx context.Context, formationID string) ([]domain.Level, error) {
	if err := s.enter("ListLevels"); err != nil {
		return nil, err
	}
	var out []domain.Level
	for _, l := range s.Levels {
		if l.FormationID == formationID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *Source) ListAllFormations(ctx context.Context) ([]domain.Formation, error) {
	if err := s.enter("ListAllFormations"); err != nil {
		return nil, err
	}
	return append([]domain.Formation(nil), s.Formations...), nil
}

func (s *Source) ListAllLevels(ctx context.Context) ([]domain.Level, error) {
	if err := s.enter("ListAllLevels"); err != nil {
		return nil, err
	}
	return append([]domain.Level(nil), s.Levels...), nil
}

func (s *Source) GetBrevets(ctx context.Context, ids []string) ([]domain.Brevet, error) {
	if err := s.enter("GetBrevets"); err != nil {
		return nil, err
	}
	s.mutex.Lock()
	s.BrevetBatches = append(s.BrevetBatches, append([]string(nil), ids...))
	s.mutex.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Brevet
	for _, b := range s.Brevets {
		if want[b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Source) ListBrevets(ctx context.Context) ([]domain.Brevet, error) {
	if err := s.enter("ListBrevets"); err != nil {
		return nil, err
	}
	return append([]domain.Brevet(nil), s.Brevets...), nil
}

func (s *Source) ListGalleryExtras(ctx context.Context) ([]domain.GalleryExtra, error) {
	if err := s.enter("ListGalleryExtras"); err != nil {
		return nil, err
	}
	return append([]domain.GalleryExtra(nil), s.Extras...), nil
}

// Text builds a Translations value from alternating field, language, value triples.
func Text(kv ...string) domain.Translations {
	t := domain.Translations{}
	for i := 0; i+2 < len(kv); i += 3 {
		t.Set(kv[i], domain.Language(kv[i+1]), kv[i+2])
	}
	return t
}

package navigation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"firetechnics/site/internal/domain"
)

func newController() *Controller {
	return NewController(Options{DeepLinkFetch: true, AnchorDelay: 100 * time.Millisecond})
}

func TestInitialStateIsHome(t *testing.T) {
	require.Equal(t, Home(), newController().Current())
}

func TestBackFromItemReturnsToOriginCategory(t *testing.T) {
	c := newController()

	c.Dispatch(Event{Kind: EventSelectCategory, Category: domain.CategoryFirefighter})
	tr := c.Dispatch(Event{Kind: EventSelectItem, ItemID: "X"})
	require.Equal(t, ItemDetail("X", domain.CategoryFirefighter), tr.To)
	require.Equal(t, ScrollTop, tr.Scroll.Kind)

	tr = c.Dispatch(Event{Kind: EventBack})
	require.Equal(t, CatalogList(domain.CategoryFirefighter), tr.To)
	require.Equal(t, "/category/firefighter", tr.To.Path())

	tr = c.Dispatch(Event{Kind: EventBack})
	require.Equal(t, Home(), tr.To)
}

func TestBackWithoutHistoryUsesRememberedCategory(t *testing.T) {
	c := Restore(Options{}, Snapshot{Current: ItemDetail("X", domain.CategoryCivilian)})

	require.Equal(t, CatalogList(domain.CategoryCivilian), c.BackTarget())
	tr := c.Dispatch(Event{Kind: EventBack})
	require.Equal(t, CatalogList(domain.CategoryCivilian), tr.To)
}

func TestSelectLevelThenCloseReturnsToSameItem(t *testing.T) {
	c := newController()
	c.Dispatch(Event{Kind: EventSelectCategory, Category: domain.CategoryCivilian})
	c.Dispatch(Event{Kind: EventSelectItem, ItemID: "X"})

	tr := c.Dispatch(Event{Kind: EventSelectLevel, LevelOrder: 2, Handoff: "tok"})
	require.Equal(t, SubLevelDetail("X", 2, "tok", domain.CategoryCivilian), tr.To)
	require.False(t, tr.Fetch)
	require.Equal(t, "/item/X/level/2?h=tok", tr.To.Path())

	tr = c.Dispatch(Event{Kind: EventClose})
	require.Equal(t, ItemDetail("X", domain.CategoryCivilian), tr.To)

	tr = c.Dispatch(Event{Kind: EventBack})
	require.Equal(t, CatalogList(domain.CategoryCivilian), tr.To)
}

func TestEnrollGoesHomeWithDeferredContactScroll(t *testing.T) {
	c := newController()
	c.Dispatch(Event{Kind: EventSelectItem, ItemID: "X"})
	c.Dispatch(Event{Kind: EventSelectLevel, LevelOrder: 1, Handoff: "tok"})

	tr := c.Dispatch(Event{Kind: EventEnroll})
	require.Equal(t, Home(), tr.To)
	require.Equal(t, Scroll{Kind: ScrollAnchor, Anchor: AnchorContact, Delay: 100 * time.Millisecond}, tr.Scroll)
}

func TestInvalidCategoryRedirectsHome(t *testing.T) {
	c := newController()
	c.Dispatch(Event{Kind: EventGallery})

	tr := c.Enter(CatalogList("pilots"))
	require.True(t, tr.Redirected)
	require.ErrorIs(t, tr.Reason, domain.ErrInvalidCategory)
	require.Equal(t, Home(), tr.To)
}

func TestItemDetailRequiresID(t *testing.T) {
	tr := newController().Enter(ItemDetail("  ", domain.CategoryCivilian))
	require.True(t, tr.Redirected)
	require.Equal(t, Home(), tr.To)
}

func TestDirectLevelEntryWithIDsFetches(t *testing.T) {
	tr := newController().Enter(SubLevelDetail("X", 3, "", ""))
	require.False(t, tr.Redirected)
	require.True(t, tr.Fetch)
	require.Equal(t, "/item/X/level/3", tr.To.Path())
}

func TestDirectLevelEntryWithoutIDsRedirectsBack(t *testing.T) {
	c := newController()
	c.Dispatch(Event{Kind: EventSelectCategory, Category: domain.CategoryCivilian})

	tr := c.Enter(SubLevelDetail("", 0, "", ""))
	require.True(t, tr.Redirected)
	require.ErrorIs(t, tr.Reason, domain.ErrMissingHandoffData)
	require.Equal(t, CatalogList(domain.CategoryCivilian), tr.To)
}

func TestDirectLevelEntryWithoutFetchFallbackRedirectsToItem(t *testing.T) {
	c := NewController(Options{DeepLinkFetch: false})

	tr := c.Enter(SubLevelDetail("X", 3, "", ""))
	require.True(t, tr.Redirected)
	require.Equal(t, ItemDetail("X", ""), tr.To)
}

func TestRecover(t *testing.T) {
	c := newController()
	c.Dispatch(Event{Kind: EventSelectCategory, Category: domain.CategoryCivilian})
	c.Dispatch(Event{Kind: EventSelectItem, ItemID: "X"})
	c.Enter(SubLevelDetail("X", 9, "", ""))

	tr := c.Recover(domain.ErrNotFound)
	require.Equal(t, ItemDetail("X", domain.CategoryCivilian), tr.To)
	require.True(t, tr.Redirected)

	tr = c.Recover(domain.ErrNotFound)
	require.Equal(t, CatalogList(domain.CategoryCivilian), tr.To)

	tr = c.Recover(errors.Join(domain.ErrFetchFailed, errors.New("timeout")))
	require.True(t, tr.Retry)
	require.Equal(t, tr.From, tr.To)
	require.Equal(t, ScrollNone, tr.Scroll.Kind)
}

func TestReenteringPreviousStateUnwindsHistory(t *testing.T) {
	c := newController()
	c.Enter(CatalogList(domain.CategoryCivilian))
	c.Enter(ItemDetail("X", domain.CategoryCivilian))

	// browser back to the list
	c.Enter(CatalogList(domain.CategoryCivilian))
	require.Equal(t, Home(), c.BackTarget())
}

func TestReenteringSameStateDoesNotScroll(t *testing.T) {
	c := newController()
	c.Enter(ItemDetail("X", ""))
	tr := c.Enter(ItemDetail("X", ""))
	require.Equal(t, ScrollNone, tr.Scroll.Kind)
	require.Len(t, c.Snapshot().History, 1)
}

func TestHistoryIsBounded(t *testing.T) {
	c := NewController(Options{MaxHistory: 3})
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		c.Enter(ItemDetail(id, ""))
	}
	snap := c.Snapshot()
	require.Len(t, snap.History, 3)
	require.Equal(t, "b", snap.History[0].ItemID)

	restored := Restore(Options{MaxHistory: 3}, snap)
	require.Equal(t, ItemDetail("e", ""), restored.Current())
	require.Equal(t, ItemDetail("d", ""), restored.BackTarget())
}

func TestTrackerDiscardsSupersededLoads(t *testing.T) {
	tr := NewTracker()

	first := tr.Begin("s1", ItemDetail("X", "").Key())
	second := tr.Begin("s1", ItemDetail("Y", "").Key())
	other := tr.Begin("s2", Home().Key())

	require.False(t, tr.Current(first))
	require.True(t, tr.Current(second))
	require.False(t, tr.Done(first))
	require.True(t, tr.Done(second))
	require.True(t, tr.Done(other))
}

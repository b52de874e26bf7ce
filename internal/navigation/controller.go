package navigation

import (
	"errors"
	"strings"
	"time"

	"firetechnics/site/internal/domain"
)

// Anchors on the home view.
const (
	AnchorContact    = "contact"
	AnchorFormations = "formations"
)

type ScrollKind int

const (
	ScrollNone ScrollKind = iota
	ScrollTop
	ScrollAnchor
)

// Scroll is the scroll request that accompanies a transition. Anchor scrolls wait
// Delay so the target view can mount first.
type Scroll struct {
	Kind   ScrollKind
	Anchor string
	Delay  time.Duration
}

type EventKind int

const (
	EventHome EventKind = iota
	EventGallery
	EventCertificates
	EventSelectCategory
	EventSelectItem
	EventSelectLevel
	EventClose
	EventEnroll
	EventBack
)

// Event is a visitor action. Only the fields relevant to Kind are read.
type Event struct {
	Kind       EventKind
	Category   domain.Category
	ItemID     string
	LevelOrder int
	Handoff    string
	Anchor     string
}

// Transition is the outcome of an event or a direct entry.
type Transition struct {
	From   State
	To     State
	Scroll Scroll
	// Redirected is set when the requested state was replaced by a fallback; Reason says why.
	Redirected bool
	Reason     error
	// Fetch is set when a level view was entered without a handoff and must load by ids.
	Fetch bool
	// Retry is set when the view stays put after a transient failure.
	Retry bool
}

type Options struct {
	DeepLinkFetch bool
	AnchorDelay   time.Duration
	MaxHistory    int
}

// Snapshot is the persistable form of a controller.
type Snapshot struct {
	Current State   `json:"current"`
	History []State `json:"history,omitempty"`
}

// Controller tracks one browsing session. It is not safe for concurrent use.
type Controller struct {
	opts    Options
	current State
	history []State
}

func NewController(opts Options) *Controller {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 32
	}
	return &Controller{opts: opts, current: Home()}
}

// Restore builds a controller from a snapshot. An empty snapshot starts at Home.
func Restore(opts Options, snap Snapshot) *Controller {
	c := NewController(opts)
	if snap.Current.View != "" {
		c.current = snap.Current
	}
	for _, s := range snap.History {
		c.push(s)
	}
	return c
}

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Current: c.current,
		History: append([]State(nil), c.history...),
	}
}

func (c *Controller) Current() State {
	return c.current
}

func (c *Controller) push(s State) {
	if n := len(c.history); n > 0 && c.history[n-1].Same(s) {
		c.history[n-1] = s
		return
	}
	c.history = append(c.history, s)
	if over := len(c.history) - c.opts.MaxHistory; over > 0 {
		c.history = append([]State(nil), c.history[over:]...)
	}
}

func (c *Controller) pop() (State, bool) {
	n := len(c.history)
	if n == 0 {
		return State{}, false
	}
	s := c.history[n-1]
	c.history = c.history[:n-1]
	return s, true
}

// Dispatch applies a visitor action.
func (c *Controller) Dispatch(ev Event) Transition {
	switch ev.Kind {
	case EventHome:
		return c.forward(Home(), ev.Anchor)
	case EventGallery:
		return c.forward(Gallery(), "")
	case EventCertificates:
		return c.forward(Certificates(), "")
	case EventSelectCategory:
		return c.Enter(CatalogList(ev.Category))
	case EventSelectItem:
		from := ev.Category
		if from == "" && c.current.View == ViewCatalogList {
			from = c.current.Category
		}
		return c.Enter(ItemDetail(ev.ItemID, from))
	case EventSelectLevel:
		itemID := ev.ItemID
		if itemID == "" {
			itemID = c.current.ItemID
		}
		return c.Enter(SubLevelDetail(itemID, ev.LevelOrder, ev.Handoff, c.current.Category))
	case EventClose:
		return c.close()
	case EventEnroll:
		return c.forward(Home(), AnchorContact)
	case EventBack:
		return c.back()
	}
	return c.stay()
}

// Enter moves to target as a direct entry, validating its preconditions. Unmet
// preconditions degrade to a fallback state.
func (c *Controller) Enter(target State) Transition {
	switch target.View {
	case ViewCatalogList:
		if !target.Category.Valid() {
			return c.redirect(Home(), domain.ErrInvalidCategory)
		}
	case ViewItemDetail:
		target.ItemID = strings.TrimSpace(target.ItemID)
		if target.ItemID == "" {
			return c.redirect(Home(), domain.ErrNotFound)
		}
		if target.Category != "" && !target.Category.Valid() {
			target.Category = ""
		}
	case ViewSubLevelDetail:
		target.ItemID = strings.TrimSpace(target.ItemID)
		if target.Handoff == "" {
			if target.ItemID == "" || target.LevelOrder <= 0 {
				return c.redirect(c.previous(target), domain.ErrMissingHandoffData)
			}
			if !c.opts.DeepLinkFetch {
				return c.redirect(ancestor(target), domain.ErrMissingHandoffData)
			}
			t := c.forward(target, "")
			t.Fetch = true
			return t
		}
	case "":
		return c.redirect(Home(), domain.ErrNotFound)
	}
	return c.forward(target, "")
}

// Recover handles a failure to load the current view. Missing data redirects to the
// nearest valid ancestor; transient failures keep the view and ask for a retry.
func (c *Controller) Recover(err error) Transition {
	switch {
	case errors.Is(err, domain.ErrMissingHandoffData):
		return c.replace(c.backTarget(c.current), err)
	case errors.Is(err, domain.ErrNotFound):
		return c.replace(ancestor(c.current), err)
	case errors.Is(err, domain.ErrInvalidCategory):
		return c.replace(Home(), err)
	}
	t := c.stay()
	t.Retry = true
	t.Reason = err
	return t
}

// BackTarget returns where back would lead without moving.
func (c *Controller) BackTarget() State {
	return c.backTarget(c.current)
}

// previous is where a visitor stays when target cannot be entered.
func (c *Controller) previous(target State) State {
	if !c.current.Same(target) {
		return c.current
	}
	return c.backTarget(target)
}

func (c *Controller) backTarget(from State) State {
	if n := len(c.history); n > 0 && !c.history[n-1].Same(from) {
		return c.history[n-1]
	}
	return ancestor(from)
}

// ancestor is the structural parent of a state.
func ancestor(s State) State {
	switch s.View {
	case ViewSubLevelDetail:
		if s.ItemID != "" {
			return ItemDetail(s.ItemID, s.Category)
		}
		if s.Category.Valid() {
			return CatalogList(s.Category)
		}
	case ViewItemDetail:
		if s.Category.Valid() {
			return CatalogList(s.Category)
		}
	}
	return Home()
}

func (c *Controller) back() Transition {
	from := c.current
	to, ok := c.pop()
	for ok && to.Same(from) {
		to, ok = c.pop()
	}
	if !ok {
		to = ancestor(from)
	}
	c.current = to
	return Transition{From: from, To: to, Scroll: c.scrollFor(from, to, "")}
}

func (c *Controller) close() Transition {
	from := c.current
	if from.View != ViewSubLevelDetail {
		return c.back()
	}
	to := ancestor(from)
	if n := len(c.history); n > 0 && c.history[n-1].Same(to) {
		to = c.history[n-1]
		c.history = c.history[:n-1]
	}
	c.current = to
	return Transition{From: from, To: to, Scroll: c.scrollFor(from, to, "")}
}

// forward moves to a new state. Arriving at the state on top of history, as a browser
// back button does, unwinds history instead of growing it.
func (c *Controller) forward(to State, anchor string) Transition {
	from := c.current
	if n := len(c.history); n > 0 && c.history[n-1].Same(to) {
		c.history = c.history[:n-1]
	} else if !from.Same(to) {
		c.push(from)
	}
	c.current = to
	return Transition{From: from, To: to, Scroll: c.scrollFor(from, to, anchor)}
}

func (c *Controller) redirect(to State, reason error) Transition {
	t := c.forward(to, "")
	t.Redirected = true
	t.Reason = reason
	return t
}

// replace swaps the current state without recording it in history.
func (c *Controller) replace(to State, reason error) Transition {
	from := c.current
	for n := len(c.history); n > 0 && c.history[n-1].Same(to); n = len(c.history) {
		to = c.history[n-1]
		c.history = c.history[:n-1]
	}
	c.current = to
	return Transition{From: from, To: to, Scroll: c.scrollFor(from, to, ""), Redirected: true, Reason: reason}
}

func (c *Controller) stay() Transition {
	return Transition{From: c.current, To: c.current}
}

func (c *Controller) scrollFor(from, to State, anchor string) Scroll {
	if anchor != "" {
		return Scroll{Kind: ScrollAnchor, Anchor: anchor, Delay: c.opts.AnchorDelay}
	}
	if from.Same(to) {
		return Scroll{Kind: ScrollNone}
	}
	return Scroll{Kind: ScrollTop}
}

// Package navigation is the browsing state machine: which view is active, what is
// selected in it, where to scroll, and where back leads.
package navigation

import (
	"fmt"
	"net/url"
	"strconv"

	"firetechnics/site/internal/domain"
)

type View string

const (
	ViewHome           View = "home"
	ViewGallery        View = "gallery"
	ViewCertificates   View = "certificates"
	ViewCatalogList    View = "catalog-list"
	ViewItemDetail     View = "item-detail"
	ViewSubLevelDetail View = "sublevel-detail"
)

// State is one position in the browsing hierarchy. Category is kept on item and level
// states so back returns to the list the visitor came from.
type State struct {
	View       View            `json:"view"`
	Category   domain.Category `json:"category,omitempty"`
	ItemID     string          `json:"item_id,omitempty"`
	LevelOrder int             `json:"level_order,omitempty"`
	Handoff    string          `json:"handoff,omitempty"`
}

func Home() State { return State{View: ViewHome} }

func Gallery() State { return State{View: ViewGallery} }

func Certificates() State { return State{View: ViewCertificates} }

func CatalogList(c domain.Category) State {
	return State{View: ViewCatalogList, Category: c}
}

func ItemDetail(itemID string, from domain.Category) State {
	return State{View: ViewItemDetail, ItemID: itemID, Category: from}
}

func SubLevelDetail(itemID string, order int, handoff string, from domain.Category) State {
	return State{View: ViewSubLevelDetail, ItemID: itemID, LevelOrder: order, Handoff: handoff, Category: from}
}

// Same reports whether two states address the same view and selection, ignoring the
// handoff token and the remembered category.
func (s State) Same(o State) bool {
	if s.View != o.View {
		return false
	}
	switch s.View {
	case ViewCatalogList:
		return s.Category == o.Category
	case ViewItemDetail:
		return s.ItemID == o.ItemID
	case ViewSubLevelDetail:
		return s.ItemID == o.ItemID && s.LevelOrder == o.LevelOrder
	}
	return true
}

// Path returns the deep link of the state.
func (s State) Path() string {
	switch s.View {
	case ViewGallery:
		return "/gallery"
	case ViewCertificates:
		return "/certificates"
	case ViewCatalogList:
		return "/category/" + url.PathEscape(s.Category.String())
	case ViewItemDetail:
		return "/item/" + url.PathEscape(s.ItemID)
	case ViewSubLevelDetail:
		p := fmt.Sprintf("/item/%s/level/%d", url.PathEscape(s.ItemID), s.LevelOrder)
		if s.Handoff != "" {
			p += "?h=" + url.QueryEscape(s.Handoff)
		}
		return p
	}
	return "/"
}

// Key identifies the content a state shows, for staleness checks.
func (s State) Key() string {
	switch s.View {
	case ViewCatalogList:
		return string(s.View) + ":" + s.Category.String()
	case ViewItemDetail:
		return string(s.View) + ":" + s.ItemID
	case ViewSubLevelDetail:
		return string(s.View) + ":" + s.ItemID + ":" + strconv.Itoa(s.LevelOrder)
	}
	return string(s.View)
}

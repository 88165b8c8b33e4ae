// Package menu turns the service catalog into presentable menus.
package menu

import (
	"errors"

	"github.com/eliseohh/planbot/internal/catalog"
)

var ErrNotFound = errors.New("menu: service not found")

// Item is one service button on the top-level menu.
type Item struct {
	Label    string
	Selector int
}

type TopMenu struct {
	Items []Item
}

type PlanEntry struct {
	Label string
	Tier  string
	URL   string
}

// PlanMenu lists a service's plans. Back is the affordance returning to
// the top-level menu and is always offered.
type PlanMenu struct {
	Service  string
	Selector int
	Plans    []PlanEntry
	Back     bool
}

type Controller struct {
	catalog *catalog.Catalog
}

func NewController(c *catalog.Catalog) *Controller {
	return &Controller{catalog: c}
}

func (m *Controller) TopLevel() TopMenu {
	services := m.catalog.Services()
	items := make([]Item, len(services))
	for i, s := range services {
		items[i] = Item{Label: s.Name, Selector: i}
	}
	return TopMenu{Items: items}
}

// Plans returns the plan menu for the service at selector, or ErrNotFound.
func (m *Controller) Plans(selector int) (PlanMenu, error) {
	s, ok := m.catalog.Service(selector)
	if !ok {
		return PlanMenu{}, ErrNotFound
	}

	entries := make([]PlanEntry, len(s.Plans))
	for i, p := range s.Plans {
		entries[i] = PlanEntry{Label: p.Label, Tier: p.Tier, URL: p.URL}
	}
	return PlanMenu{Service: s.Name, Selector: selector, Plans: entries, Back: true}, nil
}

package menu

import (
	"errors"
	"reflect"
	"testing"

	"github.com/eliseohh/planbot/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Service{
		{Name: "Cricket", Plans: []catalog.Plan{
			{Label: "Weekly", Tier: "VIP", URL: "https://example.com/w"},
			{Label: "Monthly", Tier: "VIP", URL: "https://example.com/m"},
		}},
		{Name: "Football", Plans: []catalog.Plan{
			{Label: "Season", Tier: "Gold", URL: "https://example.com/s"},
		}},
		{Name: "Tennis"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestTopLevel(t *testing.T) {
	m := NewController(testCatalog(t))

	want := TopMenu{Items: []Item{
		{Label: "Cricket", Selector: 0},
		{Label: "Football", Selector: 1},
		{Label: "Tennis", Selector: 2},
	}}
	if got := m.TopLevel(); !reflect.DeepEqual(got, want) {
		t.Errorf("TopLevel() = %+v, want %+v", got, want)
	}
}

func TestPlans(t *testing.T) {
	m := NewController(testCatalog(t))

	got, err := m.Plans(0)
	if err != nil {
		t.Fatalf("Plans(0) error = %v", err)
	}
	want := PlanMenu{
		Service:  "Cricket",
		Selector: 0,
		Plans: []PlanEntry{
			{Label: "Weekly", Tier: "VIP", URL: "https://example.com/w"},
			{Label: "Monthly", Tier: "VIP", URL: "https://example.com/m"},
		},
		Back: true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Plans(0) = %+v, want %+v", got, want)
	}

	empty, err := m.Plans(2)
	if err != nil {
		t.Fatalf("Plans(2) error = %v", err)
	}
	if len(empty.Plans) != 0 || !empty.Back {
		t.Errorf("Plans(2) = %+v, want no plans and a back affordance", empty)
	}
}

func TestPlansNotFound(t *testing.T) {
	m := NewController(testCatalog(t))
	for _, sel := range []int{-1, 3, 1 << 20} {
		if _, err := m.Plans(sel); !errors.Is(err, ErrNotFound) {
			t.Errorf("Plans(%d) error = %v, want ErrNotFound", sel, err)
		}
	}
}

func TestMenusAreDeterministic(t *testing.T) {
	c := testCatalog(t)
	m := NewController(c)
	before := c.Services()

	top := m.TopLevel()
	plans, _ := m.Plans(1)
	top.Items[0].Label = "mutated"
	plans.Plans[0].URL = "https://mutated.example/"

	if again := m.TopLevel(); again.Items[0].Label != "Cricket" {
		t.Errorf("TopLevel() changed after caller mutation: %+v", again)
	}
	if again, _ := m.Plans(1); again.Plans[0].URL != "https://example.com/s" {
		t.Errorf("Plans(1) changed after caller mutation: %+v", again)
	}
	if !reflect.DeepEqual(before, c.Services()) {
		t.Error("menu calls mutated the catalog")
	}
}

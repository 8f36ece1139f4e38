package registry

import (
	"errors"
	"testing"

	"quotehub/internal/model"
)

func TestGet(t *testing.T) {
	r := New(Defaults())
	c, err := r.Get("geico")
	if err != nil {
		t.Fatalf("get geico: %v", err)
	}
	if c.Name != "GEICO" {
		t.Fatalf("name: got %q", c.Name)
	}
	if _, err := r.Get("acme"); !errors.Is(err, ErrUnknownCarrier) {
		t.Fatalf("expected ErrUnknownCarrier, got %v", err)
	}
}

func TestAvailableCarriers_Filtering(t *testing.T) {
	r := New(Defaults())

	auto := r.AvailableCarriers(model.ProductAuto, "CA")
	ids := map[string]bool{}
	for _, c := range auto {
		ids[c.ID] = true
	}
	for _, want := range []string{"geico", "progressive", "statefarm", "allstate"} {
		if !ids[want] {
			t.Fatalf("auto/CA missing %s: %v", want, ids)
		}
	}
	if ids["libertymutual"] {
		t.Fatal("libertymutual does not write auto")
	}

	life := r.AvailableCarriers(model.ProductLife, "TX")
	if len(life) != 1 || life[0].ID != "allstate" {
		t.Fatalf("life/TX: got %v", life)
	}

	if none := r.AvailableCarriers(model.ProductLife, "WA"); len(none) != 0 {
		t.Fatalf("life/WA should be empty, got %v", none)
	}
}

func TestNew_DropsDuplicateIDs(t *testing.T) {
	r := New([]model.CarrierConfig{
		{ID: "dup", Name: "First"},
		{ID: "dup", Name: "Second"},
	})
	if got := len(r.IDs()); got != 1 {
		t.Fatalf("ids: got %d, want 1", got)
	}
	c, _ := r.Get("dup")
	if c.Name != "First" {
		t.Fatalf("expected first registration kept, got %q", c.Name)
	}
}

func TestDefaults_ClaimsCapability(t *testing.T) {
	r := New(Defaults())
	lm, err := r.Get("libertymutual")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if lm.ClaimsSupport {
		t.Fatal("libertymutual claims go through its own portal")
	}
	g, _ := r.Get("geico")
	if !g.ClaimsSupport || !g.BindingCapabilities {
		t.Fatalf("geico capabilities: %+v", g)
	}
}

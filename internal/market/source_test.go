package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mbourmaud/souk/internal/negotiation"
)

func TestHTTPSourceFetchesItems(t *testing.T) {
	want := []negotiation.Item{
		{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics"},
		{ID: "2", Title: "Vintage Leather Sofa", AskingPrice: 350, Category: "Furniture"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search_items" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	items, err := NewHTTPSource(srv.URL).Items(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0] != want[0] {
		t.Errorf("expected %+v, got %+v", want[0], items[0])
	}
}

func TestHTTPSourceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL).Items(context.Background()); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestHTTPSourceBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL).Items(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestHTTPSourceUnreachable(t *testing.T) {
	if _, err := NewHTTPSource("http://127.0.0.1:1").Items(context.Background()); err == nil {
		t.Error("expected connection error")
	}
}

func TestStaticSourceReturnsCopy(t *testing.T) {
	src := StaticSource{{ID: "1", Title: "Thing", AskingPrice: 10, Category: "Misc"}}

	items, err := src.Items(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items[0].Title = "Mutated"

	again, _ := src.Items(context.Background())
	if again[0].Title != "Thing" {
		t.Error("caller mutation leaked into the source")
	}
}

func TestSampleCatalog(t *testing.T) {
	items := SampleCatalog()
	if len(items) != 3 {
		t.Fatalf("expected 3 sample items, got %d", len(items))
	}
	for _, it := range items {
		if it.ID == "" || it.AskingPrice <= 0 {
			t.Errorf("malformed sample item: %+v", it)
		}
	}
}

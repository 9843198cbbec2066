package repository

import (
	"testing"

	"github.com/nepallicenseprep/likhit-backend/internal/data"
)

func TestTrafficSignCatalogue(t *testing.T) {
	repo, err := LoadTrafficSigns(data.TrafficSigns)
	if err != nil {
		t.Fatalf("LoadTrafficSigns: %v", err)
	}

	all := repo.List("")
	if len(all) == 0 {
		t.Fatal("catalogue empty")
	}
	for _, c := range repo.Categories() {
		for _, s := range repo.List(c) {
			if s.Category != c {
				t.Fatalf("sign %s listed under %s", s.ID, c)
			}
		}
	}
	if got := repo.List("no such category"); len(got) != 0 {
		t.Fatalf("unknown category = %d signs", len(got))
	}

	if s, ok := repo.GetByID(all[0].ID); !ok || s.Name != all[0].Name {
		t.Fatalf("GetByID = %+v, %v", s, ok)
	}
	if _, ok := repo.GetByID("missing"); ok {
		t.Fatal("GetByID found a missing sign")
	}
}

func TestLoadTrafficSignsValidates(t *testing.T) {
	if _, err := LoadTrafficSigns([]byte(`[{"id":"a","name":"A"}]`)); err == nil {
		t.Fatal("expected missing image error")
	}
	if _, err := LoadTrafficSigns([]byte(`[{"id":"a","name":"A","image_url":"/a"},{"id":"a","name":"B","image_url":"/b"}]`)); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

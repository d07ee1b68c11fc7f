package datastore

import (
	"testing"

	"github.com/caseflow/caseflow/pkg/engine"
)

func mustCreate(t *testing.T, s *Store, name string) Dataset {
	t.Helper()
	ds, err := s.CreateDataset(name, "test dataset")
	if err != nil {
		t.Fatalf("CreateDataset(%s) failed: %v", name, err)
	}
	return ds
}

func mustAdd(t *testing.T, s *Store, datasetID string, item Item) {
	t.Helper()
	if err := s.AddItem(datasetID, item); err != nil {
		t.Fatalf("AddItem(%s) failed: %v", item.Name, err)
	}
}

func TestCreateDataset(t *testing.T) {
	s := NewStore()
	ds := mustCreate(t, s, "login")

	if ds.ID == "" {
		t.Error("dataset must get an ID")
	}
	if ds.CreatedAt.IsZero() || ds.UpdatedAt.IsZero() {
		t.Error("timestamps must be set")
	}

	if _, err := s.CreateDataset("login", ""); err == nil {
		t.Error("duplicate dataset name must be rejected")
	}
	if _, err := s.CreateDataset("", ""); err == nil {
		t.Error("empty dataset name must be rejected")
	}
}

func TestGetDatasetCopies(t *testing.T) {
	s := NewStore()
	ds := mustCreate(t, s, "login")
	mustAdd(t, s, ds.ID, Item{Name: "username", Value: "admin"})

	got, ok := s.GetDataset(ds.ID)
	if !ok {
		t.Fatal("dataset not found")
	}
	got.Items[0].Value = "mutated"

	again, _ := s.GetDataset(ds.ID)
	if again.Items[0].Value != "admin" {
		t.Error("returned dataset must be a copy, store state was mutated")
	}

	byName, ok := s.GetDatasetByName("login")
	if !ok || byName.ID != ds.ID {
		t.Error("lookup by name must find the same dataset")
	}
}

func TestAddItemValidation(t *testing.T) {
	s := NewStore()
	ds := mustCreate(t, s, "login")

	if err := s.AddItem(ds.ID, Item{Name: ""}); err == nil {
		t.Error("empty item name must be rejected")
	}
	if err := s.AddItem(ds.ID, Item{Name: "x", Type: "uuid"}); err == nil {
		t.Error("unknown item type must be rejected")
	}
	if err := s.AddItem("no-such-id", Item{Name: "x"}); !engine.HasCode(err, engine.ErrCodeUnknownDataset) {
		t.Errorf("expected unknown-dataset code, got: %v", err)
	}

	mustAdd(t, s, ds.ID, Item{Name: "username", Value: "admin"})
	if err := s.AddItem(ds.ID, Item{Name: "username", Value: "other"}); err == nil {
		t.Error("duplicate item name must be rejected")
	}

	item, err := s.GetItemByName(ds.ID, "username")
	if err != nil {
		t.Fatalf("GetItemByName failed: %v", err)
	}
	if item.Type != ItemTypeString {
		t.Errorf("empty type must default to string, got %s", item.Type)
	}
	if item.ID == "" {
		t.Error("item must get an ID")
	}
}

func TestUpsertItem(t *testing.T) {
	s := NewStore()
	ds := mustCreate(t, s, "login")
	mustAdd(t, s, ds.ID, Item{Name: "username", Value: "admin"})

	err := s.UpsertItem(ds.ID, Item{Name: "username", Value: "root", Type: ItemTypeString})
	if err != nil {
		t.Fatalf("UpsertItem failed: %v", err)
	}
	item, err := s.GetItemByName(ds.ID, "username")
	if err != nil || item.Value != "root" {
		t.Errorf("upsert must replace the value, got %q (err=%v)", item.Value, err)
	}

	if err := s.UpsertItem(ds.ID, Item{Name: "fresh", Value: "1"}); err != nil {
		t.Fatalf("UpsertItem insert failed: %v", err)
	}
	if _, err := s.GetItemByName(ds.ID, "fresh"); err != nil {
		t.Errorf("upserted item not found: %v", err)
	}
}

func TestRemoveItemByName(t *testing.T) {
	s := NewStore()
	ds := mustCreate(t, s, "login")
	mustAdd(t, s, ds.ID, Item{Name: "username", Value: "admin"})

	if !s.RemoveItemByName(ds.ID, "username") {
		t.Error("expected removal to succeed")
	}
	if s.RemoveItemByName(ds.ID, "username") {
		t.Error("second removal must report absence")
	}
	if _, err := s.GetItemByName(ds.ID, "username"); !engine.HasCode(err, engine.ErrCodeUnknownItem) {
		t.Errorf("expected unknown-item code, got: %v", err)
	}
}

func TestDeleteDatasetFreesName(t *testing.T) {
	s := NewStore()
	ds := mustCreate(t, s, "login")

	if !s.DeleteDataset(ds.ID) {
		t.Fatal("expected deletion to succeed")
	}
	if s.DeleteDataset(ds.ID) {
		t.Error("second deletion must report absence")
	}
	if _, err := s.CreateDataset("login", ""); err != nil {
		t.Errorf("name must be reusable after deletion: %v", err)
	}
}

func TestListDatasetsSorted(t *testing.T) {
	s := NewStore()
	mustCreate(t, s, "zeta")
	mustCreate(t, s, "alpha")
	mustCreate(t, s, "mid")

	list := s.ListDatasets()
	if len(list) != 3 || s.Count() != 3 {
		t.Fatalf("expected 3 datasets, got %d", len(list))
	}
	if list[0].Name != "alpha" || list[1].Name != "mid" || list[2].Name != "zeta" {
		t.Errorf("datasets not sorted by name: %v", []string{list[0].Name, list[1].Name, list[2].Name})
	}
}

func TestItemTypeValidate(t *testing.T) {
	for _, typ := range []ItemType{ItemTypeString, ItemTypeNumber, ItemTypeBoolean, ItemTypeJSON} {
		if err := typ.Validate(); err != nil {
			t.Errorf("%s: unexpected error: %v", typ, err)
		}
	}
	if err := ItemType("blob").Validate(); err == nil {
		t.Error("expected error for unknown item type")
	}
}

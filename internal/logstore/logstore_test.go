package logstore

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/yijiawu/genstudio/internal/model"
)

func TestLoadAllFirstRun(t *testing.T) {
	s := New(t.TempDir())

	store, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll on empty dir: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("first run store has %d days, want 0", store.Len())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	store := model.NewLogStore()
	day := store.Day("2025-04-05")
	day.User("u_ab12").Counter(model.FeatureImage).PageViews = 1
	day.User("u_ab12").Counter(model.FeatureImage).Points = 2500
	day.User("u_cd34").Counter(model.FeatureText).PageViews = 3
	store.Day("2025-04-20").User("u_ab12").Counter(model.FeatureVideo).Points = 5000

	if err := s.SaveAll(store); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	loaded, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if !reflect.DeepEqual(store, loaded) {
		t.Errorf("loaded store differs from saved store:\nsaved:  %+v\nloaded: %+v", store, loaded)
	}
}

func TestSaveIsByteStableAfterLoad(t *testing.T) {
	s := New(t.TempDir())

	store := model.NewLogStore()
	store.Day("2025-04-05").User("u_1").Counter(model.FeatureText).PageViews = 2
	if err := s.SaveAll(store); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	first, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read document: %v", err)
	}

	loaded, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if err := s.SaveAll(loaded); err != nil {
		t.Fatalf("second SaveAll: %v", err)
	}
	second, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("re-read document: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("save(load()) changed the persisted bytes:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestLoadAllCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	store, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll on corrupt document: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("corrupt document yielded %d days, want empty store", store.Len())
	}
}

func TestSaveAllCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := New(dir)

	if err := s.SaveAll(model.NewLogStore()); err != nil {
		t.Fatalf("SaveAll into missing dir: %v", err)
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("document not written: %v", err)
	}
}

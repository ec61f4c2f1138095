package model

import (
	"encoding/json"
	"testing"
)

func TestUserDailyRecordZeroValue(t *testing.T) {
	var rec UserDailyRecord

	for _, f := range Features() {
		c := rec.Counter(f)
		if c.PageViews != 0 || c.Points != 0 {
			t.Errorf("feature %s: fresh counter = %+v, want zeroed", f, *c)
		}
	}
	if rec.Active() {
		t.Error("zero record reports Active")
	}
}

func TestUserDailyRecordJSONShape(t *testing.T) {
	var rec UserDailyRecord
	rec.Counter(FeatureImage).PageViews = 2
	rec.Counter(FeatureImage).Points = 2500

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var obj map[string]UsageCounter
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("unmarshal into map: %v", err)
	}
	if len(obj) != FeatureCount {
		t.Fatalf("marshaled %d feature keys, want %d", len(obj), FeatureCount)
	}
	if got := obj["image"]; got.PageViews != 2 || got.Points != 2500 {
		t.Errorf("image counter = %+v, want {2 2500}", got)
	}
	if got := obj["text"]; !got.IsZero() {
		t.Errorf("text counter = %+v, want zero", got)
	}

	// A document missing feature keys still decodes to a fully populated record.
	var partial UserDailyRecord
	if err := json.Unmarshal([]byte(`{"video":{"pv":1,"points":0}}`), &partial); err != nil {
		t.Fatalf("unmarshal partial: %v", err)
	}
	if got := partial.Counter(FeatureVideo).PageViews; got != 1 {
		t.Errorf("video pv = %d, want 1", got)
	}
	if !partial.Counter(FeatureText).IsZero() || !partial.Counter(FeatureImage).IsZero() {
		t.Error("missing features are not zeroed")
	}
}

func TestParseFeature(t *testing.T) {
	for _, f := range Features() {
		got, err := ParseFeature(f.String())
		if err != nil {
			t.Fatalf("ParseFeature(%q): %v", f.String(), err)
		}
		if got != f {
			t.Errorf("ParseFeature(%q) = %v, want %v", f.String(), got, f)
		}
	}

	if _, err := ParseFeature("audio"); err == nil {
		t.Error("ParseFeature(audio) succeeded, want error")
	}
}

func TestLogStoreDayOrderAndUniqueness(t *testing.T) {
	store := NewLogStore()
	for _, date := range []string{"2025-03-10", "2025-03-02", "2025-03-10", "2025-02-28"} {
		store.Day(date)
	}

	if store.Len() != 3 {
		t.Fatalf("Len = %d, want 3 distinct dates", store.Len())
	}
	want := []string{"2025-02-28", "2025-03-02", "2025-03-10"}
	for i, day := range store.All() {
		if day.Date != want[i] {
			t.Errorf("day[%d] = %s, want %s", i, day.Date, want[i])
		}
	}
	if store.Find("2025-03-02") == nil {
		t.Error("Find missed an existing date")
	}
	if store.Find("2025-03-03") != nil {
		t.Error("Find invented a date")
	}
}

func TestLogStoreUnmarshalMergesDuplicateDates(t *testing.T) {
	doc := `[
		{"date":"2025-03-01","users":{"u1":{"text":{"pv":1,"points":0}}}},
		{"date":"2025-03-01","users":{"u1":{"text":{"pv":2,"points":500}}}}
	]`

	store := NewLogStore()
	if err := json.Unmarshal([]byte(doc), store); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want merged single day", store.Len())
	}
	c := store.Find("2025-03-01").User("u1").Counter(FeatureText)
	if c.PageViews != 3 || c.Points != 500 {
		t.Errorf("merged counter = %+v, want {3 500}", *c)
	}
}

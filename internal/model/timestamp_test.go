package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestGenerationResultDecodesServiceTimestamps(t *testing.T) {
	cases := map[string]time.Time{
		`"2025-01-01T00:00:00Z"`:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		`"2025-01-01T01:30:00.123456"`: time.Date(2025, 1, 1, 1, 30, 0, 123456000, time.UTC),
		`"2025-06-15T12:00:00+02:00"`:  time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
		`"2025-03-02T08:09:10"`:        time.Date(2025, 3, 2, 8, 9, 10, 0, time.UTC),
	}
	for raw, want := range cases {
		var res GenerationResult
		body := `{"success":true,"file_id":"abc123","expires_at":` + raw + `}`
		if err := json.Unmarshal([]byte(body), &res); err != nil {
			t.Fatalf("%s: unexpected error: %v", raw, err)
		}
		if !res.ExpiresAt.Equal(want) {
			t.Errorf("%s: got %v, want %v", raw, res.ExpiresAt.Time, want)
		}
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"next tuesday"`), &ts); err == nil {
		t.Fatal("expected an error for an unparseable timestamp")
	}
}

func TestFormFieldsWith(t *testing.T) {
	f, ok := FormFields{}.With(FieldUseCase, "CI/CD acceleration")
	if !ok || f.UseCase != "CI/CD acceleration" {
		t.Fatalf("With did not set use case: %+v", f)
	}
	if _, ok := f.With("logo", "x"); ok {
		t.Fatal("With accepted an unknown key")
	}
	if v, _ := f.Get(FieldUseCase); v != "CI/CD acceleration" {
		t.Fatalf("Get returned %q", v)
	}
}

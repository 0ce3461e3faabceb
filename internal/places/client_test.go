package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchSendsKeyAndFieldMask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/places/ChIJtest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("X-Goog-FieldMask") != fieldMask {
			t.Errorf("missing field mask header")
		}
		w.Write([]byte(`{
			"id": "ChIJtest",
			"displayName": {"text": "올댓재즈"},
			"formattedAddress": "서울 용산구 이태원로 54",
			"location": {"latitude": 37.534, "longitude": 126.994},
			"regularOpeningHours": {"weekdayDescriptions": ["월요일: 휴무", "화요일: 19:00~24:00"]},
			"websiteUri": "https://allthatjazz.kr"
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	details, err := c.Fetch(context.Background(), "ChIJtest")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if details.DisplayName.Text != "올댓재즈" {
		t.Fatalf("bad display name: %q", details.DisplayName.Text)
	}
	if details.Location.Latitude != 37.534 {
		t.Fatalf("bad latitude: %v", details.Location.Latitude)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"status": "NOT_FOUND"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	if _, err := c.Fetch(context.Background(), "missing"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestMergeUpdatesSkipsEmptyFields(t *testing.T) {
	d := &Details{}
	d.FormattedAddress = "서울 마포구 와우산로 12"
	d.RegularOpeningHours.WeekdayDescriptions = []string{"매일: 18:00~02:00"}

	updates := MergeUpdates(d)
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %v", updates)
	}
	if updates["address"] != "서울 마포구 와우산로 12" {
		t.Fatalf("address not mapped: %v", updates)
	}
	if updates["operating_hours"] != "매일: 18:00~02:00" {
		t.Fatalf("operating hours not joined: %v", updates)
	}
	if _, ok := updates["latitude"]; ok {
		t.Fatal("zero location must not be written")
	}
	if _, ok := updates["website_url"]; ok {
		t.Fatal("empty website must not be written")
	}
}

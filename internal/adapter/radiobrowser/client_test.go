package radiobrowser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/praeterii/radio/internal/domain"
)

const stationID = "9617a958-0601-11e8-ae97-52543be04c81"

func newTestClient(url string) *Client {
	c := NewClient(url, "radio-test", 5*time.Second, nil)
	c.retryDelay = time.Millisecond
	return c
}

func TestClient_ListStationsByCountry_FiltersInsecure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"stationuuid":"a","name":"A","url":"https://x"},
			{"stationuuid":"b","name":"B","url":"http://y"},
			{"stationuuid":"c","name":"C","url":"HTTPS://z/live.m3u8"},
			{"stationuuid":"d","name":"D","url":"ftp://https://w"}
		]`))
	}))
	defer server.Close()

	stations, err := newTestClient(server.URL).ListStationsByCountry(context.Background(), domain.StationQuery{CountryCode: "PL"})
	if err != nil {
		t.Fatalf("ListStationsByCountry failed: %v", err)
	}

	if len(stations) != 2 {
		t.Fatalf("expected 2 secure stations, got %d: %+v", len(stations), stations)
	}
	if stations[0].ID != "a" || stations[1].ID != "c" {
		t.Errorf("expected stations a and c, got %s and %s", stations[0].ID, stations[1].ID)
	}
}

func TestClient_ListStationsByCountry_QueryParameters(t *testing.T) {
	var gotPath, gotUA string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListStationsByCountry(context.Background(), domain.StationQuery{
		CountryCode: "PL",
		Order:       domain.OrderClickCount,
		Offset:      20,
		Limit:       50,
		Reverse:     true,
		HideBroken:  true,
	})
	if err != nil {
		t.Fatalf("ListStationsByCountry failed: %v", err)
	}

	if gotPath != "/json/stations/bycountrycodeexact/PL" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotUA != "radio-test" {
		t.Errorf("expected User-Agent radio-test, got %q", gotUA)
	}
	want := map[string]string{
		"order":      "clickcount",
		"offset":     "20",
		"limit":      "50",
		"reverse":    "true",
		"hidebroken": "true",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s: expected %q, got %q", k, v, gotQuery[k])
		}
	}
	if _, ok := gotQuery["is_https"]; ok {
		t.Error("is_https must not be sent; filtering is client-side")
	}
}

func TestClient_ListStationsByCountry_Defaults(t *testing.T) {
	var limit, order string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("limit")
		order = r.URL.Query().Get("order")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	newTestClient(server.URL).ListStationsByCountry(context.Background(), domain.StationQuery{CountryCode: "US"})
	if limit != "1000" {
		t.Errorf("expected default limit 1000, got %q", limit)
	}
	if order != "name" {
		t.Errorf("expected default order name, got %q", order)
	}
}

func TestClient_LenientDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"stationuuid": "a",
			"name": "  Radio A ",
			"url": "https://a",
			"favicon": null,
			"tags": "jazz, ,swing",
			"bitrate": "128",
			"votes": null,
			"clickcount": 12.0,
			"lastcheckok": 1,
			"some_new_field": {"nested": true}
		}]`))
	}))
	defer server.Close()

	stations, err := newTestClient(server.URL).ListStationsByCountry(context.Background(), domain.StationQuery{CountryCode: "US"})
	if err != nil {
		t.Fatalf("ListStationsByCountry failed: %v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("expected 1 station, got %d", len(stations))
	}

	s := stations[0]
	if s.Name != "Radio A" {
		t.Errorf("expected trimmed name, got %q", s.Name)
	}
	if s.IconURL != "" {
		t.Errorf("expected empty icon for null favicon, got %q", s.IconURL)
	}
	if len(s.Tags) != 2 || s.Tags[0] != "jazz" || s.Tags[1] != "swing" {
		t.Errorf("unexpected tags %v", s.Tags)
	}
	if s.Bitrate != 128 || s.Votes != 0 || s.ClickCount != 12 {
		t.Errorf("unexpected numbers bitrate=%d votes=%d clicks=%d", s.Bitrate, s.Votes, s.ClickCount)
	}
	if !s.LastCheckOK {
		t.Error("expected lastcheckok 1 to decode as true")
	}
}

func TestClient_ListCountries(t *testing.T) {
	var order string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/countries" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		order = r.URL.Query().Get("order")
		w.Write([]byte(`[
			{"name":"Poland","iso_3166_1":"PL","stationcount":812},
			{"name":"Nowhere","iso_3166_1":"","stationcount":3},
			{"name":"Germany","iso_3166_1":"de","stationcount":"4120"}
		]`))
	}))
	defer server.Close()

	countries, err := newTestClient(server.URL).ListCountries(context.Background(), domain.OrderName)
	if err != nil {
		t.Fatalf("ListCountries failed: %v", err)
	}

	if order != "name" {
		t.Errorf("expected order=name, got %q", order)
	}
	if len(countries) != 2 {
		t.Fatalf("expected 2 countries with codes, got %d", len(countries))
	}
	if countries[1].Code != "DE" || countries[1].StationCount != 4120 {
		t.Errorf("unexpected country %+v", countries[1])
	}
}

func TestClient_SearchStationsByName_EmptyQuery(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	for _, text := range []string{"", "   "} {
		_, err := newTestClient(server.URL).SearchStationsByName(context.Background(), text, 0, 10)
		if !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("expected ErrEmptyQuery for %q, got %v", text, err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("expected no network calls, got %d", n)
	}
}

func TestClient_SearchStationsByName_Unfiltered(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		w.Write([]byte(`[{"stationuuid":"a","url":"http://plain"},{"stationuuid":"b","url":"https://secure"}]`))
	}))
	defer server.Close()

	stations, err := newTestClient(server.URL).SearchStationsByName(context.Background(), "jazz fm", 0, 10)
	if err != nil {
		t.Fatalf("SearchStationsByName failed: %v", err)
	}
	if len(stations) != 2 {
		t.Errorf("expected unfiltered results, got %d", len(stations))
	}
	if path != "/json/stations/byname/jazz%20fm" {
		t.Errorf("unexpected path %q", path)
	}
}

func TestClient_RegisterClick(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/url/"+stationID {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"ok":"true","message":"retrieved station url","stationuuid":"` + stationID + `","name":"A","url":"https://a"}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).RegisterClick(context.Background(), stationID)
	if err != nil {
		t.Fatalf("RegisterClick failed: %v", err)
	}
	if !result.OK || result.StationID != stationID {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestClient_RegisterClick_InvalidID(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).RegisterClick(context.Background(), "../stations")
	if !errors.Is(err, domain.ErrInvalidStationID) {
		t.Errorf("expected ErrInvalidStationID, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("expected no request for invalid id, got %d", n)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"name":"Poland","iso_3166_1":"PL","stationcount":1}]`))
	}))
	defer server.Close()

	countries, err := newTestClient(server.URL).ListCountries(context.Background(), domain.OrderName)
	if err != nil {
		t.Fatalf("ListCountries failed: %v", err)
	}
	if len(countries) != 1 {
		t.Errorf("expected 1 country, got %d", len(countries))
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"server error exhausted", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"not":"an array"`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestClient(server.URL).ListStationsByCountry(context.Background(), domain.StationQuery{CountryCode: "PL"})
			if !errors.Is(err, domain.ErrDirectoryFailure) {
				t.Fatalf("expected ErrDirectoryFailure, got %v", err)
			}
			if err.Error() == "" {
				t.Error("expected a human readable message")
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).ListCountries(context.Background(), domain.OrderName)
	if !errors.Is(err, domain.ErrDirectoryFailure) {
		t.Errorf("expected ErrDirectoryFailure, got %v", err)
	}
}

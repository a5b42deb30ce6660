package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/parkfinder/internal/logger"
	"github.com/pfrederiksen/parkfinder/internal/nps"
	"github.com/pfrederiksen/parkfinder/internal/pipeline"
	"github.com/pfrederiksen/parkfinder/internal/view"
)

// fakeAPI mimics the NPS API and records the query of every request
type fakeAPI struct {
	mu          sync.Mutex
	parksBody   string
	parksStatus int
	campBody    string
	queries     []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, r.URL.Path+"?"+r.URL.RawQuery)
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/parks":
		if f.parksStatus != 0 {
			w.WriteHeader(f.parksStatus)
		}
		io.WriteString(w, f.parksBody) // nolint:errcheck
	case "/campgrounds":
		io.WriteString(w, f.campBody) // nolint:errcheck
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}

const parksJSON = `{"data":[
	{"id":"CA1","fullName":"Manzanar National Historic Site","description":"WWII camp.","images":[]},
	{"id":"CA12","fullName":"Yosemite National Park","description":"Granite & waterfalls.","images":[{"url":"https://img.test/yose.jpg","altText":"Half Dome"},{"url":"https://img.test/yose2.jpg","altText":"Falls"}]},
	{"id":"CA123","fullName":"Joshua Tree National Park","description":"Desert.","images":[{"url":"https://img.test/jotr.jpg","altText":"Joshua trees"}]}
]}`

const campgroundsJSON = `{"data":[
	{"id":"cg-1","name":"Upper Pines","description":"Yosemite Valley."},
	{"id":"cg-2","name":"Jumbo Rocks","description":"Boulders."}
]}`

// syncBuffer is a log sink that handlers and the test can share
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestServer(t *testing.T, api *fakeAPI) (*httptest.Server, *syncBuffer) {
	t.Helper()

	upstream := httptest.NewServer(api)
	t.Cleanup(upstream.Close)

	logs := &syncBuffer{}
	log := logger.New(logger.LevelDebug, logs)
	client := nps.NewClient("test-key", nps.WithBaseURL(upstream.URL))
	p := pipeline.New(client, pipeline.WithLogger(log), pipeline.WithMetrics(logger.NewMetrics()))

	srv := httptest.NewServer(NewServer(p, "", log).Handler())
	t.Cleanup(srv.Close)
	return srv, logs
}

func getDocument(t *testing.T, url string) *goquery.Document {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}

func TestIndex_EmptyPage(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})

	doc := getDocument(t, srv.URL+"/")

	if doc.Find("form#stateForm input#statename").Length() != 1 {
		t.Error("expected the state form with its text input")
	}
	if n := doc.Find("#parks [data-row-id]").Length(); n != 0 {
		t.Errorf("expected no park rows, got %d", n)
	}
	if n := doc.Find("#gallery img").Length(); n != 0 {
		t.Errorf("expected empty gallery, got %d", n)
	}
}

func TestSearch_RendersRowsAndGallery(t *testing.T) {
	api := &fakeAPI{parksBody: parksJSON, campBody: campgroundsJSON}
	srv, _ := newTestServer(t, api)

	doc := getDocument(t, srv.URL+"/search?state=+ca+")

	if v, _ := doc.Find("#statename").Attr("value"); v != "CA" {
		t.Errorf("input value = %q, want normalized CA", v)
	}

	parkRows := doc.Find("#parks .park-item")
	if parkRows.Length() != 3 {
		t.Fatalf("expected 3 park rows, got %d", parkRows.Length())
	}

	wantIDs := []string{"CA1", "CA12", "CA123"}
	wantTitles := []string{"Manzanar National Historic Site", "Yosemite National Park", "Joshua Tree National Park"}
	parkRows.Each(func(i int, row *goquery.Selection) {
		if id, _ := row.Attr("data-row-id"); id != wantIDs[i] {
			t.Errorf("row %d id = %q, want %q", i, id, wantIDs[i])
		}
		if title := row.Find("h4").Text(); title != wantTitles[i] {
			t.Errorf("row %d title = %q, want %q", i, title, wantTitles[i])
		}
		if row.Find("button[data-remove]").Length() != 1 {
			t.Errorf("row %d is missing its delete control", i)
		}
	})

	if desc := parkRows.Eq(1).Find("p").Text(); desc != "Granite & waterfalls." {
		t.Errorf("description = %q", desc)
	}

	imgs := doc.Find("#gallery img")
	if imgs.Length() != 2 {
		t.Fatalf("expected 2 gallery images, got %d", imgs.Length())
	}
	if src, _ := imgs.Eq(0).Attr("src"); src != "https://img.test/yose.jpg" {
		t.Errorf("first image src = %q", src)
	}
	if alt, _ := imgs.Eq(1).Attr("alt"); alt != "Joshua trees" {
		t.Errorf("second image alt = %q", alt)
	}

	cgRows := doc.Find("#campgrounds .campground-item")
	if cgRows.Length() != 2 {
		t.Fatalf("expected 2 campground rows, got %d", cgRows.Length())
	}
	if title := cgRows.First().Find("h4").Text(); title != "Upper Pines" {
		t.Errorf("first campground = %q", title)
	}

	paths := api.paths()
	if len(paths) != 2 || !strings.HasPrefix(paths[0], "/parks?") || !strings.HasPrefix(paths[1], "/campgrounds?") {
		t.Fatalf("upstream calls = %v", paths)
	}
	if !strings.Contains(paths[0], "stateCode=CA") || !strings.Contains(paths[0], "api_key=test-key") {
		t.Errorf("parks query = %s", paths[0])
	}
}

func TestSearch_EmptyResults(t *testing.T) {
	api := &fakeAPI{parksBody: `{"data":[]}`, campBody: `{"data":[]}`}
	srv, _ := newTestServer(t, api)

	doc := getDocument(t, srv.URL+"/search?state=")

	if got := strings.TrimSpace(doc.Find("#parks p").Text()); got != view.MessageNoParks {
		t.Errorf("parks message = %q", got)
	}
	if got := strings.TrimSpace(doc.Find("#campgrounds p").Text()); got != view.MessageNoCampgrounds {
		t.Errorf("campgrounds message = %q", got)
	}
	if len(api.paths()) != 2 {
		t.Errorf("an empty state code must still reach the API, calls = %v", api.paths())
	}
}

func TestSearch_ParksFailure(t *testing.T) {
	api := &fakeAPI{parksStatus: http.StatusInternalServerError, parksBody: `{}`, campBody: campgroundsJSON}
	srv, logs := newTestServer(t, api)

	doc := getDocument(t, srv.URL+"/search?state=ca")

	if got := strings.TrimSpace(doc.Find("#parks p.text-danger").Text()); got != view.MessageParksFailed {
		t.Errorf("parks failure message = %q", got)
	}
	if n := doc.Find("#campgrounds [data-row-id]").Length(); n != 0 {
		t.Errorf("expected no campground rows, got %d", n)
	}
	for _, p := range api.paths() {
		if strings.HasPrefix(p, "/campgrounds") {
			t.Errorf("campgrounds must not be fetched after a parks failure: %v", api.paths())
		}
	}
	if !strings.Contains(logs.String(), "Error fetching parks") {
		t.Errorf("expected error log, got %s", logs.String())
	}
}

func TestSearch_EscapesRecordText(t *testing.T) {
	api := &fakeAPI{
		parksBody: `{"data":[{"id":"x\"y","fullName":"<script>alert(1)</script>","description":"d","images":[]}]}`,
		campBody:  `{"data":[]}`,
	}
	srv, _ := newTestServer(t, api)

	doc := getDocument(t, srv.URL+"/search?state=ca")

	row := doc.Find("#parks .park-item")
	if row.Find("script").Length() != 0 {
		t.Error("record text must be escaped, found a script element in a row")
	}
	if title := row.Find("h4").Text(); title != "<script>alert(1)</script>" {
		t.Errorf("title = %q", title)
	}
	if id, _ := row.Attr("data-row-id"); id != `x"y` {
		t.Errorf("data-row-id = %q", id)
	}
}

func TestAPISearch_MatchesPage(t *testing.T) {
	api := &fakeAPI{parksBody: parksJSON, campBody: campgroundsJSON}
	srv, _ := newTestServer(t, api)

	resp, err := http.Get(srv.URL + "/api/search?state=ca")
	if err != nil {
		t.Fatalf("GET /api/search: %v", err)
	}
	defer resp.Body.Close()

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}

	if body.Result.Region != "CA" {
		t.Errorf("region = %q", body.Result.Region)
	}
	if body.Result.Parks.Status != pipeline.StatusOK || body.Result.Parks.Count != 3 {
		t.Errorf("parks result = %+v", body.Result.Parks)
	}
	if len(body.Display.Parks.Rows) != 3 || len(body.Display.Gallery) != 2 || len(body.Display.Campgrounds.Rows) != 2 {
		t.Errorf("display = %+v", body.Display)
	}

	doc := getDocument(t, srv.URL+"/search?state=ca")
	if doc.Find("#parks [data-row-id]").Length() != len(body.Display.Parks.Rows) {
		t.Error("HTML and JSON row counts differ")
	}
}

func TestSearch_FailureNeverExposesAPIKey(t *testing.T) {
	const key = "SECRET-KEY-123"

	upstream := httptest.NewServer(http.NotFoundHandler())
	upstreamURL := upstream.URL
	upstream.Close()

	logs := &syncBuffer{}
	log := logger.New(logger.LevelDebug, logs)
	client := nps.NewClient(key, nps.WithBaseURL(upstreamURL))
	p := pipeline.New(client,
		pipeline.WithLogger(log),
		pipeline.WithMetrics(logger.NewMetrics()),
		pipeline.WithPolicy(pipeline.ContinueOnParksFailure))

	srv := httptest.NewServer(NewServer(p, "", log).Handler())
	defer srv.Close()

	for _, path := range []string{"/api/search?state=ca", "/search?state=ca"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}

		if strings.Contains(string(body), key) || strings.Contains(string(body), "api_key") {
			t.Errorf("%s response exposes the API key:\n%s", path, body)
		}
		if path == "/api/search?state=ca" {
			var res searchResponse
			if err := json.Unmarshal(body, &res); err != nil {
				t.Fatalf("decoding JSON: %v", err)
			}
			if res.Result.Parks.Status != pipeline.StatusFailed || res.Result.Campgrounds.Status != pipeline.StatusFailed {
				t.Errorf("result = %+v, want both stages failed", res.Result)
			}
		}
	}

	if !strings.Contains(logs.String(), "Error fetching parks") {
		t.Fatalf("expected the failure to be logged, got %s", logs.String())
	}
	if strings.Contains(logs.String(), key) {
		t.Errorf("logs expose the API key:\n%s", logs.String())
	}
}

func TestIndex_FormSubmitStaysOnPage(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})

	doc := getDocument(t, srv.URL+"/")

	form := doc.Find("form#stateForm")
	if action, _ := form.Attr("action"); action != "/search" {
		t.Errorf("form action = %q, want /search", action)
	}

	script := doc.Find("script").Text()
	for _, want := range []string{"preventDefault()", "fetch(form.action", `"parks", "campgrounds", "gallery"`, "bindRemove(current)"} {
		if !strings.Contains(script, want) {
			t.Errorf("page script missing %q", want)
		}
	}
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAPI{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/search", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /search: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /search status = %d, want 405", resp.StatusCode)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	log := logger.New(logger.LevelInfo, &syncBuffer{})
	p := pipeline.New(nps.NewClient("k"), pipeline.WithLogger(log))
	s := NewServer(p, ln.Addr().String(), log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

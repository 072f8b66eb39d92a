package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"game-stock-advisor/console/internal/advisor"
	"game-stock-advisor/console/internal/view"
)

const scenarioOneResponse = `{"success":true,"year":2015,"total_games":500,"requested_stock":10,"message":"OK","games":[{"rank":1,"name":"Game A","platform":"PS4","genre":"Action","publisher":"Pub","predicted_sales":1.2,"na_sales":0.5,"eu_sales":0.3,"jp_sales":0.2,"other_sales":0.2}]}`

type fakeBackend struct {
	hits      atomic.Int32
	lastBody  atomic.Value
	predict   string
	predictSC int
	train     string
	trainSC   int
	years     string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	raw, _ := io.ReadAll(r.Body)
	f.lastBody.Store(string(raw))
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/predict":
		if f.predictSC != 0 {
			w.WriteHeader(f.predictSC)
		}
		_, _ = io.WriteString(w, f.predict)
	case "/api/train-model":
		if f.trainSC != 0 {
			w.WriteHeader(f.trainSC)
		}
		_, _ = io.WriteString(w, f.train)
	case "/api/get-years":
		if f.years == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Model not trained. Please click 'Train Model' first"}`)
			return
		}
		_, _ = io.WriteString(w, f.years)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	}
}

type testConsole struct {
	t       *testing.T
	router  *gin.Engine
	server  *Server
	backend *fakeBackend
	cookie  *http.Cookie
}

func newTestConsole(t *testing.T, backend *fakeBackend, cooldown time.Duration) *testConsole {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := advisor.NewClient(advisor.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	server, err := NewServer(Config{
		Dispatcher:    client,
		Years:         advisor.NewYearCache(client, time.Minute),
		BackendURL:    srv.URL,
		TrainCooldown: cooldown,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	router, err := server.Router()
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return &testConsole{t: t, router: router, server: server, backend: backend}
}

func (tc *testConsole) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	tc.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if tc.cookie != nil {
		req.AddCookie(tc.cookie)
	}
	rr := httptest.NewRecorder()
	tc.router.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			tc.cookie = c
		}
	}
	return rr
}

func decodeSnapshot(t *testing.T, rr *httptest.ResponseRecorder) view.Snapshot {
	t.Helper()
	var snap view.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v (%s)", err, rr.Body.String())
	}
	return snap
}

func predictForm(year, maxGames string) url.Values {
	return url.Values{"year": {year}, "max_games": {maxGames}}
}

func TestPredictValidationSkipsBackend(t *testing.T) {
	tests := []struct {
		name     string
		year     string
		maxGames string
		message  string
	}{
		{"missing year", "", "10", "Please enter a year"},
		{"zero games", "2015", "0", "Please enter a valid number of games"},
		{"non numeric games", "2015", "lots", "Please enter a valid number of games"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			console := newTestConsole(t, &fakeBackend{predict: scenarioOneResponse}, 0)
			rr := console.do(http.MethodPost, "/ui/predict", predictForm(tc.year, tc.maxGames))
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422 got %d", rr.Code)
			}
			snap := decodeSnapshot(t, rr)
			if !snap.Error.Visible || snap.Error.Message != tc.message {
				t.Fatalf("unexpected banner %+v", snap.Error)
			}
			if snap.Loading || snap.Results.Visible {
				t.Fatalf("validation must not start a request: %+v", snap)
			}
			if hits := console.backend.hits.Load(); hits != 0 {
				t.Fatalf("expected no backend calls, got %d", hits)
			}
		})
	}
}

func TestPredictRendersResults(t *testing.T) {
	console := newTestConsole(t, &fakeBackend{predict: scenarioOneResponse}, 0)

	rr := console.do(http.MethodPost, "/ui/predict", predictForm("2015", "10"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if body := console.backend.lastBody.Load(); body != `{"year":2015,"max_games":10}` {
		t.Fatalf("unexpected backend body %v", body)
	}

	snap := decodeSnapshot(t, rr)
	if snap.Loading || snap.Error.Visible {
		t.Fatalf("unexpected status %+v", snap)
	}
	res := snap.Results
	if !res.Visible || res.CardCount != 1 || res.ScrollDelayMs != 300 {
		t.Fatalf("unexpected results %+v", res)
	}
	if !strings.Contains(res.SummaryHTML, "<strong>Total Games Analyzed:</strong> 500") {
		t.Fatalf("unexpected summary %s", res.SummaryHTML)
	}
	if !strings.Contains(res.CardsHTML, "Game A") || !strings.Contains(res.CardsHTML, "1.2M") {
		t.Fatalf("unexpected cards %s", res.CardsHTML)
	}

	page := console.do(http.MethodGet, "/", nil)
	if page.Code != http.StatusOK || !strings.Contains(page.Body.String(), `<div class="game-name">Game A</div>`) {
		t.Fatalf("index page should show the session's results: %d", page.Code)
	}
}

func TestPredictBackendError(t *testing.T) {
	console := newTestConsole(t, &fakeBackend{predict: `{"success":false,"error":"No data for year"}`}, 0)

	rr := console.do(http.MethodPost, "/ui/predict", predictForm("1970", "3"))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", rr.Code)
	}
	snap := decodeSnapshot(t, rr)
	if snap.Error.Message != "No data for year" || !snap.Error.Visible {
		t.Fatalf("unexpected banner %+v", snap.Error)
	}
	if snap.Results.Visible || snap.Loading {
		t.Fatalf("no results expected: %+v", snap)
	}
}

func TestPredictTransportError(t *testing.T) {
	console := newTestConsole(t, &fakeBackend{predict: "not json"}, 0)

	rr := console.do(http.MethodPost, "/ui/predict", predictForm("2015", "3"))
	snap := decodeSnapshot(t, rr)
	if !strings.HasPrefix(snap.Error.Message, "An error occurred while fetching predictions: ") {
		t.Fatalf("unexpected banner %q", snap.Error.Message)
	}
}

func TestTrainFlow(t *testing.T) {
	backend := &fakeBackend{
		train: `{"success":true,"message":"Model trained successfully!"}`,
		years: `{"years":[2000,2001]}`,
	}
	console := newTestConsole(t, backend, 30*time.Millisecond)

	rr := console.do(http.MethodPost, "/ui/train", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	snap := decodeSnapshot(t, rr)
	if snap.TrainButton.Label != view.LabelTrained || !snap.TrainButton.Disabled {
		t.Fatalf("unexpected button %+v", snap.TrainButton)
	}
	if snap.TrainStatus.Text != "Model trained successfully!" || snap.TrainStatus.Color != view.ColorSuccess {
		t.Fatalf("unexpected status %+v", snap.TrainStatus)
	}

	again := console.do(http.MethodPost, "/ui/train", nil)
	if again.Code != http.StatusConflict {
		t.Fatalf("expected 409 during cool-down, got %d", again.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		state := decodeSnapshot(t, console.do(http.MethodGet, "/ui/state", nil))
		if !state.TrainButton.Disabled {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("train button never re-enabled")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTrainFailureUpdatesButtonNotBanner(t *testing.T) {
	backend := &fakeBackend{train: `{"success":false,"error":"Dataset not found"}`, trainSC: http.StatusInternalServerError}
	console := newTestConsole(t, backend, 0)

	rr := console.do(http.MethodPost, "/ui/train", nil)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", rr.Code)
	}
	snap := decodeSnapshot(t, rr)
	if snap.TrainButton.Label != view.LabelTrainFailed {
		t.Fatalf("unexpected button %+v", snap.TrainButton)
	}
	if snap.TrainStatus.Text != "❌ Error: Dataset not found" {
		t.Fatalf("unexpected status %+v", snap.TrainStatus)
	}
	if snap.Error.Visible {
		t.Fatalf("training errors must not use the shared banner")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	console := newTestConsole(t, &fakeBackend{predict: scenarioOneResponse}, 0)
	console.do(http.MethodPost, "/ui/predict", predictForm("", "1"))

	other := &testConsole{t: t, router: console.router}
	snap := decodeSnapshot(t, other.do(http.MethodGet, "/ui/state", nil))
	if snap.Error.Visible {
		t.Fatalf("a new session must not see another session's banner")
	}
	if other.cookie == nil || console.cookie == nil || other.cookie.Value == console.cookie.Value {
		t.Fatalf("expected distinct session cookies")
	}
}

func TestYearsAndHealth(t *testing.T) {
	console := newTestConsole(t, &fakeBackend{years: `{"years":[2001,2000]}`}, 0)

	rr := console.do(http.MethodGet, "/ui/years", nil)
	var payload struct {
		Years []int `json:"years"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode years: %v", err)
	}
	if len(payload.Years) != 2 || payload.Years[0] != 2000 {
		t.Fatalf("unexpected years %v", payload.Years)
	}

	health := console.do(http.MethodGet, "/api/healthz", nil)
	if health.Code != http.StatusOK || !strings.Contains(health.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health %d %s", health.Code, health.Body.String())
	}
}

func TestPredictMalformedFormBody(t *testing.T) {
	console := newTestConsole(t, &fakeBackend{predict: scenarioOneResponse}, 0)

	req := httptest.NewRequest(http.MethodPost, "/ui/predict", strings.NewReader("year=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	console.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil || payload.Error == "" {
		t.Fatalf("expected an error body, got %s", rr.Body.String())
	}
	if hits := console.backend.hits.Load(); hits != 0 {
		t.Fatalf("malformed form must not reach the backend")
	}

	page := console.do(http.MethodGet, "/", nil)
	if !strings.Contains(page.Body.String(), "!s.train_button") {
		t.Fatalf("page script must route non-snapshot replies to the banner")
	}
}

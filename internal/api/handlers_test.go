package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/planbook-app/planbook/internal/config"
	"github.com/planbook-app/planbook/internal/logging"
	"github.com/planbook-app/planbook/internal/metrics"
	"github.com/planbook-app/planbook/internal/store"
	"github.com/planbook-app/planbook/internal/supabase"
)

// newTestAPI wires the full handler chain against a fake Supabase backend.
func newTestAPI(t *testing.T, backend http.Handler) http.Handler {
	return newThrottledTestAPI(t, backend, 1000, 1000)
}

// newThrottledTestAPI is newTestAPI with an explicit rate limit for tests
// that exercise throttling.
func newThrottledTestAPI(t *testing.T, backend http.Handler, ratePerSecond, burst int) http.Handler {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client, err := supabase.New(supabase.Config{ProjectURL: srv.URL, AnonKey: "anon"})
	if err != nil {
		t.Fatalf("supabase.New: %v", err)
	}

	cfg := &config.Config{
		SupabaseURL:        srv.URL,
		SupabaseAnonKey:    "anon",
		Port:               "0",
		AllowedOrigins:     []string{"http://localhost:3000"},
		RateLimitPerSecond: ratePerSecond,
		RateLimitBurst:     burst,
	}

	return NewHandler(Deps{
		Config:  cfg,
		Client:  client,
		Repo:    store.NewRepository(client),
		Logger:  logging.NewWithOutput("test", io.Discard),
		Metrics: metrics.New("test"),
	})
}

// serveAuthUser resolves the fake tokens tok-alice and tok-bob on the
// backend's /auth/v1/user endpoint. Returns true when it handled r.
func serveAuthUser(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Path != "/auth/v1/user" {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	switch r.Header.Get("Authorization") {
	case "Bearer tok-alice":
		_, _ = w.Write([]byte(`{"id":"u-alice","email":"alice@x.com"}`))
	case "Bearer tok-bob":
		_, _ = w.Write([]byte(`{"id":"u-bob","email":"bob@x.com"}`))
	default:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
	}
	return true
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	r := httptest.NewRequest(method, path, reader)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

const alicePlan = `{"id":"p1","user_id":"u-alice","title":"Wedding","event_date":"2026-06-01T10:00:00Z","guest_count":2,"status":"planned","created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"}`
const bobPlan = `{"id":"p2","user_id":"u-bob","title":"Party","event_date":"2026-07-01T10:00:00Z","guest_count":0,"status":"planned","created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"}`

func TestAPI_RequiresToken(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no accessor may be invoked without a token, got %s %s", r.Method, r.URL.Path)
	}))

	rec := doJSON(t, api, http.MethodGet, "/api/v1/plans", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] == "" {
		t.Fatalf("expected error body, got %v", body)
	}
}

func TestAPI_HealthIsPublic(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected backend call: %s", r.URL.Path)
	}))

	rec := doJSON(t, api, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "healthy" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestAPI_CategoriesArePublic(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/event_categories" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Wedding"}]`))
	}))

	rec := doJSON(t, api, http.MethodGet, "/api/v1/plans/categories", "", "")
	if rec.Code != statusSuccess {
		t.Fatalf("expected %d, got %d: %s", statusSuccess, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["categories"]; !ok {
		t.Fatalf("expected categories key, got %v", body)
	}
}

func TestAPI_CreatePlan_Validation(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		t.Fatalf("no record may be created for invalid input, got %s %s", r.Method, r.URL.Path)
	}))

	cases := []string{
		`{"event_date":"2026-06-01T10:00:00Z"}`,
		`{"title":"Wedding"}`,
		`{"title":"Wedding","event_date":"not-a-date"}`,
	}
	for _, body := range cases {
		rec := doJSON(t, api, http.MethodPost, "/api/v1/plans", "tok-alice", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAPI_CreatePlan_Success(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		if r.URL.Path != "/rest/v1/plans" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body store.PlanCreate
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.UserID != "u-alice" {
			t.Fatalf("expected owner from token, got %q", body.UserID)
		}
		if body.Status != store.PlanStatusPlanned || body.GuestCount != 0 {
			t.Fatalf("unexpected defaults: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1","user_id":"u-alice","title":"Wedding","event_date":"2026-06-01T10:00:00Z","guest_count":0,"status":"planned"}]`))
	}))

	rec := doJSON(t, api, http.MethodPost, "/api/v1/plans", "tok-alice",
		`{"title":"Wedding","event_date":"2026-06-01T10:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	plan, ok := body["plan"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected plan object, got %v", body)
	}
	if plan["guest_count"].(float64) != 0 || plan["status"] != "planned" {
		t.Fatalf("unexpected plan: %v", plan)
	}
}

func TestAPI_ForeignPlanLooksLikeMissingPlan(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("id") {
		case "eq.p2":
			_, _ = w.Write([]byte(`[` + bobPlan + `]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))

	foreign := doJSON(t, api, http.MethodGet, "/api/v1/plans/p2", "tok-alice", "")
	missing := doJSON(t, api, http.MethodGet, "/api/v1/plans/nope", "tok-alice", "")

	if foreign.Code != http.StatusNotFound || missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404/404, got %d/%d", foreign.Code, missing.Code)
	}
	if foreign.Body.String() != missing.Body.String() {
		t.Fatalf("responses must be indistinguishable:\nforeign: %s\nmissing: %s",
			foreign.Body.String(), missing.Body.String())
	}
}

func TestAPI_GetPlan_IncludesGuests(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/v1/plans":
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case "/rest/v1/guests":
			_, _ = w.Write([]byte(`[
				{"id":"g1","plan_id":"p1","name":"Bob","rsvp_status":"confirmed"},
				{"id":"g2","plan_id":"p1","name":"Eve","rsvp_status":"pending"}
			]`))
		case "/rest/v1/guest_phones":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	rec := doJSON(t, api, http.MethodGet, "/api/v1/plans/p1", "tok-alice", "")
	if rec.Code != statusSuccess {
		t.Fatalf("expected %d, got %d: %s", statusSuccess, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["guests_count"].(float64) != 2 {
		t.Fatalf("expected guests_count 2, got %v", body["guests_count"])
	}
}

func TestAPI_AddGuest_IncrementsGuestCount(t *testing.T) {
	var patchedCount float64 = -1
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/rest/v1/plans" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case r.URL.Path == "/rest/v1/plans" && r.Method == http.MethodPatch:
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode patch body: %v", err)
			}
			patchedCount = body["guest_count"].(float64)
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case r.URL.Path == "/rest/v1/guests" && r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`[{"id":"g9","plan_id":"p1","name":"Bob","rsvp_status":"pending"}]`))
		case r.URL.Path == "/rest/v1/guests" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":"g9","plan_id":"p1","name":"Bob","rsvp_status":"pending"}]`))
		case r.URL.Path == "/rest/v1/guest_phones":
			if r.Method == http.MethodPost {
				_, _ = w.Write([]byte(`[{"id":"ph1","guest_id":"g9","phone_number":"15550100","phone_type":"mobile","is_primary":true}]`))
				return
			}
			_, _ = w.Write([]byte(`[{"id":"ph1","guest_id":"g9","phone_number":"15550100","phone_type":"mobile","is_primary":true}]`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	rec := doJSON(t, api, http.MethodPost, "/api/v1/plans/p1/guests", "tok-alice",
		`{"name":"Bob","phone_numbers":[{"number":"15550100","type":"mobile","is_primary":true}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// alicePlan has guest_count 2, so the add must patch it to 3.
	if patchedCount != 3 {
		t.Fatalf("expected guest_count patched to 3, got %v", patchedCount)
	}

	body := decodeBody(t, rec)
	guest := body["guest"].(map[string]interface{})
	phones := guest["phone_numbers"].([]interface{})
	if len(phones) != 1 {
		t.Fatalf("expected 1 phone on created guest, got %v", phones)
	}
}

func TestAPI_AddGuest_LegacyPhoneField(t *testing.T) {
	var phoneRows []map[string]interface{}
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/rest/v1/plans" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case r.URL.Path == "/rest/v1/plans" && r.Method == http.MethodPatch:
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case r.URL.Path == "/rest/v1/guests":
			_, _ = w.Write([]byte(`[{"id":"g9","plan_id":"p1","name":"Bob","rsvp_status":"pending"}]`))
		case r.URL.Path == "/rest/v1/guest_phones" && r.Method == http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&phoneRows); err != nil {
				t.Fatalf("decode phone rows: %v", err)
			}
			_, _ = w.Write([]byte(`[{"id":"ph1","guest_id":"g9","phone_number":"15550100","phone_type":"mobile","is_primary":true}]`))
		case r.URL.Path == "/rest/v1/guest_phones":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	rec := doJSON(t, api, http.MethodPost, "/api/v1/plans/p1/guests", "tok-alice",
		`{"name":"Bob","phone":"15550100"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(phoneRows) != 1 {
		t.Fatalf("expected legacy phone converted to one entry, got %v", phoneRows)
	}
	if phoneRows[0]["phone_type"] != "mobile" || phoneRows[0]["is_primary"] != true {
		t.Fatalf("expected primary mobile entry, got %v", phoneRows[0])
	}
}

func TestAPI_ListGuests_RSVPStats(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/v1/plans":
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case "/rest/v1/guests":
			_, _ = w.Write([]byte(`[
				{"id":"g1","plan_id":"p1","name":"A","rsvp_status":"confirmed"},
				{"id":"g2","plan_id":"p1","name":"B","rsvp_status":"confirmed"},
				{"id":"g3","plan_id":"p1","name":"C","rsvp_status":"declined"}
			]`))
		case "/rest/v1/guest_phones":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	rec := doJSON(t, api, http.MethodGet, "/api/v1/plans/p1/guests", "tok-alice", "")
	if rec.Code != statusSuccess {
		t.Fatalf("expected %d, got %d: %s", statusSuccess, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	stats := body["rsvp_stats"].(map[string]interface{})
	if stats["confirmed"].(float64) != 2 || stats["declined"].(float64) != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
	// Empty buckets are still reported.
	if stats["pending"].(float64) != 0 || stats["maybe"].(float64) != 0 {
		t.Fatalf("expected zeroed buckets, got %v", stats)
	}
}

func TestAPI_RSVP_RejectsInvalidStatus(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		if r.Method == http.MethodPatch {
			t.Fatal("guest must not be modified on validation failure")
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/v1/plans":
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case "/rest/v1/guests":
			_, _ = w.Write([]byte(`[{"id":"g1","plan_id":"p1","name":"Bob","rsvp_status":"pending"}]`))
		case "/rest/v1/guest_phones":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	rec := doJSON(t, api, http.MethodPut, "/api/v1/plans/p1/guests/g1/rsvp", "tok-alice",
		`{"rsvp_status":"attending"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_GuestFromAnotherPlan(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/v1/plans":
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case "/rest/v1/guests":
			_, _ = w.Write([]byte(`[{"id":"g1","plan_id":"other-plan","name":"Bob","rsvp_status":"pending"}]`))
		case "/rest/v1/guest_phones":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	rec := doJSON(t, api, http.MethodGet, "/api/v1/plans/p1/guests/g1", "tok-alice", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_DeleteGuest_FloorsGuestCountAtZero(t *testing.T) {
	zeroCountPlan := strings.Replace(alicePlan, `"guest_count":2`, `"guest_count":0`, 1)
	var patchedCount float64 = -1
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/rest/v1/plans" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[` + zeroCountPlan + `]`))
		case r.URL.Path == "/rest/v1/plans" && r.Method == http.MethodPatch:
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode patch body: %v", err)
			}
			patchedCount = body["guest_count"].(float64)
			_, _ = w.Write([]byte(`[` + zeroCountPlan + `]`))
		case r.URL.Path == "/rest/v1/guests" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":"g1","plan_id":"p1","name":"Bob","rsvp_status":"pending"}]`))
		case r.URL.Path == "/rest/v1/guests" && r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`[{"id":"g1","plan_id":"p1","name":"Bob","rsvp_status":"pending"}]`))
		case r.URL.Path == "/rest/v1/guest_phones":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	rec := doJSON(t, api, http.MethodDelete, "/api/v1/plans/p1/guests/g1", "tok-alice", "")
	if rec.Code != statusSuccess {
		t.Fatalf("expected %d, got %d: %s", statusSuccess, rec.Code, rec.Body.String())
	}
	if patchedCount != 0 {
		t.Fatalf("expected guest_count floored at 0, got %v", patchedCount)
	}
}

func TestAPI_Stats(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		if r.URL.Query().Get("limit") != "1000" {
			t.Fatalf("expected stats scan limit 1000, got %q", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"p1","user_id":"u-alice","title":"A","event_date":"2099-01-01T00:00:00Z","guest_count":3,"status":"planned","category_id":1},
			{"id":"p2","user_id":"u-alice","title":"B","event_date":"2020-01-01T00:00:00Z","guest_count":5,"status":"completed","category_id":1},
			{"id":"p3","user_id":"u-alice","title":"C","event_date":"2020-01-01T00:00:00Z","guest_count":2,"status":"planned","category_id":2}
		]`))
	}))

	rec := doJSON(t, api, http.MethodGet, "/api/v1/plans/stats", "tok-alice", "")
	if rec.Code != statusSuccess {
		t.Fatalf("expected %d, got %d: %s", statusSuccess, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	stats := body["stats"].(map[string]interface{})
	if stats["total_plans"].(float64) != 3 {
		t.Fatalf("unexpected total_plans: %v", stats["total_plans"])
	}
	// p3 is planned with a past event date and still counts as upcoming:
	// the buckets follow status alone.
	if stats["upcoming_plans"].(float64) != 2 || stats["completed_plans"].(float64) != 1 {
		t.Fatalf("unexpected upcoming_plans/completed_plans: %v", stats)
	}
	if stats["total_guests"].(float64) != 10 {
		t.Fatalf("unexpected total_guests: %v", stats["total_guests"])
	}
	byCategory := stats["by_category"].(map[string]interface{})
	if byCategory["1"].(float64) != 2 || byCategory["2"].(float64) != 1 {
		t.Fatalf("unexpected by_category: %v", byCategory)
	}
}

func TestAPI_Signup(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@x.com","created_at":"2026-01-01T00:00:00Z"}`))
	}))

	rec := doJSON(t, api, http.MethodPost, "/auth/accounts/signup", "",
		`{"email":"a@x.com","password":"Secret123"}`)
	if rec.Code != statusSuccess {
		t.Fatalf("expected %d, got %d: %s", statusSuccess, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	user := body["user"].(map[string]interface{})
	if user["email"] != "a@x.com" {
		t.Fatalf("unexpected user: %v", user)
	}
}

func TestAPI_Signup_Validation(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected backend call: %s", r.URL.Path)
	}))

	rec := doJSON(t, api, http.MethodPost, "/auth/accounts/signup", "", `{"email":"a@x.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAPI_Login_PropagatesAuthError(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}))

	rec := doJSON(t, api, http.MethodPost, "/auth/accounts/login", "",
		`{"email":"a@x.com","password":"wrong"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Invalid login credentials" {
		t.Fatalf("expected downstream message propagated, got %v", body)
	}
}

func TestAPI_CurrentUser(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		t.Fatalf("unexpected backend call: %s", r.URL.Path)
	}))

	rec := doJSON(t, api, http.MethodGet, "/auth/accounts/user", "tok-alice", "")
	if rec.Code != statusSuccess {
		t.Fatalf("expected %d, got %d: %s", statusSuccess, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	user := body["user"].(map[string]interface{})
	if user["id"] != "u-alice" {
		t.Fatalf("unexpected user: %v", user)
	}

	anon := doJSON(t, api, http.MethodGet, "/auth/accounts/user", "", "")
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", anon.Code)
	}
}

func TestAPI_UpdatePlan_Idempotent(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case http.MethodPatch:
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		default:
			t.Fatalf("unexpected method: %s", r.Method)
		}
	}
	api := newTestAPI(t, http.HandlerFunc(handler))

	first := doJSON(t, api, http.MethodPut, "/api/v1/plans/p1", "tok-alice", `{"title":"Wedding"}`)
	second := doJSON(t, api, http.MethodPut, "/api/v1/plans/p1", "tok-alice", `{"title":"Wedding"}`)
	if first.Code != statusSuccess || second.Code != statusSuccess {
		t.Fatalf("expected %d/%d, got %d/%d", statusSuccess, statusSuccess, first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("repeated update must yield the same representation:\n%s\n%s",
			first.Body.String(), second.Body.String())
	}
}

func TestAPI_CreateTask_InvalidDueDate(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/rest/v1/plans" {
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
			return
		}
		t.Fatalf("no task may be created for invalid input, got %s %s", r.Method, r.URL.Path)
	}))

	rec := doJSON(t, api, http.MethodPost, "/api/v1/plans/p1/tasks", "tok-alice",
		`{"title":"Book venue","due_date":"next week"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_SearchGuests_FilteredToPlan(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/rest/v1/plans":
			_, _ = w.Write([]byte(`[` + alicePlan + `]`))
		case r.URL.Path == "/rest/v1/guest_phones" && r.URL.Query().Get("phone_number") != "":
			_, _ = w.Write([]byte(`[{"guest_id":"g1"},{"guest_id":"g2"}]`))
		case r.URL.Path == "/rest/v1/guests":
			_, _ = w.Write([]byte(`[
				{"id":"g1","plan_id":"p1","name":"Bob","rsvp_status":"pending"},
				{"id":"g2","plan_id":"other","name":"Eve","rsvp_status":"pending"}
			]`))
		case r.URL.Path == "/rest/v1/guest_phones":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))

	rec := doJSON(t, api, http.MethodGet, "/api/v1/plans/p1/guests/search?phone=15550100", "tok-alice", "")
	if rec.Code != statusSuccess {
		t.Fatalf("expected %d, got %d: %s", statusSuccess, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["count"].(float64) != 1 {
		t.Fatalf("expected only the plan's guest, got %v", body)
	}
}

func TestAPI_ThrottleBeforeTokenResolution(t *testing.T) {
	authCalls := 0
	api := newThrottledTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Fatalf("unexpected backend call: %s %s", r.Method, r.URL.Path)
		}
		authCalls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
	}), 1, 1)

	first := doJSON(t, api, http.MethodGet, "/api/v1/plans", "bogus", "")
	if first.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for the first request, got %d", first.Code)
	}
	for i := 0; i < 3; i++ {
		rec := doJSON(t, api, http.MethodGet, "/api/v1/plans", "bogus", "")
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 once throttled, got %d: %s", rec.Code, rec.Body.String())
		}
	}
	// Throttled requests are dropped before the token is resolved, so a
	// flood of bogus tokens costs at most one remote lookup per refill.
	if authCalls != 1 {
		t.Fatalf("expected 1 auth lookup, got %d", authCalls)
	}
}

func TestAPI_CreatePlan_UnknownCategory(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		if r.URL.Path == "/rest/v1/event_categories" {
			if got := r.URL.Query().Get("id"); got != "eq.99" {
				t.Fatalf("expected category lookup id=eq.99, got %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
			return
		}
		t.Fatalf("no plan may be created for an unknown category, got %s %s", r.Method, r.URL.Path)
	}))

	rec := doJSON(t, api, http.MethodPost, "/api/v1/plans", "tok-alice",
		`{"title":"Wedding","event_date":"2026-06-01T10:00:00Z","category_id":99}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid category_id" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestAPI_Logout_PropagatesRevocationFailure(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serveAuthUser(w, r) {
			return
		}
		if r.URL.Path != "/auth/v1/logout" {
			t.Fatalf("unexpected backend call: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_token","error_description":"Session not found"}`))
	}))

	rec := doJSON(t, api, http.MethodPost, "/auth/accounts/logout", "tok-alice", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["error"] != "Session not found" {
		t.Fatalf("expected revocation failure surfaced, got %v", body)
	}
}

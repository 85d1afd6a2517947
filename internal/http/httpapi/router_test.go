package httpapi

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Maciekds1981/kolorowanki/internal/http/handlers"
	"github.com/Maciekds1981/kolorowanki/internal/infra"
	"github.com/Maciekds1981/kolorowanki/internal/session"
)

type fakeOpenAI struct {
	mu         sync.Mutex
	prompts    []string
	auth       []string
	orgs       []string
	chatStatus int
	chatBody   string
	// onImage runs before each image response, outside the lock.
	onImage func()
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.orgs = append(f.orgs, r.Header.Get("OpenAI-Organization")+"|"+r.Header.Get("OpenAI-Project"))
	f.mu.Unlock()
	switch r.URL.Path {
	case "/chat/completions":
		if f.chatStatus != 0 {
			w.WriteHeader(f.chatStatus)
			_, _ = w.Write([]byte(f.chatBody))
			return
		}
		items := make([]map[string]string, 0, 5)
		for i := 1; i <= 5; i++ {
			items = append(items, map[string]string{"title": fmt.Sprintf("Pomysł %d", i), "prompt": fmt.Sprintf("scene %d", i)})
		}
		inner, _ := json.Marshal(map[string]any{"ideas": items})
		content := "```json\n" + string(inner) + "\n```"
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"content": content}}},
		})
	case "/images/generations":
		var payload struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.mu.Lock()
		f.prompts = append(f.prompts, payload.Prompt)
		f.mu.Unlock()
		if f.onImage != nil {
			f.onImage()
		}
		if strings.Contains(payload.Prompt, "variant 2,") {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		data := base64.StdEncoding.EncodeToString([]byte("png:" + payload.Prompt[:20]))
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{map[string]string{"b64_json": data}}})
	default:
		http.NotFound(w, r)
	}
}

func newTestServer(t *testing.T, apiKey string, fake *fakeOpenAI, rateLimit int, configure ...func(*infra.Config)) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(fake)
	t.Cleanup(upstream.Close)
	cfg := &infra.Config{
		DefaultLocale:   "pl",
		OpenAIAPIKey:    apiKey,
		OpenAIBaseURL:   upstream.URL,
		TextModel:       "gpt-4o-mini",
		ImageModel:      "gpt-image-1",
		TextTimeout:     5 * time.Second,
		ImageTimeout:    5 * time.Second,
		SessionTTL:      time.Hour,
		RateLimitPerMin: rateLimit,
	}
	for _, fn := range configure {
		fn(cfg)
	}
	app := handlers.NewApp(cfg, session.NewStore(cfg.SessionTTL))
	srv := httptest.NewServer(NewRouter(app, Options{Logger: zerolog.Nop()}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
}

func createSession(t *testing.T, base string, body any) string {
	t.Helper()
	resp := do(t, http.MethodPost, base+"/v1/sessions", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d", resp.StatusCode)
	}
	created := decodeJSON[struct {
		ID string `json:"id"`
	}](t, resp)
	if created.ID == "" {
		t.Fatalf("empty session id")
	}
	return created.ID
}

func TestWorkflowEndToEnd(t *testing.T) {
	fake := &fakeOpenAI{}
	srv := newTestServer(t, "server-key", fake, 0)
	id := createSession(t, srv.URL, nil)
	base := srv.URL + "/v1/sessions/" + id

	resp := do(t, http.MethodPost, base+"/images", map[string]any{"count": 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("images before ideas status = %d", resp.StatusCode)
	}
	if got := decodeJSON[apiError](t, resp); got.Error.Code != "no_ideas" {
		t.Fatalf("code = %q", got.Error.Code)
	}

	resp = do(t, http.MethodPost, base+"/ideas", map[string]any{"theme": "dinozaury", "max_count": 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ideas status = %d", resp.StatusCode)
	}
	ideas := decodeJSON[struct {
		Ideas []struct {
			Title  string `json:"title"`
			Prompt string `json:"prompt"`
		} `json:"ideas"`
		Message string `json:"message"`
	}](t, resp)
	if len(ideas.Ideas) != 3 || ideas.Ideas[2].Prompt != "scene 3" {
		t.Fatalf("ideas = %+v", ideas.Ideas)
	}
	if ideas.Message != "Gotowe: 3 propozycji." {
		t.Fatalf("message = %q", ideas.Message)
	}

	resp = do(t, http.MethodPut, base+"/ideas/1", map[string]string{"title": "", "prompt": "a dragon"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit status = %d", resp.StatusCode)
	}
	if got := decodeJSON[map[string]any](t, resp); got["title"] != "Pomysł" {
		t.Fatalf("edited = %+v", got)
	}

	resp = do(t, http.MethodPost, base+"/selection", map[string]int{"index": 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, base+"/images", map[string]any{"count": 3, "size": 512, "quality": "low"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("images status = %d", resp.StatusCode)
	}
	batch := decodeJSON[struct {
		Requested int  `json:"requested"`
		Succeeded int  `json:"succeeded"`
		Replaced  bool `json:"replaced"`
		Outcomes  []struct {
			Ordinal int    `json:"ordinal"`
			OK      bool   `json:"ok"`
			Error   string `json:"error"`
		} `json:"outcomes"`
	}](t, resp)
	if batch.Requested != 3 || batch.Succeeded != 2 || !batch.Replaced {
		t.Fatalf("batch = %+v", batch)
	}
	for i, o := range batch.Outcomes {
		if o.Ordinal != i+1 {
			t.Fatalf("ordinal[%d] = %d", i, o.Ordinal)
		}
	}
	if batch.Outcomes[1].OK || !strings.HasPrefix(batch.Outcomes[1].Error, "Wariant #2") {
		t.Fatalf("variant 2 = %+v", batch.Outcomes[1])
	}
	fake.mu.Lock()
	prompts := append([]string(nil), fake.prompts...)
	fake.mu.Unlock()
	if len(prompts) != 3 || !strings.HasPrefix(prompts[0], "a dragon, variant 1, black-and-white coloring book page") {
		t.Fatalf("prompts = %q", prompts)
	}

	resp = do(t, http.MethodGet, base+"/images/1", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("image status = %d type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "coloring_variant_01.png") {
		t.Fatalf("content-disposition = %q", cd)
	}

	resp = do(t, http.MethodGet, base+"/images/2", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing image status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, base+"/archive", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/zip" {
		t.Fatalf("archive status = %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "coloring_variant_01.png,coloring_variant_03.png" {
		t.Fatalf("entries = %v", names)
	}

	resp = do(t, http.MethodDelete, base, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", resp.StatusCode)
	}
}

func TestBatchForReplacedIdeasIsDiscarded(t *testing.T) {
	fake := &fakeOpenAI{}
	srv := newTestServer(t, "k", fake, 0)
	id := createSession(t, srv.URL, nil)
	base := srv.URL + "/v1/sessions/" + id

	resp := do(t, http.MethodPost, base+"/ideas", map[string]any{"theme": "dinozaury"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ideas status = %d", resp.StatusCode)
	}

	var once sync.Once
	fake.onImage = func() {
		once.Do(func() {
			raw, _ := json.Marshal(map[string]any{"theme": "rakiety"})
			r, err := http.Post(base+"/ideas", "application/json", bytes.NewReader(raw))
			if err != nil {
				t.Errorf("replace ideas: %v", err)
				return
			}
			_ = r.Body.Close()
			if r.StatusCode != http.StatusOK {
				t.Errorf("replace ideas status = %d", r.StatusCode)
			}
		})
	}

	resp = do(t, http.MethodPost, base+"/images", map[string]any{"count": 1})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("images status = %d, want 409", resp.StatusCode)
	}
	if got := decodeJSON[apiError](t, resp); got.Error.Code != "stale_batch" {
		t.Fatalf("code = %q", got.Error.Code)
	}

	resp = do(t, http.MethodGet, base, nil)
	snap := decodeJSON[struct {
		Ideas     []any `json:"ideas"`
		Artifacts []any `json:"artifacts"`
		LastBatch []any `json:"last_batch"`
	}](t, resp)
	if len(snap.Ideas) != 4 || len(snap.Artifacts) != 0 || len(snap.LastBatch) != 0 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestMissingAPIKeyIsRejectedBeforeAnyCall(t *testing.T) {
	fake := &fakeOpenAI{}
	srv := newTestServer(t, "", fake, 0)
	id := createSession(t, srv.URL, nil)
	base := srv.URL + "/v1/sessions/" + id

	resp := do(t, http.MethodPost, base+"/ideas", map[string]any{"theme": "koty"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decodeJSON[apiError](t, resp); got.Error.Code != "missing_api_key" {
		t.Fatalf("code = %q", got.Error.Code)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.auth) != 0 {
		t.Fatalf("upstream was called %d times", len(fake.auth))
	}
}

func TestSessionCredentialsOverrideConfig(t *testing.T) {
	fake := &fakeOpenAI{}
	srv := newTestServer(t, "", fake, 0)
	id := createSession(t, srv.URL, map[string]string{"api_key": "session-key"})

	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/ideas", map[string]any{"theme": "koty"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.auth) != 1 || fake.auth[0] != "Bearer session-key" {
		t.Fatalf("auth = %q", fake.auth)
	}
}

func TestSessionKeyIsNotPairedWithServerOrganization(t *testing.T) {
	fake := &fakeOpenAI{}
	srv := newTestServer(t, "server-key", fake, 0, func(cfg *infra.Config) {
		cfg.OpenAIOrg = "org_server"
		cfg.OpenAIProject = "proj_server"
	})

	userID := createSession(t, srv.URL, map[string]string{"api_key": "user-key"})
	resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+userID+"/ideas", map[string]any{"theme": "koty"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user session status = %d", resp.StatusCode)
	}

	orgOnlyID := createSession(t, srv.URL, map[string]string{"organization": "org_user"})
	resp = do(t, http.MethodPost, srv.URL+"/v1/sessions/"+orgOnlyID+"/ideas", map[string]any{"theme": "psy"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("org-only session status = %d", resp.StatusCode)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	wantAuth := []string{"Bearer user-key", "Bearer server-key"}
	wantOrgs := []string{"|", "org_server|proj_server"}
	if strings.Join(fake.auth, ",") != strings.Join(wantAuth, ",") {
		t.Fatalf("auth = %q, want %q", fake.auth, wantAuth)
	}
	if strings.Join(fake.orgs, ",") != strings.Join(wantOrgs, ",") {
		t.Fatalf("org|project = %q, want %q", fake.orgs, wantOrgs)
	}
}

func TestIdeasErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name       string
		chatStatus int
		chatBody   string
		wantStatus int
		wantCode   string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, http.StatusBadGateway, "api_error"},
		{"rate limited upstream", http.StatusTooManyRequests, "slow down", http.StatusBadGateway, "api_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeOpenAI{chatStatus: tc.chatStatus, chatBody: tc.chatBody}
			srv := newTestServer(t, "k", fake, 0)
			id := createSession(t, srv.URL, nil)
			resp := do(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/ideas", map[string]any{"theme": "koty"})
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			got := decodeJSON[apiError](t, resp)
			if got.Error.Code != tc.wantCode {
				t.Fatalf("code = %q", got.Error.Code)
			}
			if got.Error.Detail != fmt.Sprint(tc.chatStatus) {
				t.Fatalf("detail = %q", got.Error.Detail)
			}
		})
	}
}

func TestValidationErrorsAreLocalized(t *testing.T) {
	srv := newTestServer(t, "k", &fakeOpenAI{}, 0)
	id := createSession(t, srv.URL, nil)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/sessions/"+id+"/ideas", strings.NewReader(`{"theme":"  "}`))
	req.Header.Set("Accept-Language", "en-US")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decodeJSON[apiError](t, resp)
	if got.Error.Code != "theme_required" || got.Error.Message != "Enter a theme." {
		t.Fatalf("error = %+v", got.Error)
	}

	resp = do(t, http.MethodPost, srv.URL+"/v1/sessions/"+id+"/ideas", map[string]any{"theme": "koty", "max_count": 9})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("max_count status = %d", resp.StatusCode)
	}
	if got := decodeJSON[apiError](t, resp); got.Error.Code != "validation" {
		t.Fatalf("code = %q", got.Error.Code)
	}
}

func TestUnknownSessionIsNotFound(t *testing.T) {
	srv := newTestServer(t, "k", &fakeOpenAI{}, 0)
	resp := do(t, http.MethodGet, srv.URL+"/v1/sessions/nope/archive", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decodeJSON[apiError](t, resp); got.Error.Code != "not_found" {
		t.Fatalf("code = %q", got.Error.Code)
	}
}

func TestArchiveWithoutImages(t *testing.T) {
	srv := newTestServer(t, "k", &fakeOpenAI{}, 0)
	id := createSession(t, srv.URL, nil)
	resp := do(t, http.MethodGet, srv.URL+"/v1/sessions/"+id+"/archive", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decodeJSON[apiError](t, resp); got.Error.Code != "no_images" {
		t.Fatalf("code = %q", got.Error.Code)
	}
}

func TestInfoNeverExposesKey(t *testing.T) {
	srv := newTestServer(t, "sk-secret-value", &fakeOpenAI{}, 0)
	resp := do(t, http.MethodGet, srv.URL+"/v1/info", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if bytes.Contains(raw, []byte("sk-secret-value")) {
		t.Fatalf("info leaked the key: %s", raw)
	}
	var info map[string]any
	if err := json.Unmarshal(raw, &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info["has_api_key"] != true || info["text_model"] != "gpt-4o-mini" {
		t.Fatalf("info = %v", info)
	}
}

func TestRateLimitAppliesToAPI(t *testing.T) {
	srv := newTestServer(t, "k", &fakeOpenAI{}, 1)
	first := do(t, http.MethodGet, srv.URL+"/v1/info", nil)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first status = %d", first.StatusCode)
	}
	second := do(t, http.MethodGet, srv.URL+"/v1/info", nil)
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", second.StatusCode)
	}
	if got := decodeJSON[apiError](t, second); got.Error.Code != "rate_limited" {
		t.Fatalf("code = %q", got.Error.Code)
	}
	health := do(t, http.MethodGet, srv.URL+"/v1/healthz", nil)
	if health.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", health.StatusCode)
	}
}

func TestRateLimitKeysOnConnectionAddress(t *testing.T) {
	srv := newTestServer(t, "k", &fakeOpenAI{}, 1)
	codes := make([]int, 0, 3)
	for i := 1; i <= 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/info", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		_ = resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	srv := newTestServer(t, "", &fakeOpenAI{}, 0)
	resp := do(t, http.MethodGet, srv.URL+"/v1/openapi.json", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	doc := decodeJSON[struct {
		Paths map[string]any `json:"paths"`
	}](t, resp)
	if _, ok := doc.Paths["/v1/sessions/{session_id}/archive"]; !ok {
		t.Fatalf("archive path missing from document")
	}
	docs := do(t, http.MethodGet, srv.URL+"/v1/docs", nil)
	if ct := docs.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("docs content-type = %q", ct)
	}
}

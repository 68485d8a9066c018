package web

import (
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"ays/internal/adapters/http/middleware"
	"ays/internal/adapters/http/perf"
	sessionStore "ays/internal/adapters/storage/session"
	"ays/internal/domain/attendance"
)

var csrfField = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

func newTestMux(t *testing.T, s *mockSheet) http.Handler {
	t.Helper()
	RateLimitPerSecond = 1000
	t.Cleanup(func() { RateLimitPerSecond = 10 })
	key, err := LoadCSRFKey(strings.Repeat("ab", 32), false)
	if err != nil {
		t.Fatalf("LoadCSRFKey: %v", err)
	}
	return NewMux(Deps{
		Sheet:           s,
		Sessions:        sessionStore.NewMemoryStore(),
		Identity:        mockIdentity{},
		DuplicatePolicy: attendance.DuplicateAllow,
		Notice:          "Class is **cancelled** on Friday. <script>x</script>",
		Collector:       perf.NewCollector(100),
		CSRFKey:         key,
	})
}

// send serves req and returns the response plus the cookies to carry forward.
func send(h http.Handler, req *http.Request, cookies []*http.Cookie) (*httptest.ResponseRecorder, []*http.Cookie) {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}
	for _, c := range rr.Result().Cookies() {
		byName[c.Name] = c
	}
	out := make([]*http.Cookie, 0, len(byName))
	for _, c := range byName {
		out = append(out, c)
	}
	return rr, out
}

func TestNewMux_HomeSetsSessionCookie(t *testing.T) {
	h := newTestMux(t, newMockSheet())
	rr, _ := send(h, httptest.NewRequest("GET", "/", nil), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var sc *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sc = c
		}
	}
	if sc == nil {
		t.Fatal("no session cookie")
	}
	if !sc.HttpOnly || sc.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie = %+v, want HttpOnly SameSite=Lax", sc)
	}
	if rr.Header().Get("X-Frame-Options") == "" || rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers missing")
	}
	body := rr.Body.String()
	assertContains(t, body, "<strong>cancelled</strong>")
	if strings.Contains(body, "<script>x</script>") {
		t.Error("raw HTML in the notice was not escaped")
	}
}

func TestNewMux_StaticCSS(t *testing.T) {
	h := newTestMux(t, newMockSheet())
	rr, _ := send(h, httptest.NewRequest("GET", "/static/site.css", nil), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestNewMux_UnknownPath(t *testing.T) {
	h := newTestMux(t, newMockSheet())
	rr, _ := send(h, httptest.NewRequest("GET", "/nope", nil), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestNewMux_RegisterWithCSRFToken(t *testing.T) {
	s := newMockSheet()
	h := newTestMux(t, s)

	rr, cookies := send(h, httptest.NewRequest("GET", "/register", nil), nil)
	m := csrfField.FindStringSubmatch(rr.Body.String())
	if m == nil {
		t.Fatal("no csrf token in form")
	}
	token := html.UnescapeString(m[1])

	form := url.Values{
		"gorilla.csrf.Token": {token},
		"name":               {"Alice"},
		"email":              {"a@x.com"},
	}
	req := httptest.NewRequest("POST", "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr, _ = send(h, req, cookies)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	assertContains(t, rr.Body.String(), "Registration was successful Alice")
	if len(s.rows) != 2 {
		t.Errorf("rows = %d, want 2", len(s.rows))
	}
}

func TestNewMux_PostWithoutCSRFToken(t *testing.T) {
	s := newMockSheet()
	h := newTestMux(t, s)

	form := url.Values{"name": {"Alice"}, "email": {"a@x.com"}}
	req := httptest.NewRequest("POST", "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr, _ := send(h, req, nil)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
	if len(s.rows) != 1 {
		t.Error("row appended without a csrf token")
	}
}

func TestNewMux_LoginSurvivesAcrossRequests(t *testing.T) {
	h := newTestMux(t, newMockSheet())

	rr, cookies := send(h, httptest.NewRequest("GET", "/", nil), nil)
	m := regexp.MustCompile(`state=([^"&]+)`).FindStringSubmatch(rr.Body.String())
	if m == nil {
		t.Fatal("no state in login link")
	}
	state := html.UnescapeString(m[1])

	rr, cookies = send(h, httptest.NewRequest("GET", "/?code=good&state="+state, nil), cookies)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("callback status = %d", rr.Code)
	}

	rr, cookies = send(h, httptest.NewRequest("GET", "/reports", nil), cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("reports status = %d, want 200 after login", rr.Code)
	}
	assertContains(t, rr.Body.String(), "Successfully logged in!")

	rr, _ = send(h, httptest.NewRequest("GET", "/reports", nil), cookies)
	if strings.Contains(rr.Body.String(), "Successfully logged in!") {
		t.Error("flash shown twice")
	}
}

func TestLoadCSRFKey(t *testing.T) {
	tests := []struct {
		name       string
		hex        string
		production bool
		wantErr    error
	}{
		{"valid", strings.Repeat("0f", 32), true, nil},
		{"short", "abcd", false, ErrBadCSRFKey},
		{"not hex", strings.Repeat("zz", 32), false, ErrBadCSRFKey},
		{"missing in production", "", true, ErrCSRFKeyRequired},
		{"random in development", "", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := LoadCSRFKey(tt.hex, tt.production)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && len(key) != 32 {
				t.Errorf("key length = %d, want 32", len(key))
			}
		})
	}
}

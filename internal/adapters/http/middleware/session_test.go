package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sessionStore "ays/internal/adapters/storage/session"
	"ays/internal/domain/session"
)

// TestSessions_CreatesAnonymousSession verifies a first visit gets a cookie and a logged-out session.
func TestSessions_CreatesAnonymousSession(t *testing.T) {
	store := sessionStore.NewMemoryStore()
	var seen *session.Session
	handler := Sessions(store, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetSessionFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if seen == nil {
		t.Fatal("no session in context")
	}
	if seen.LoggedIn() {
		t.Error("new session is logged in")
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || cookies[0].Value != seen.ID {
		t.Fatalf("cookies = %+v, want %s=%s", cookies, SessionCookieName, seen.ID)
	}
	if cookies[0].SameSite != http.SameSiteLaxMode || !cookies[0].HttpOnly {
		t.Errorf("cookie attributes = %+v, want HttpOnly SameSite=Lax", cookies[0])
	}
	if store.Len() != 1 {
		t.Errorf("stored sessions = %d, want 1", store.Len())
	}
}

// TestSessions_PersistsMutations verifies handler changes are visible on the next request.
func TestSessions_PersistsMutations(t *testing.T) {
	store := sessionStore.NewMemoryStore()
	handler := Sessions(store, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := GetSessionFromContext(r.Context())
		if r.URL.Path == "/set" {
			sess.SetFlash("success", "saved")
			return
		}
		w.Write([]byte(sess.TakeFlash().Message))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/set", nil))
	cookie := rr.Result().Cookies()[0]

	req := httptest.NewRequest("GET", "/read", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Body.String(); got != "saved" {
		t.Errorf("body = %q, want saved", got)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Error("existing session was issued a new cookie")
	}
}

// TestSessions_UnknownCookieStartsFresh verifies a stale id is replaced.
func TestSessions_UnknownCookieStartsFresh(t *testing.T) {
	store := sessionStore.NewMemoryStore()
	handler := Sessions(store, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "gone"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "gone" {
		t.Fatalf("cookies = %+v, want a fresh id", cookies)
	}
	if !cookies[0].Secure {
		t.Error("cookie not Secure in secure mode")
	}
}

func TestIsLoggedIn(t *testing.T) {
	if IsLoggedIn(context.Background()) {
		t.Error("empty context is logged in")
	}
	s := session.New("x", timeNow())
	s.State = session.StateAuthenticated
	if !IsLoggedIn(ContextWithSession(context.Background(), &s)) {
		t.Error("authenticated session not logged in")
	}
}

// loginHandler completes a pending login on /callback and reports the session on /whoami.
func loginHandler(explicitWrite bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := GetSessionFromContext(r.Context())
		switch r.URL.Path {
		case "/begin":
			sess.BeginLogin("https://idp.example.com/authorize", "st")
		case "/callback":
			sess.CompleteLogin(session.Profile{"name": "Ann"})
			if explicitWrite {
				http.Redirect(w, r, "/", http.StatusSeeOther)
			}
		}
	})
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookieName {
			found = c
		}
	}
	return found
}

// TestSessions_RotatesIDOnLogin verifies the pre-login id stops working once the session logs in.
func TestSessions_RotatesIDOnLogin(t *testing.T) {
	for _, explicitWrite := range []bool{true, false} {
		store := sessionStore.NewMemoryStore()
		handler := Sessions(store, false)(loginHandler(explicitWrite))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/begin", nil))
		before := sessionCookie(t, rr)
		if before == nil {
			t.Fatal("no cookie on first visit")
		}

		req := httptest.NewRequest("GET", "/callback", nil)
		req.AddCookie(before)
		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		after := sessionCookie(t, rr)
		if after == nil || after.Value == before.Value {
			t.Fatalf("explicitWrite=%v: cookie after login = %+v, want a new id", explicitWrite, after)
		}
		if !after.HttpOnly || after.SameSite != http.SameSiteLaxMode {
			t.Errorf("rotated cookie attributes = %+v", after)
		}

		if _, err := store.Get(context.Background(), before.Value); err == nil {
			t.Errorf("explicitWrite=%v: pre-login id still stored", explicitWrite)
		}
		got, err := store.Get(context.Background(), after.Value)
		if err != nil || !got.LoggedIn() {
			t.Errorf("explicitWrite=%v: new id = %+v, %v; want logged-in session", explicitWrite, got, err)
		}
	}
}

// TestSessions_NoRotationWithoutLogin verifies ordinary requests keep their id.
func TestSessions_NoRotationWithoutLogin(t *testing.T) {
	store := sessionStore.NewMemoryStore()
	handler := Sessions(store, false)(loginHandler(true))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/begin", nil))
	first := sessionCookie(t, rr)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(first)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if c := sessionCookie(t, rr); c != nil {
		t.Errorf("unexpected cookie %+v", c)
	}
	if store.Len() != 1 {
		t.Errorf("stored sessions = %d, want 1", store.Len())
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other client should pass")
	}
}

// TestRateLimiter_SteadyTrafficBelowLimit verifies tokens refill between requests that are
// closer together than one interval.
func TestRateLimiter_SteadyTrafficBelowLimit(t *testing.T) {
	rl := NewRateLimiter(10, time.Second)
	clock := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	denied := 0
	for i := 0; i < 30; i++ {
		if !rl.Allow("1.2.3.4") {
			denied++
		}
		clock = clock.Add(150 * time.Millisecond)
	}
	if denied != 0 {
		t.Errorf("denied %d of 30 requests at ~6.7 req/s with a 10 req/s limit", denied)
	}
}

// TestRateLimiter_BurstThenRecover verifies a drained bucket refills in proportion to elapsed time.
func TestRateLimiter_BurstThenRecover(t *testing.T) {
	rl := NewRateLimiter(4, time.Second)
	clock := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 4; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d of the burst refused", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fifth request in the same instant should be limited")
	}

	clock = clock.Add(500 * time.Millisecond)
	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Error("half an interval should refill two tokens")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("only two tokens should have refilled")
	}
}

func TestRateLimit_SkipsStatic(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	serve := func(path string) int {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		return rr.Code
	}
	if code := serve("/"); code != http.StatusOK {
		t.Fatalf("page status = %d", code)
	}
	for i := 0; i < 3; i++ {
		if code := serve("/static/site.css"); code != http.StatusOK {
			t.Errorf("static status = %d, want 200", code)
		}
	}
	if code := serve("/reports"); code != http.StatusTooManyRequests {
		t.Errorf("second page status = %d, want 429", code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

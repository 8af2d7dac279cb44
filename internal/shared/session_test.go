package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func cookieByName(res *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range res.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sess.Set("theme", "dark")
	sess.SetUser("7")

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	cookie := cookieByName(res, "test_session")
	if cookie == nil {
		t.Fatal("session cookie not set")
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	loaded, err := sm.Load(ctx, next)
	if err != nil {
		t.Fatalf("load again: %v", err)
	}
	if got := loaded.Get("theme"); got != "dark" {
		t.Fatalf("theme = %q, want dark", got)
	}
	if got := loaded.User(); got != "7" {
		t.Fatalf("user = %q, want 7", got)
	}
}

func TestPresenceCookieTracksToken(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := sm.Load(ctx, req)
	sess.SetToken("bearer-1")

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	presence := cookieByName(res, PresenceCookieName)
	if presence == nil || presence.Value != "1" {
		t.Fatalf("presence cookie = %+v, want value 1", presence)
	}
	if presence.HttpOnly {
		t.Fatal("presence cookie must be readable by the page")
	}

	// Clearing the token must expire the presence cookie on the next
	// commit while the session itself stays alive.
	sess.ClearToken()
	res2 := httptest.NewRecorder()
	if err := sm.Commit(ctx, res2, req, sess); err != nil {
		t.Fatalf("commit after clear: %v", err)
	}
	presence = cookieByName(res2, PresenceCookieName)
	if presence == nil || presence.MaxAge != -1 {
		t.Fatalf("presence cookie not expired: %+v", presence)
	}
	if session := cookieByName(res2, "test_session"); session == nil || session.MaxAge == -1 {
		t.Fatal("session cookie should survive a token clear")
	}
}

func TestDestroyExpiresBothCookies(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := sm.Load(ctx, req)
	sess.SetToken("bearer-1")

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}

	sm.Destroy(sess)
	res2 := httptest.NewRecorder()
	if err := sm.Commit(ctx, res2, req, sess); err != nil {
		t.Fatalf("commit destroy: %v", err)
	}

	for _, name := range []string{"test_session", PresenceCookieName} {
		c := cookieByName(res2, name)
		if c == nil || c.MaxAge != -1 {
			t.Fatalf("%s not expired: %+v", name, c)
		}
	}

	// The stored payload is gone, so the old cookie yields a fresh session.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookieByName(res, "test_session"))
	loaded, err := sm.Load(ctx, next)
	if err != nil {
		t.Fatalf("load after destroy: %v", err)
	}
	if loaded.Token() != "" {
		t.Fatal("token must not survive destroy")
	}
}

func TestFlashSurvivesOneRedirect(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodPost, "/accounts", nil)
	sess, _ := sm.Load(ctx, req)
	sess.AddFlash(FlashMessage{Kind: "error", Message: "boom"})

	res := httptest.NewRecorder()
	if err := sm.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	cookie := cookieByName(res, "test_session")

	// Redirect target pops the flash.
	next := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	next.AddCookie(cookie)
	loaded, _ := sm.Load(ctx, next)
	flash := loaded.PopFlash()
	if flash == nil || flash.Message != "boom" {
		t.Fatalf("flash = %+v, want boom", flash)
	}
	res2 := httptest.NewRecorder()
	if err := sm.Commit(ctx, res2, next, loaded); err != nil {
		t.Fatalf("commit pop: %v", err)
	}

	// A third request sees nothing.
	third := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	third.AddCookie(cookie)
	again, _ := sm.Load(ctx, third)
	if f := again.PopFlash(); f != nil {
		t.Fatalf("flash leaked: %+v", f)
	}
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm := newTestManager(t)
	cm := NewCSRFManager("csrfsecret")
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, _ := sm.Load(ctx, req)

	token, err := cm.EnsureToken(ctx, sess)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if err := cm.VerifyToken(ctx, sess, token); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := cm.VerifyToken(ctx, sess, "forged"); err == nil {
		t.Fatal("forged token accepted")
	}
	if err := cm.VerifyToken(ctx, sess, ""); err == nil {
		t.Fatal("missing token accepted")
	}
}

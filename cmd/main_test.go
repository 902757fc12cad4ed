package main

import (
	"bytes"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WinterTin/user-center/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func TestCookieSessionIsEncrypted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const email = "alice@example.com"

	store, err := newSessionStore(&config.Config{
		GinMode:       gin.TestMode,
		SessionSecret: "test-secret",
		SessionStore:  config.SessionStoreCookie,
		SessionMaxAge: 3600,
	}, slog.Default())
	if err != nil {
		t.Fatalf("newSessionStore error: %v", err)
	}

	r := gin.New()
	r.Use(sessions.Sessions(sessionCookieName, store))
	r.POST("/set", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set("email", email)
		_ = s.Save()
		c.Status(http.StatusOK)
	})
	r.GET("/get", func(c *gin.Context) {
		v, _ := sessions.Default(c).Get("email").(string)
		c.String(http.StatusOK, v)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/set", nil))
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one session cookie, got %d", len(cookies))
	}

	outer, err := base64.URLEncoding.DecodeString(cookies[0].Value)
	if err != nil {
		t.Fatalf("cookie is not securecookie encoded: %v", err)
	}
	for _, part := range bytes.Split(outer, []byte("|")) {
		inner, err := base64.URLEncoding.DecodeString(string(part))
		if err != nil {
			continue
		}
		if bytes.Contains(inner, []byte(email)) {
			t.Fatalf("session value readable from cookie")
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != email {
		t.Errorf("expected session to round trip, got %q", w.Body.String())
	}
}

func TestSessionKeys(t *testing.T) {
	keys := sessionKeys("s3cret")
	if len(keys) != 2 || string(keys[0]) != "s3cret" || len(keys[1]) != 32 {
		t.Fatalf("unexpected keys: %d", len(keys))
	}
	if bytes.Equal(sessionKeys("other")[1], keys[1]) {
		t.Errorf("block key must depend on the secret")
	}
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-admin/internal/adminapi"
	"github.com/mind-engage/mindengage-admin/internal/platform/logger"
	"github.com/mind-engage/mindengage-admin/internal/rbac"
	"github.com/mind-engage/mindengage-admin/internal/validation"
)

/* ---------------- fakes ---------------- */

type fakeUpstream struct {
	calls int
	res   adminapi.LoginResult
	err   error
}

func (f *fakeUpstream) Login(_ context.Context, req adminapi.LoginRequest) (adminapi.LoginResult, error) {
	f.calls++
	return f.res, f.err
}

func login(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

/* ---------------- tests ---------------- */

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("s3cret", time.Hour)
	tok, err := a.IssueJWT(Claims{Sub: "u1", Role: rbac.RoleEditor, Upstream: "up"})
	if err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if c.Sub != "u1" || c.Role != rbac.RoleEditor || c.Upstream != "up" {
		t.Fatalf("claims = %+v", c)
	}

	if _, err := NewAuthService("other", time.Hour).Parse(tok); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := a.Parse(tok); err == nil {
		t.Fatal("expired token must not parse")
	}
}

func TestLogin_LocalAdmin(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	up := &fakeUpstream{}
	a := NewAuthService("k", time.Hour)
	h := LoginHandler(a, up, LocalAdmin{Enabled: true, User: "root", PassHash: string(hash)}, validation.New(), logger.Nop())

	rec, out := login(t, h, `{"username":"root","password":"hunter22"}`)
	if rec.Code != http.StatusOK || up.calls != 0 {
		t.Fatalf("status %d calls %d body %s", rec.Code, up.calls, rec.Body)
	}
	c, err := a.Parse(out["access_token"].(string))
	if err != nil || !c.Local || c.Role != rbac.RoleAdmin || c.Upstream != "" {
		t.Fatalf("claims = %+v err = %v", c, err)
	}

	// wrong password falls through to the upstream
	up.err = &adminapi.APIError{Op: "login", Status: http.StatusUnauthorized}
	if rec, _ := login(t, h, `{"username":"root","password":"wrong-one"}`); rec.Code != http.StatusUnauthorized || up.calls != 1 {
		t.Fatalf("status %d calls %d", rec.Code, up.calls)
	}
}

func TestLogin_Upstream(t *testing.T) {
	up := &fakeUpstream{res: adminapi.LoginResult{
		User:  adminapi.User{ID: "42", Username: "lan", Role: "teacher"},
		Token: "upstream-token",
	}}
	a := NewAuthService("k", time.Hour)
	h := LoginHandler(a, up, LocalAdmin{}, validation.New(), logger.Nop())

	rec, out := login(t, h, `{"username":" lan ","password":"pass1234"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body)
	}
	c, err := a.Parse(out["access_token"].(string))
	if err != nil || c.Sub != "42" || c.Role != rbac.RoleEditor || c.Upstream != "upstream-token" {
		t.Fatalf("claims = %+v err = %v", c, err)
	}
	if out["role"] != rbac.RoleEditor {
		t.Fatalf("body = %v", out)
	}
}

func TestLogin_Rejections(t *testing.T) {
	cases := []struct {
		name string
		up   *fakeUpstream
		body string
		want int
	}{
		{"bad json", &fakeUpstream{}, `{`, http.StatusBadRequest},
		{"missing password", &fakeUpstream{}, `{"username":"a"}`, http.StatusUnprocessableEntity},
		{"student role", &fakeUpstream{res: adminapi.LoginResult{User: adminapi.User{ID: "1", Role: "student"}, Token: "t"}}, `{"username":"a","password":"pass"}`, http.StatusForbidden},
		{"upstream down", &fakeUpstream{err: &adminapi.APIError{Op: "login", Status: http.StatusInternalServerError}}, `{"username":"a","password":"pass"}`, http.StatusBadGateway},
	}
	for _, tc := range cases {
		h := LoginHandler(NewAuthService("k", time.Hour), tc.up, LocalAdmin{}, validation.New(), logger.Nop())
		if rec, _ := login(t, h, tc.body); rec.Code != tc.want {
			t.Errorf("%s: status %d, want %d (%s)", tc.name, rec.Code, tc.want, rec.Body)
		}
	}
}

func TestJWTMiddleware_PopulatesContext(t *testing.T) {
	a := NewAuthService("k", time.Hour)
	tok, _ := a.IssueJWT(Claims{Sub: "u9", Role: rbac.RoleAdmin, Upstream: "up-9"})

	var sub, role, upstream string
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub = SubjectFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
		upstream = adminapi.TokenFrom(r.Context())
		if ClaimsFromContext(r.Context()) == nil {
			t.Error("claims missing")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || sub != "u9" || role != rbac.RoleAdmin || upstream != "up-9" {
		t.Fatalf("status %d sub %q role %q upstream %q", rec.Code, sub, role, upstream)
	}

	for _, hdr := range []string{"", "Bearer nope", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", hdr)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status %d", hdr, rec.Code)
		}
	}
}

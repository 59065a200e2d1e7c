package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mind-engage/mindengage-admin/internal/course"
	"github.com/mind-engage/mindengage-admin/internal/platform/logger"
)

// maxBody caps how much of an upstream response is read.
const maxBody = 8 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTP overrides the default client (tests).
	HTTP *http.Client
}

// Client talks to the admin REST API. Every call is a single attempt; the
// caller's bearer token is taken from the context (see WithToken).
type Client struct {
	base *url.URL
	http *http.Client
	log  *logger.Logger
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("adminapi: base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("adminapi: base url %q must be http(s)", cfg.BaseURL)
	}
	h := cfg.HTTP
	if h == nil {
		h = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Timeout > 0 {
		// the caller's client may be shared
		hc := *h
		hc.Timeout = cfg.Timeout
		h = &hc
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{base: base, http: h, log: log.With("component", "adminapi")}, nil
}

/* ---------------- token plumbing ---------------- */

type tokenKey struct{}

// WithToken attaches the upstream bearer token used by calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey{}).(string)
	return s
}

/* ---------------- errors ---------------- */

// APIError is a non-2xx upstream answer.
type APIError struct {
	Op     string
	Status int
	Code   int
	Msg    string
}

func (e *APIError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: upstream %d: %s", e.Op, e.Status, msg)
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

/* ---------------- courses ---------------- */

func (c *Client) ListCourses(ctx context.Context) ([]CourseDTO, error) {
	var out []CourseDTO
	if err := c.do(ctx, "list courses", http.MethodGet, "/courses/getAllCourses", nil, nil, &out, "courses"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCourse(ctx context.Context, id string) (CourseDTO, error) {
	var out CourseDTO
	err := c.do(ctx, "get course", http.MethodGet, "/courses/getCourse/"+id, nil, nil, &out, "course")
	return out, err
}

// CreateCourse posts a finished wizard course. A 2xx answer means the course
// exists upstream even when the body cannot be read back, so decode problems
// only cost the echoed fields.
func (c *Client) CreateCourse(ctx context.Context, crs *course.Course) (CourseDTO, error) {
	in := FromCourse(crs)
	raw, err := c.send(ctx, "create course", http.MethodPost, "/courses/addCourse", nil, in)
	if err != nil {
		return CourseDTO{}, err
	}
	var out CourseDTO
	if len(raw) > 0 && json.Unmarshal(unwrap(raw, "course"), &out) == nil && out.CourseName != "" {
		return out, nil
	}
	in.CourseID = out.CourseID
	return in, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	return c.do(ctx, "delete course", http.MethodDelete, "/courses/deleteCourse/"+id, nil, nil, nil)
}

/* ---------------- subjects ---------------- */

func (c *Client) ListSubjects(ctx context.Context, page, limit int) (Page[Subject], error) {
	var out Page[Subject]
	err := c.do(ctx, "list subjects", http.MethodGet, "/subjects", pageQuery(page, limit), nil, &out, "subjects")
	return out, err
}

func (c *Client) GetSubject(ctx context.Context, id int64) (Subject, error) {
	var out Subject
	err := c.do(ctx, "get subject", http.MethodGet, subjectPath(id), nil, nil, &out, "subject")
	return out, err
}

// UpsertSubject creates a subject, or updates it when req.ID is set.
func (c *Client) UpsertSubject(ctx context.Context, req SubjectRequest) (Subject, error) {
	var out Subject
	err := c.do(ctx, "upsert subject", http.MethodPost, "/subjects/upsert", nil, req, &out, "subject")
	return out, err
}

func (c *Client) UpdateSubject(ctx context.Context, id int64, req SubjectRequest) (Subject, error) {
	req.ID = 0
	var out Subject
	err := c.do(ctx, "update subject", http.MethodPut, subjectPath(id), nil, req, &out, "subject")
	return out, err
}

func (c *Client) DeleteSubject(ctx context.Context, id int64) error {
	return c.do(ctx, "delete subject", http.MethodDelete, subjectPath(id), nil, nil, nil)
}

func subjectPath(id int64) string { return "/subjects/" + strconv.FormatInt(id, 10) }

/* ---------------- users ---------------- */

// Login exchanges credentials for the upstream token. Some deployments put
// the token inside the user object as userToken.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	var raw struct {
		Data struct {
			User
			UserToken string `json:"userToken"`
		} `json:"data"`
		Token string `json:"token"`
	}
	b, err := c.send(ctx, "login", http.MethodPost, "/user/login", nil, req)
	if err != nil {
		return LoginResult{}, err
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return LoginResult{}, fmt.Errorf("login: decode: %w", err)
	}
	res := LoginResult{User: raw.Data.User, Token: raw.Token}
	if res.Token == "" {
		res.Token = raw.Data.UserToken
	}
	if res.Token == "" {
		return LoginResult{}, &APIError{Op: "login", Status: http.StatusBadGateway, Msg: "no token in login response"}
	}
	return res, nil
}

// UserData is the profile of the signed-in user.
func (c *Client) UserData(ctx context.Context, id string) (User, error) {
	var out User
	err := c.do(ctx, "user data", http.MethodGet, "/user/getUserData/"+id, nil, nil, &out, "user")
	return out, err
}

func (c *Client) ListUsers(ctx context.Context, page, limit int) (Page[User], error) {
	var out Page[User]
	err := c.do(ctx, "list users", http.MethodGet, "/users", pageQuery(page, limit), nil, &out, "users")
	return out, err
}

func (c *Client) UserDetail(ctx context.Context, id string) (User, error) {
	var out User
	err := c.do(ctx, "user detail", http.MethodGet, "/users/"+id+"/detail", nil, nil, &out, "user")
	return out, err
}

// Ping reports whether the upstream answers at all; any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base.String(), nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

/* ---------------- transport ---------------- */

// do sends one request and decodes the answer into out, after unwrapping
// it from the {msg, code, data} envelope and then from each key in dig.
func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, in, out any, dig ...string) error {
	raw, err := c.send(ctx, op, method, path, q, in)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw, dig...), out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}

// send performs the request. in, when non-nil, is sent as JSON. Non-2xx
// answers become *APIError.
func (c *Client) send(ctx context.Context, op, method, path string, q url.Values, in any) ([]byte, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := TokenFrom(ctx); tok != "" {
		(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("upstream call failed", "op", op, "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	c.log.Debug("upstream call", "op", op, "method", method, "path", path,
		"status", res.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if res.StatusCode/100 != 2 {
		ae := &APIError{Op: op, Status: res.StatusCode}
		var env struct {
			envelope
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(raw, &env) == nil {
			ae.Code = env.Code
			ae.Msg = firstNonEmpty(env.Msg, env.Message, env.Error)
		}
		return nil, ae
	}
	return bytes.TrimSpace(raw), nil
}

// unwrap peels the envelope's data field and then each key in turn, stopping
// at the first level that is not an object or lacks the key.
func unwrap(raw json.RawMessage, keys ...string) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	var m map[string]json.RawMessage
	if isObject(raw) && json.Unmarshal(raw, &m) == nil {
		_, hasMsg := m["msg"]
		_, hasCode := m["code"]
		if d, ok := m["data"]; ok && (hasMsg || hasCode || len(m) == 1) {
			raw = bytes.TrimSpace(d)
		}
	}
	for _, k := range keys {
		if !isObject(raw) {
			break
		}
		var mm map[string]json.RawMessage
		if json.Unmarshal(raw, &mm) != nil {
			break
		}
		v, ok := mm[k]
		if !ok {
			break
		}
		raw = bytes.TrimSpace(v)
	}
	return raw
}

func isObject(b []byte) bool { return len(b) > 0 && b[0] == '{' }

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

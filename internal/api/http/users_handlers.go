package http

import (
	"context"
	"io"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-admin/internal/adminapi"
	authmw "github.com/mind-engage/mindengage-admin/internal/auth/middleware"
	"github.com/mind-engage/mindengage-admin/internal/export"
	"github.com/mind-engage/mindengage-admin/internal/rbac"
	"github.com/mind-engage/mindengage-admin/internal/validation"
)

type UserAPI interface {
	UserData(ctx context.Context, id string) (adminapi.User, error)
	ListUsers(ctx context.Context, page, limit int) (adminapi.Page[adminapi.User], error)
	UserDetail(ctx context.Context, id string) (adminapi.User, error)
}

// GET /users?page=&limit=
func ListUsersHandler(api UserAPI, v *validation.Validator) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		pq, err := readPage(r)
		if err != nil {
			writeErr(w, nethttp.StatusBadRequest, err.Error())
			return
		}
		if errs := v.Struct(pq); errs != nil {
			writeValidation(w, errs, nil)
			return
		}
		page, err := api.ListUsers(r.Context(), pq.Page, pq.Limit)
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		if page.Data == nil {
			page.Data = []adminapi.User{}
		}
		writeJSON(w, nethttp.StatusOK, page)
	}
}

// GET /users/{id}
func UserDetailHandler(api UserAPI) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		u, err := api.UserDetail(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, u)
	}
}

// GET /users/export
func ExportUsersHandler(api UserAPI) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		all, err := collectPages(r.Context(), func(ctx context.Context, page int) (adminapi.Page[adminapi.User], error) {
			return api.ListUsers(ctx, page, exportPageLimit)
		})
		if err != nil {
			writeUpstreamErr(w, err)
			return
		}
		writeWorkbook(w, "users.xlsx", func(w io.Writer) error {
			return export.WriteUsers(w, all)
		})
	}
}

type meResponse struct {
	User        adminapi.User `json:"user"`
	Role        string        `json:"role"`
	Permissions []string      `json:"permissions"`
	Local       bool          `json:"local"`
}

// GET /auth/me answers local sessions from the token and asks the upstream
// for everyone else.
func MeHandler(api UserAPI) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		c := authmw.ClaimsFromContext(r.Context())
		if c == nil {
			writeErr(w, nethttp.StatusUnauthorized, "unauthorized")
			return
		}
		res := meResponse{
			Role:        c.Role,
			Permissions: rbac.Default().Permissions(c.Role),
			Local:       c.Local,
		}
		if c.Local {
			res.User = adminapi.User{ID: adminapi.ID(c.Sub), Username: c.Name, Role: c.Role}
		} else {
			u, err := api.UserData(r.Context(), c.Sub)
			if err != nil {
				writeUpstreamErr(w, err)
				return
			}
			u.Role = c.Role
			res.User = u
		}
		writeJSON(w, nethttp.StatusOK, res)
	}
}

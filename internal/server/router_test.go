package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func tag(name string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		router := NewBasicRouter()
		router.Use(tag("first", &order), tag("second", &order))
		router.Handle(http.MethodGet, "/songs/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler:"+r.PathValue("id"))
		}), tag("route", &order))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/songs/42", nil))

		got := strings.Join(order, ",")
		if got != "first,second,route,handler:42" {
			t.Errorf("unexpected order %s", got)
		}
	})

	t.Run("Router Middleware Sees Unmatched Requests", func(t *testing.T) {
		var order []string
		router := NewBasicRouter()
		router.Use(tag("global", &order))
		router.Handle(http.MethodGet, "/a", http.NotFoundHandler(), tag("route", &order))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/b", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if strings.Join(order, ",") != "global" {
			t.Errorf("expected only router middleware to run, got %v", order)
		}
	})

	t.Run("Method Patterns", func(t *testing.T) {
		router := NewBasicRouter()
		ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
		router.Handler(handlerFunc(func() []Route {
			return []Route{
				{Method: http.MethodGet, Path: "/profile", Handler: ok},
				{Method: http.MethodPut, Path: "/profile", Handler: ok},
			}
		}))

		tc := []struct {
			method string
			want   int
		}{
			{http.MethodGet, http.StatusNoContent},
			{http.MethodPut, http.StatusNoContent},
			{http.MethodDelete, http.StatusMethodNotAllowed},
		}

		for _, tt := range tc {
			t.Run(tt.method, func(t *testing.T) {
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(tt.method, "/profile", nil))
				if rec.Code != tt.want {
					t.Errorf("%s /profile = %d, want %d", tt.method, rec.Code, tt.want)
				}
			})
		}
	})
}

type handlerFunc func() []Route

func (f handlerFunc) Routes() []Route { return f() }

package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()

		for name, r := range map[string]interface {
			Router
			http.Handler
		}{
			"ServeMux": http.NewServeMux(),
			"chi":      chi.NewRouter(),
		} {
			convey.Convey("When registering on "+name, func() {
				Register(ctx, r)

				convey.Convey("Then it should handle /openapi.yaml route", func() {
					req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
					w := httptest.NewRecorder()
					r.ServeHTTP(w, req)

					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
					convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
					convey.So(w.Body.Len(), convey.ShouldBeGreaterThan, 0)
				})

				convey.Convey("And it should handle /api-docs route", func() {
					req := httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody)
					w := httptest.NewRecorder()
					r.ServeHTTP(w, req)

					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
					convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
					convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
					convey.So(w.Body.String(), convey.ShouldContainSubstring, redocScript)
				})
			})
		}
	})
}

func TestOpenAPIDocument(t *testing.T) {
	convey.Convey("Given the embedded OpenAPI document", t, func() {
		var doc struct {
			OpenAPI string                    `yaml:"openapi"`
			Paths   map[string]map[string]any `yaml:"paths"`
		}
		err := yaml.Unmarshal(OpenAPI, &doc)

		convey.Convey("Then it parses and documents every public route", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(doc.OpenAPI, convey.ShouldStartWith, "3.")
			for _, p := range []string{
				"/match", "/allocations", "/allocations/{id}", "/allocations/{id}/history",
				"/hr_allocation", "/hr_allocation/{id}", "/employees", "/projects",
				"/healthz", "/stats", "/metrics",
			} {
				convey.So(doc.Paths, convey.ShouldContainKey, p)
			}
			convey.So(doc.Paths["/allocations"], convey.ShouldContainKey, "post")
			convey.So(doc.Paths["/allocations/{id}"], convey.ShouldContainKey, "delete")
		})
	})
}

package routes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"helpcrunch-live-chat/routes"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Health route", func() {
	serve := func(checks map[string]routes.HealthCheck) (*httptest.ResponseRecorder, map[string]interface{}) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		routes.SetupHealthRoutes(router, checks)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		var body map[string]interface{}
		decode(w, &body)
		return w, body
	}

	It("reports ok when every dependency answers", func() {
		w, body := serve(map[string]routes.HealthCheck{
			"mongo": func(context.Context) error { return nil },
		})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body).To(HaveKeyWithValue("status", "ok"))
		Expect(body["checks"]).To(HaveKeyWithValue("mongo", "ok"))
	})

	It("degrades when a dependency fails", func() {
		w, body := serve(map[string]routes.HealthCheck{
			"mongo": func(context.Context) error { return nil },
			"redis": func(context.Context) error { return errors.New("connection refused") },
		})
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(body).To(HaveKeyWithValue("status", "degraded"))
		Expect(body["checks"]).To(HaveKeyWithValue("redis", "connection refused"))
	})
})

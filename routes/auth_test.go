package routes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"helpcrunch-live-chat/models"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Auth routes", func() {
	var env *testEnv

	BeforeEach(func() {
		env = newTestEnv()
	})

	post := func(path string, body interface{}) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		return env.do(req)
	}

	It("rejects a wrong password", func() {
		w := post("/auth/login", map[string]string{"email": "admin@example.com", "password": "wrong-password"})
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring("invalid_credentials"))
	})

	It("logs in, refreshes and logs out", func() {
		w := post("/auth/login", map[string]string{"email": "ADMIN@example.com", "password": testPassword})
		Expect(w.Code).To(Equal(http.StatusOK))

		var login models.TokenPairResponse
		decode(w, &login)
		Expect(login.User.ID).To(Equal("1"))
		Expect(login.User.Capabilities).To(ContainElement(models.CapManageOptions))
		Expect(w.Result().Cookies()).NotTo(BeEmpty())

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+login.AccessToken)
		w = env.do(req)
		Expect(w.Code).To(Equal(http.StatusOK))
		var me models.UserInfo
		decode(w, &me)
		Expect(me.Email).To(Equal("admin@example.com"))

		w = post("/auth/refresh", map[string]string{"refresh_token": login.RefreshToken})
		Expect(w.Code).To(Equal(http.StatusOK))

		req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+login.AccessToken)
		w = env.do(req)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("rejects refresh without a token", func() {
		w := post("/auth/refresh", map[string]string{})
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"helpcrunch-live-chat/internal/events"
	"helpcrunch-live-chat/internal/hooks"
	"helpcrunch-live-chat/models"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Settings routes", func() {
	var (
		env   *testEnv
		admin string
	)

	BeforeEach(func() {
		env = newTestEnv()
		admin = env.tokenFor(1)
	})

	authed := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+admin)
		return req
	}

	postForm := func(values url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/settings/helpcrunch", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return env.do(authed(req))
	}

	postJSON := func(body interface{}) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/admin/settings/helpcrunch", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		return env.do(authed(req))
	}

	Describe("access control", func() {
		It("requires a session", func() {
			w := env.do(httptest.NewRequest(http.MethodGet, "/admin/settings/helpcrunch", nil))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("requires manage_options", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin/settings/helpcrunch", nil)
			req.Header.Set("Authorization", "Bearer "+env.tokenFor(2))
			w := env.do(req)
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(w.Body.String()).To(ContainSubstring("Access Denied"))
		})
	})

	Describe("GET settings page", func() {
		It("shows the onboarding state before integration", func() {
			w := env.do(authed(httptest.NewRequest(http.MethodGet, "/admin/settings/helpcrunch", nil)))
			Expect(w.Code).To(Equal(http.StatusOK))

			var page hooks.SettingsPage
			decode(w, &page)
			Expect(page.Slug).To(Equal("helpcrunch"))
			Expect(page.Status.Integrated).To(BeFalse())
			Expect(page.Status.SignupURL).NotTo(BeEmpty())
			Expect(page.Sections).To(HaveLen(2))
			_, hasDomain := page.Field("api_domain")
			Expect(hasDomain).To(BeFalse())
		})

		It("offers the domain field on test environment hosts", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin/settings/helpcrunch", nil)
			req.Host = "site.stage"
			w := env.do(authed(req))

			var page hooks.SettingsPage
			decode(w, &page)
			field, ok := page.Field("api_domain")
			Expect(ok).To(BeTrue())
			Expect(field.Value).To(Equal(models.DefaultAPIDomain))
		})
	})

	Describe("POST settings", func() {
		It("saves a form submission and redacts secrets in the response", func() {
			w := postForm(url.Values{
				"helpcrunch[api_code]":         {apiCode},
				"helpcrunch[show_chat_widget]": {"0", "1"},
			})
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp models.UpdateSettingsResponse
			decode(w, &resp)
			Expect(resp.Errors).To(BeEmpty())
			Expect(resp.Integrated).To(BeTrue())
			Expect(resp.Settings.ShowChatWidget).To(BeTrue())
			Expect(resp.Settings.APICode["application_secret"]).To(Equal("[REDACTED]"))
			Expect(resp.Settings.APICode["organization"]).To(Equal("acme"))

			record, err := env.store.Record(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(record.APICode["application_secret"]).To(Equal("app-secret"))

			Expect(env.published.Len()).To(Equal(1))
			Expect(env.published.Events[0].Key).To(Equal(events.SettingsUpdatedKey))
		})

		It("ignores a forwarded test host sent by the client on a production host", func() {
			values := url.Values{
				"helpcrunch[api_code]":   {apiCode},
				"helpcrunch[api_domain]": {"evil.example"},
			}
			req := httptest.NewRequest(http.MethodPost, "/admin/settings/helpcrunch", strings.NewReader(values.Encode()))
			req.Host = "shop.example.com"
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("X-Forwarded-Host", "anything.dev")
			w := env.do(authed(req))
			Expect(w.Code).To(Equal(http.StatusOK))

			record, err := env.store.Record(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(record.APIDomain).To(Equal(models.DefaultAPIDomain))

			head := httptest.NewRequest(http.MethodGet, "/embed/head", nil)
			head.Host = "shop.example.com"
			w = env.do(head)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("https://widget.helpcrunch.com"))
			Expect(w.Body.String()).NotTo(ContainSubstring("evil.example"))
		})

		It("reports an invalid API code but keeps the other fields", func() {
			w := postJSON(map[string]interface{}{
				"api_code":         "{not json",
				"show_chat_widget": true,
			})
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp models.UpdateSettingsResponse
			decode(w, &resp)
			Expect(resp.Integrated).To(BeFalse())
			Expect(resp.Settings.ShowChatWidget).To(BeTrue())
			Expect(resp.Errors).To(HaveLen(1))
			Expect(resp.Errors[0]).To(Equal(models.ValidationError{
				Setting: "helpcrunch[api_code]",
				Code:    "api_code",
				Message: "Invalid API Code",
				Type:    "error",
			}))
		})

		It("accepts the API code as a JSON object", func() {
			w := postJSON(map[string]interface{}{
				"api_code": map[string]interface{}{"organization": "acme", "application_id": "7"},
			})
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp models.UpdateSettingsResponse
			decode(w, &resp)
			Expect(resp.Errors).To(BeEmpty())
			Expect(resp.Integrated).To(BeTrue())
			Expect(resp.Settings.ShowChatWidget).To(BeFalse())
		})

		It("records the change in the audit history", func() {
			postForm(url.Values{"show_chat_widget": {"1"}})
			postForm(url.Values{"show_chat_widget": {"0"}})

			Eventually(func() int {
				w := env.do(authed(httptest.NewRequest(http.MethodGet, "/admin/settings/helpcrunch/history", nil)))
				var body struct {
					Events     []models.AuditEvent `json:"events"`
					ChainValid bool                `json:"chain_valid"`
				}
				decode(w, &body)
				if !body.ChainValid {
					return -1
				}
				return len(body.Events)
			}).Should(Equal(2))
		})
	})

	It("publishes the API code schema", func() {
		w := env.do(authed(httptest.NewRequest(http.MethodGet, "/admin/settings/helpcrunch/schema", nil)))
		Expect(w.Code).To(Equal(http.StatusOK))

		var schema map[string]interface{}
		decode(w, &schema)
		props, ok := schema["properties"].(map[string]interface{})
		Expect(ok).To(BeTrue())
		Expect(props).To(HaveKey("organization"))
		Expect(props).To(HaveKey("customer_authentication_secret"))
	})

	It("adds the settings action link", func() {
		w := env.do(authed(httptest.NewRequest(http.MethodGet, "/admin/plugins/action-links", nil)))
		Expect(w.Code).To(Equal(http.StatusOK))

		var body struct {
			Links []hooks.ActionLink `json:"links"`
		}
		decode(w, &body)
		Expect(body.Links).To(ContainElement(hooks.ActionLink{Label: "Settings", URL: "/admin/settings/helpcrunch"}))
	})
})

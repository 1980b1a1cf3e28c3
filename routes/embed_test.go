package routes_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"helpcrunch-live-chat/internal/widget"
	"helpcrunch-live-chat/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const apiCode = `{"organization":"acme","application_id":"7","application_secret":"app-secret","customer_authentication_secret":"k"}`

var _ = Describe("Embed routes", func() {
	var env *testEnv

	BeforeEach(func() {
		env = newTestEnv()
	})

	Context("before an API code is saved", func() {
		It("returns no head fragment", func() {
			w := env.do(httptest.NewRequest(http.MethodGet, "/embed/head", nil))
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Body.Len()).To(BeZero())
		})

		It("reports render false in the payload", func() {
			w := env.do(httptest.NewRequest(http.MethodGet, "/embed/payload", nil))
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp models.EmbedResponse
			decode(w, &resp)
			Expect(resp.Render).To(BeFalse())
			Expect(resp.Payload).To(BeNil())
			Expect(resp.Scheme).To(Equal("https"))
		})
	})

	Context("once integrated", func() {
		BeforeEach(func() {
			env.integrate(apiCode)
		})

		It("renders the loader and init scripts for anonymous visitors", func() {
			w := env.do(httptest.NewRequest(http.MethodGet, "/embed/head", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(HavePrefix("text/html"))

			doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
			Expect(err).NotTo(HaveOccurred())
			scripts := doc.Find("script")
			Expect(scripts.Length()).To(Equal(2))
			Expect(scripts.Eq(0).Text()).To(ContainSubstring("widget.helpcrunch.com"))

			init := scripts.Eq(1).Text()
			Expect(init).To(ContainSubstring(`"acme"`))
			Expect(init).To(ContainSubstring(`"applicationId":"7"`))
			Expect(init).To(ContainSubstring("HelpCrunch('showChatWidget')"))
			Expect(init).NotTo(ContainSubstring(`"user"`))
		})

		It("signs the id of a logged-in visitor", func() {
			req := httptest.NewRequest(http.MethodGet, "/embed/payload", nil)
			req.Header.Set("Authorization", "Bearer "+env.tokenFor(2))
			w := env.do(req)
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp models.EmbedResponse
			decode(w, &resp)
			Expect(resp.Render).To(BeTrue())
			Expect(resp.LoaderURL).To(Equal("https://widget.helpcrunch.com"))
			Expect(resp.Payload.Init.User).NotTo(BeNil())
			Expect(*resp.Payload.Init.User.UserID).To(Equal(int64(2)))
			Expect(resp.Payload.Init.User.Signature).To(Equal(widget.Signature(2, "k")))
			Expect(resp.Payload.Init.User.Email).To(Equal("reader@example.com"))
			Expect(resp.Payload.Init.User.Name).To(Equal("Reader"))
		})

		It("uses plain http on test environment hosts", func() {
			req := httptest.NewRequest(http.MethodGet, "/embed/payload", nil)
			req.Host = "shop.dev:8080"
			w := env.do(req)

			var resp models.EmbedResponse
			decode(w, &resp)
			Expect(resp.Scheme).To(Equal("http"))
			Expect(resp.LoaderURL).To(Equal("http://widget.helpcrunch.com"))
		})

		It("compresses the fragment with brotli when accepted", func() {
			req := httptest.NewRequest(http.MethodGet, "/embed/head", nil)
			req.Header.Set("Accept-Encoding", "gzip, br")
			w := env.do(req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Encoding")).To(Equal("br"))
			plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(plain)).To(ContainSubstring("HelpCrunch('init'"))
		})
	})
})

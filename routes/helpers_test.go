package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"helpcrunch-live-chat/internal/auth"
	"helpcrunch-live-chat/internal/events"
	"helpcrunch-live-chat/internal/hooks"
	"helpcrunch-live-chat/internal/options"
	"helpcrunch-live-chat/internal/plugin"
	"helpcrunch-live-chat/internal/settings"
	"helpcrunch-live-chat/internal/widget"
	"helpcrunch-live-chat/middleware"
	"helpcrunch-live-chat/models"
	"helpcrunch-live-chat/routes"
	"helpcrunch-live-chat/services"
	"helpcrunch-live-chat/utils"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

const testPassword = "correct-horse-battery"

type testEnv struct {
	router    *gin.Engine
	store     *settings.Store
	plugin    *plugin.Plugin
	tokens    *auth.Manager
	users     *services.MemoryUserStore
	published *events.Recorder
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := settings.NewStore(options.NewMemoryStore(), plugin.OptionName)
	renderer := widget.NewRenderer(store, nil)
	published := &events.Recorder{}
	p := plugin.New(store, renderer, published, "", nil)
	reg := hooks.NewRegistry()
	p.Register(reg)
	Expect(reg.Activate(ctx)).To(Succeed())

	tokens, err := auth.NewManager(strings.Repeat("a", 32), strings.Repeat("r", 32), nil)
	Expect(err).NotTo(HaveOccurred())

	users := services.NewMemoryUserStore()
	hash, err := utils.HashPassword(testPassword, 4)
	Expect(err).NotTo(HaveOccurred())
	Expect(users.Create(ctx, &models.User{ID: 1, Email: "admin@example.com", DisplayName: "Admin", PasswordHash: hash, Role: models.RoleAdministrator})).To(Succeed())
	Expect(users.Create(ctx, &models.User{ID: 2, Email: "reader@example.com", DisplayName: "Reader", PasswordHash: hash, Role: models.RoleSubscriber})).To(Succeed())

	authMW := middleware.NewAuthMiddleware(tokens, users, false)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestHostMiddleware(nil))
	routes.SetupEmbedRoutes(router, routes.EmbedDeps{
		Registry: reg,
		Resolver: renderer,
		Auth:     authMW,
	})
	routes.SetupSettingsRoutes(router, routes.SettingsDeps{
		Registry:    reg,
		Service:     p,
		Auth:        authMW,
		Audit:       models.NewAuditLogger(&models.MemoryAuditSink{}),
		OptionName:  plugin.OptionName,
		MaxFormSize: 64 * 1024,
	})
	routes.SetupAuthRoutes(router, routes.AuthDeps{
		Users:  users,
		Tokens: tokens,
		Auth:   authMW,
	})

	return &testEnv{router: router, store: store, plugin: p, tokens: tokens, users: users, published: published}
}

func (e *testEnv) tokenFor(id int64) string {
	user, err := e.users.FindByID(context.Background(), id)
	Expect(err).NotTo(HaveOccurred())
	pair, err := e.tokens.IssueTokenPair(context.Background(), *user)
	Expect(err).NotTo(HaveOccurred())
	return pair.AccessToken
}

func (e *testEnv) integrate(code string) {
	_, errs, err := e.plugin.UpdateSettings(context.Background(), "example.com", models.SettingsInput{
		APICode:        &code,
		ShowChatWidget: "1",
	}, nil, "")
	Expect(err).NotTo(HaveOccurred())
	Expect(errs).To(BeEmpty())
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v interface{}) {
	ExpectWithOffset(1, json.Unmarshal(w.Body.Bytes(), v)).To(Succeed())
}

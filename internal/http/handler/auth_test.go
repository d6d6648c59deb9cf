package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tenantgate.app/api-server/internal/http/handler"
	"tenantgate.app/api-server/internal/http/middleware"
	"tenantgate.app/api-server/internal/model"
	"tenantgate.app/api-server/internal/session"
)

var _ = Describe("AuthHandler", func() {
	var (
		router   *gin.Engine
		authSvc  *mockAuthService
		orgSvc   *mockOrganizationService
		sessions *mockSessionStore
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		authSvc = &mockAuthService{}
		orgSvc = &mockOrganizationService{}
		sessions = &mockSessionStore{
			getByIDFn: func(_ context.Context, id int64) (*model.Session, error) {
				return &model.Session{ID: id, UserID: 10}, nil
			},
		}

		router = gin.New()
		h := handler.NewAuthHandler(authSvc, orgSvc, "http://dashboard.local", false)
		auth := router.Group("/auth")
		auth.GET("/login", h.Login)
		auth.GET("/callback", h.Callback)
		auth.POST("/logout", middleware.RequireSession(sessions), h.Logout)
	})

	Describe("Login", func() {
		It("sets a state cookie and redirects to the provider", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(Equal("https://auth.example.com/login"))
			Expect(w.Header().Get("Set-Cookie")).To(ContainSubstring("tenantgate_oauth_state"))
		})
	})

	Describe("Callback", func() {
		It("rejects a state mismatch", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=forged", nil)
			req.AddCookie(&http.Cookie{Name: "tenantgate_oauth_state", Value: "expected"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(ContainSubstring("auth_error=invalid_state"))
		})

		It("opens a session and redirects to the dashboard", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=s", nil)
			req.AddCookie(&http.Cookie{Name: "tenantgate_oauth_state", Value: "s"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusTemporaryRedirect))
			Expect(w.Header().Get("Location")).To(Equal("http://dashboard.local/dashboard"))

			var sessionCookie string
			for _, cookie := range w.Result().Cookies() {
				if cookie.Name == middleware.SessionCookieName {
					sessionCookie = cookie.Value
				}
			}
			Expect(sessionCookie).To(Equal("100"))
		})
	})

	Describe("Logout", func() {
		It("ends the session and clears the cookie", func() {
			var endedSession int64
			orgSvc.logoutFn = func(_ context.Context, st *session.State) error {
				endedSession = st.ID()
				return nil
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
			req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "100"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(endedSession).To(Equal(int64(100)))

			cookies := w.Result().Cookies()
			Expect(cookies).ToNot(BeEmpty())
			Expect(cookies[0].Name).To(Equal(middleware.SessionCookieName))
			Expect(cookies[0].MaxAge).To(BeNumerically("<", 0))
		})
	})
})

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tenantgate.app/api-server/internal/authbackend"
	"tenantgate.app/api-server/internal/http/handler"
	"tenantgate.app/api-server/internal/http/middleware"
	"tenantgate.app/api-server/internal/model"
	"tenantgate.app/api-server/internal/service"
	"tenantgate.app/api-server/internal/session"
)

var _ = Describe("OrganizationHandler", func() {
	var (
		router   *gin.Engine
		svc      *mockOrganizationService
		sessions *mockSessionStore
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		svc = &mockOrganizationService{}
		sessions = &mockSessionStore{
			getByIDFn: func(_ context.Context, id int64) (*model.Session, error) {
				return &model.Session{ID: id, UserID: 10}, nil
			},
		}

		router = gin.New()
		h := handler.NewOrganizationHandler(svc)
		group := router.Group("/api/v1/organizations")
		group.Use(middleware.RequireSession(sessions))
		{
			group.GET("", h.List)
			group.POST("/switch", h.Switch)
			group.GET("/members/me", h.Membership)
			group.POST("/members/me/notices", h.AcknowledgeNotices)
			group.POST("/members/invite", h.Invite)
			group.POST("/members/remove", h.Remove)
			group.POST("/members/roles", h.AssignRole)
			group.GET("/invitations", h.Invitations)
		}
	})

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "100"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("authentication", func() {
		It("rejects a request without a session cookie", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/organizations", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("List", func() {
		It("returns the user's organizations", func() {
			svc.organizationsFn = func(_ context.Context, st *session.State) ([]model.OrganizationData, error) {
				Expect(st.ID()).To(Equal(int64(100)))
				return []model.OrganizationData{{ID: "org_ext_1", Name: "acme", DisplayName: "Acme"}}, nil
			}

			w := do(http.MethodGet, "/api/v1/organizations", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("org_ext_1"))
		})

		It("surfaces authorization codes with a 401", func() {
			svc.organizationsFn = func(_ context.Context, _ *session.State) ([]model.OrganizationData, error) {
				return nil, &authbackend.AuthorizationError{Code: "USR", Domain: "auth"}
			}

			w := do(http.MethodGet, "/api/v1/organizations", nil)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(w.Body.String()).To(ContainSubstring("USR"))
		})
	})

	Describe("Switch", func() {
		It("switches into the requested organization", func() {
			svc.switchFn = func(_ context.Context, _ *session.State, orgExternalID string) (*model.Organization, error) {
				Expect(orgExternalID).To(Equal("org_ext_1"))
				return &model.Organization{ExternalID: "org_ext_1", Name: "acme"}, nil
			}

			w := do(http.MethodPost, "/api/v1/organizations/switch", gin.H{"organization_id": "org_ext_1"})
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("maps a membership failure to 403", func() {
			svc.switchFn = func(_ context.Context, _ *session.State, _ string) (*model.Organization, error) {
				return nil, service.ErrForbidden
			}

			w := do(http.MethodPost, "/api/v1/organizations/switch", gin.H{"organization_id": "org_ext_1"})
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("maps an unknown organization to 404", func() {
			svc.switchFn = func(_ context.Context, _ *session.State, _ string) (*model.Organization, error) {
				return nil, service.ErrOrganizationNotExist
			}

			w := do(http.MethodPost, "/api/v1/organizations/switch", gin.H{"organization_id": "org_ext_x"})
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("rejects a body without an organization id", func() {
			w := do(http.MethodPost, "/api/v1/organizations/switch", gin.H{})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Membership", func() {
		It("returns the caller's role and notice flags", func() {
			svc.membershipFn = func(_ context.Context, st *session.State) (*model.OrganizationMember, error) {
				Expect(st.ID()).To(Equal(int64(100)))
				return &model.OrganizationMember{Role: "member", LoginNoticeSeen: true}, nil
			}

			w := do(http.MethodGet, "/api/v1/organizations/members/me", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"login_notice_seen":true`))
			Expect(w.Body.String()).To(ContainSubstring(`"guide_notice_seen":false`))
		})

		It("maps an unscoped session to 403", func() {
			svc.membershipFn = func(_ context.Context, _ *session.State) (*model.OrganizationMember, error) {
				return nil, service.ErrForbidden
			}

			w := do(http.MethodGet, "/api/v1/organizations/members/me", nil)
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("AcknowledgeNotices", func() {
		It("passes the acknowledged flags through", func() {
			var gotLogin, gotGuide bool
			svc.acknowledgeNoticesFn = func(_ context.Context, _ *session.State, loginSeen, guideSeen bool) (*model.OrganizationMember, error) {
				gotLogin, gotGuide = loginSeen, guideSeen
				return &model.OrganizationMember{Role: "member", LoginNoticeSeen: loginSeen, GuideNoticeSeen: guideSeen}, nil
			}

			w := do(http.MethodPost, "/api/v1/organizations/members/me/notices", gin.H{
				"login_notice_seen": true,
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotLogin).To(BeTrue())
			Expect(gotGuide).To(BeFalse())
		})
	})

	Describe("Invite", func() {
		It("returns per-invitee results", func() {
			svc.inviteFn = func(_ context.Context, _ *session.State, invites []service.Invite) ([]service.InviteResult, error) {
				Expect(invites).To(HaveLen(2))
				return []service.InviteResult{
					{Email: "a@example.com", Invited: true, Message: "invitation sent"},
					{Email: "b@example.com", Message: "user is already a member of the organization"},
				}, nil
			}

			w := do(http.MethodPost, "/api/v1/organizations/members/invite", gin.H{
				"invitees": []gin.H{
					{"email": "a@example.com"},
					{"email": "b@example.com", "role": "admin"},
				},
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("already a member"))
		})

		It("rejects an invalid email", func() {
			w := do(http.MethodPost, "/api/v1/organizations/members/invite", gin.H{
				"invitees": []gin.H{{"email": "not-an-email"}},
			})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Remove", func() {
		It("reports whether anyone was removed", func() {
			svc.removeFn = func(_ context.Context, _ *session.State, emails []string) (bool, error) {
				Expect(emails).To(Equal([]string{"a@example.com"}))
				return true, nil
			}

			w := do(http.MethodPost, "/api/v1/organizations/members/remove", gin.H{
				"emails": []string{"a@example.com"},
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("true"))
		})
	})

	Describe("AssignRole", func() {
		It("returns the persisted role", func() {
			svc.assignRoleFn = func(_ context.Context, _ *session.State, email, role string) (string, error) {
				return "admin", nil
			}

			w := do(http.MethodPost, "/api/v1/organizations/members/roles", gin.H{
				"email": "a@example.com", "role": "admin",
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("admin"))
		})

		It("maps an unknown member to 404", func() {
			svc.assignRoleFn = func(_ context.Context, _ *session.State, _, _ string) (string, error) {
				return "", service.ErrUserNotExist
			}

			w := do(http.MethodPost, "/api/v1/organizations/members/roles", gin.H{
				"email": "ghost@example.com", "role": "admin",
			})
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Invitations", func() {
		It("maps a non-admin caller to 403", func() {
			svc.invitationsFn = func(_ context.Context, _ *session.State) ([]authbackend.Invitation, error) {
				return nil, service.ErrForbidden
			}

			w := do(http.MethodGet, "/api/v1/organizations/invitations", nil)
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})
})

package service_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tenantgate.app/api-server/internal/authbackend"
	"tenantgate.app/api-server/internal/model"
	"tenantgate.app/api-server/internal/service"
	"tenantgate.app/api-server/internal/store"
)

var _ = Describe("AuthService", func() {
	var (
		ctx      context.Context
		backend  *mockBackend
		users    *mockUserStore
		sessions *mockSessionStore
		svc      service.AuthService
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = &mockBackend{}
		users = &mockUserStore{}
		sessions = &mockSessionStore{}
	})

	JustBeforeEach(func() {
		svc = service.NewAuthService(backend, users, sessions)
	})

	Describe("HandleCallback", func() {
		BeforeEach(func() {
			backend.handleCallbackFn = func(_ context.Context, code string) (*authbackend.Identity, error) {
				Expect(code).To(Equal("code_1"))
				return &authbackend.Identity{SubjectID: "user_ext_1", Email: "owner@example.com"}, nil
			}
		})

		It("opens an unscoped session for a known user", func() {
			users.getByExternalIDFn = func(_ context.Context, _ string) (*model.User, error) {
				return &model.User{ID: 10, ExternalID: "user_ext_1"}, nil
			}
			var created *model.Session
			sessions.createFn = func(_ context.Context, sess *model.Session) error {
				created = sess
				return nil
			}

			sess, err := svc.HandleCallback(ctx, "code_1")
			Expect(err).ToNot(HaveOccurred())
			Expect(sess.UserID).To(Equal(int64(10)))
			Expect(sess.OrganizationID).To(BeNil())
			Expect(created).ToNot(BeNil())
		})

		It("creates the user on first login", func() {
			var created *model.User
			users.createFn = func(_ context.Context, user *model.User) error {
				created = user
				return nil
			}

			_, err := svc.HandleCallback(ctx, "code_1")
			Expect(err).ToNot(HaveOccurred())
			Expect(created).ToNot(BeNil())
			Expect(created.ExternalID).To(Equal("user_ext_1"))
			Expect(created.Email).To(Equal("owner@example.com"))
		})

		It("absorbs a concurrent user create", func() {
			lookups := 0
			users.getByExternalIDFn = func(_ context.Context, _ string) (*model.User, error) {
				lookups++
				if lookups == 1 {
					return nil, store.ErrNotFound
				}
				return &model.User{ID: 10, ExternalID: "user_ext_1"}, nil
			}
			users.createFn = func(_ context.Context, _ *model.User) error {
				return store.ErrDuplicate
			}

			sess, err := svc.HandleCallback(ctx, "code_1")
			Expect(err).ToNot(HaveOccurred())
			Expect(sess.UserID).To(Equal(int64(10)))
		})

		It("fails when the code cannot be exchanged", func() {
			backend.handleCallbackFn = func(_ context.Context, _ string) (*authbackend.Identity, error) {
				return nil, fmt.Errorf("invalid code")
			}

			_, err := svc.HandleCallback(ctx, "code_1")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("LoginURL", func() {
		It("delegates to the backend", func() {
			backend.authorizationURLFn = func(state string) (string, error) {
				Expect(state).To(Equal("state_1"))
				return "https://auth.example.com/login", nil
			}

			url, err := svc.LoginURL("state_1")
			Expect(err).ToNot(HaveOccurred())
			Expect(url).To(Equal("https://auth.example.com/login"))
		})
	})
})

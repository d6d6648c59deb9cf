package authbackend_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tenantgate.app/api-server/internal/authbackend"
)

type stubBackend struct {
	authbackend.Backend
}

var _ = Describe("AuthorizationError", func() {
	It("carries the code and unwraps the cause", func() {
		cause := fmt.Errorf("token expired")
		err := &authbackend.AuthorizationError{Code: "USF", Domain: "auth", Err: cause}

		Expect(err.Error()).To(ContainSubstring("USF"))
		Expect(errors.Unwrap(err)).To(Equal(cause))
	})

	It("is recoverable through wrapping", func() {
		err := fmt.Errorf("listing organizations: %w",
			&authbackend.AuthorizationError{Code: "INS", Domain: "auth"})

		var authErr *authbackend.AuthorizationError
		Expect(errors.As(err, &authErr)).To(BeTrue())
		Expect(authErr.Code).To(Equal("INS"))
	})
})

var _ = Describe("IsDomainCode", func() {
	It("accepts the fixed code set", func() {
		for _, code := range []string{"USF", "USR", "INE001", "INE002", "INS"} {
			Expect(authbackend.IsDomainCode(code)).To(BeTrue(), code)
		}
	})

	It("rejects everything else", func() {
		Expect(authbackend.IsDomainCode("")).To(BeFalse())
		Expect(authbackend.IsDomainCode("USF2")).To(BeFalse())
	})
})

var _ = Describe("Registry", func() {
	It("reports no backend until one registers", func() {
		_, ok := authbackend.Registered()
		Expect(ok).To(BeFalse())

		plugin := &stubBackend{}
		authbackend.Register(plugin)

		registered, ok := authbackend.Registered()
		Expect(ok).To(BeTrue())
		Expect(registered).To(BeIdenticalTo(plugin))
	})
})

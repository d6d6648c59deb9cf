package cache_test

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"tenantgate.app/api-server/internal/cache"
)

var _ = Describe("RedisMembershipCache", func() {
	var (
		ctx    context.Context
		server *miniredis.Miniredis
		client *redis.Client
		c      cache.MembershipCache
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		server, err = miniredis.Run()
		Expect(err).ToNot(HaveOccurred())

		client = redis.NewClient(&redis.Options{Addr: server.Addr()})
		c = cache.NewRedisMembershipCache(client, "tenantgate")
	})

	AfterEach(func() {
		Expect(client.Close()).To(Succeed())
		server.Close()
	})

	Describe("GetUserOrganizations", func() {
		It("reports a miss for an unknown user", func() {
			orgIDs, ok, err := c.GetUserOrganizations(ctx, "user_1")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(orgIDs).To(BeNil())
		})

		It("distinguishes an empty set from a miss", func() {
			Expect(c.SetUserOrganizations(ctx, "user_1", nil)).To(Succeed())

			orgIDs, ok, err := c.GetUserOrganizations(ctx, "user_1")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(orgIDs).To(BeEmpty())
		})

		It("returns what was stored", func() {
			Expect(c.SetUserOrganizations(ctx, "user_1", []string{"org_a", "org_b"})).To(Succeed())

			orgIDs, ok, err := c.GetUserOrganizations(ctx, "user_1")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(orgIDs).To(Equal([]string{"org_a", "org_b"}))
		})
	})

	Describe("SetUserOrganizations", func() {
		It("replaces the stored set wholesale", func() {
			Expect(c.SetUserOrganizations(ctx, "user_1", []string{"org_a", "org_b"})).To(Succeed())
			Expect(c.SetUserOrganizations(ctx, "user_1", []string{"org_c"})).To(Succeed())

			orgIDs, ok, err := c.GetUserOrganizations(ctx, "user_1")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(orgIDs).To(Equal([]string{"org_c"}))
		})

		It("keeps users isolated", func() {
			Expect(c.SetUserOrganizations(ctx, "user_1", []string{"org_a"})).To(Succeed())

			_, ok, err := c.GetUserOrganizations(ctx, "user_2")
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("active markers", func() {
		isActive := func(user, org string) bool {
			active, err := c.IsActive(ctx, user, org)
			Expect(err).ToNot(HaveOccurred())
			return active
		}

		It("is absent until marked", func() {
			Expect(isActive("user_1", "org_a")).To(BeFalse())
		})

		It("is present after MarkActive", func() {
			Expect(c.MarkActive(ctx, "user_1", "org_a")).To(Succeed())
			Expect(isActive("user_1", "org_a")).To(BeTrue())
		})

		It("is scoped to the organization", func() {
			Expect(c.MarkActive(ctx, "user_1", "org_a")).To(Succeed())
			Expect(isActive("user_1", "org_b")).To(BeFalse())
		})

		It("holds a single organization per user", func() {
			Expect(c.MarkActive(ctx, "user_1", "org_a")).To(Succeed())
			Expect(c.MarkActive(ctx, "user_1", "org_b")).To(Succeed())

			Expect(isActive("user_1", "org_a")).To(BeFalse())
			Expect(isActive("user_1", "org_b")).To(BeTrue())
		})

		It("keeps users isolated", func() {
			Expect(c.MarkActive(ctx, "user_1", "org_a")).To(Succeed())
			Expect(c.MarkActive(ctx, "user_2", "org_b")).To(Succeed())

			Expect(isActive("user_1", "org_a")).To(BeTrue())
			Expect(isActive("user_2", "org_b")).To(BeTrue())
		})

		It("clears without error when absent", func() {
			Expect(c.ClearActive(ctx, "user_1", "org_a")).To(Succeed())
		})

		It("is absent after ClearActive", func() {
			Expect(c.MarkActive(ctx, "user_1", "org_a")).To(Succeed())
			Expect(c.ClearActive(ctx, "user_1", "org_a")).To(Succeed())

			Expect(isActive("user_1", "org_a")).To(BeFalse())
		})

		It("does not clear a marker that moved to another organization", func() {
			Expect(c.MarkActive(ctx, "user_1", "org_a")).To(Succeed())
			Expect(c.MarkActive(ctx, "user_1", "org_b")).To(Succeed())
			Expect(c.ClearActive(ctx, "user_1", "org_a")).To(Succeed())

			Expect(isActive("user_1", "org_b")).To(BeTrue())
		})
	})
})

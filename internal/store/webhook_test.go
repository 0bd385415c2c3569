package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/healthbridge/claims-reporter/internal/config"
	"github.com/healthbridge/claims-reporter/internal/store"
)

var _ = Describe("webhook store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db

		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM webhooks;")
	})

	Context("upsert", func() {
		It("registers a webhook for the owner", func() {
			webhook, err := s.Webhook().Upsert(context.TODO(), "user1", "org1", "https://example.com/hook")
			Expect(err).To(BeNil())
			Expect(webhook.URL).To(Equal("https://example.com/hook"))

			found, err := s.Webhook().Get(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())
			Expect(found.URL).To(Equal("https://example.com/hook"))
		})

		It("replaces the URL on re-registration, last write wins", func() {
			_, err := s.Webhook().Upsert(context.TODO(), "user1", "org1", "https://example.com/old")
			Expect(err).To(BeNil())

			_, err = s.Webhook().Upsert(context.TODO(), "user1", "org1", "https://example.com/new")
			Expect(err).To(BeNil())

			found, err := s.Webhook().Get(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())
			Expect(found.URL).To(Equal("https://example.com/new"))

			var count int64
			gormdb.Table("webhooks").Count(&count)
			Expect(count).To(Equal(int64(1)))
		})

		It("keeps registrations of different owners separate", func() {
			_, err := s.Webhook().Upsert(context.TODO(), "user1", "org1", "https://example.com/a")
			Expect(err).To(BeNil())
			_, err = s.Webhook().Upsert(context.TODO(), "user1", "org2", "https://example.com/b")
			Expect(err).To(BeNil())

			found, err := s.Webhook().Get(context.TODO(), "user1", "org2")
			Expect(err).To(BeNil())
			Expect(found.URL).To(Equal("https://example.com/b"))
		})
	})

	Context("get", func() {
		It("returns ErrRecordNotFound without a registration", func() {
			_, err := s.Webhook().Get(context.TODO(), "nobody", "org1")
			Expect(err).To(Equal(store.ErrRecordNotFound))
		})
	})
})

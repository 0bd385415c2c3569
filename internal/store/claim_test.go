package store_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/healthbridge/claims-reporter/internal/config"
	"github.com/healthbridge/claims-reporter/internal/store"
	"github.com/healthbridge/claims-reporter/internal/store/model"
)

const (
	insertClaimStm = "INSERT INTO claims (patient_name, diagnosis_code, procedure_code, claim_amount, status, submitted_at) VALUES ('%s', 'E11.9', '99213', %s, '%s', '2025-06-01 10:00:00');"
)

var _ = Describe("claim store", Ordered, func() {
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
		gormdb.Exec("DELETE FROM claims;")
	})

	Context("list", func() {
		It("returns all claims in submission order", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertClaimStm, "Ann", "100.50", "APPROVED"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertClaimStm, "Bob", "249.50", "DENIED"))
			Expect(tx.Error).To(BeNil())

			claims, err := s.Claim().List(context.TODO())
			Expect(err).To(BeNil())
			Expect(claims).To(HaveLen(2))
			Expect(claims[0].PatientName).To(Equal("Ann"))
			Expect(claims[0].Status).To(Equal(model.ClaimStatusApproved))
			Expect(claims[0].Amount.StringFixed(2)).To(Equal("100.50"))
			Expect(claims[1].PatientName).To(Equal("Bob"))
		})

		It("returns an empty snapshot without claims", func() {
			claims, err := s.Claim().List(context.TODO())
			Expect(err).To(BeNil())
			Expect(claims).To(BeEmpty())
		})
	})
})

package jobs_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/healthbridge/claims-reporter/internal/config"
	"github.com/healthbridge/claims-reporter/internal/jobs"
	"github.com/healthbridge/claims-reporter/internal/store"
	"github.com/healthbridge/claims-reporter/internal/store/model"
)

const (
	insertReportJobStm = "INSERT INTO report_jobs (id, status, username, org_id, created_at, updated_at) VALUES ('%s', '%s', 'user1', 'org1', '%s', '%s');"
	timeLayout         = "2006-01-02 15:04:05"
)

var _ = Describe("job reaper", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		reaper *jobs.Reaper
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db

		Expect(s.InitialMigration()).To(BeNil())

		reaper = jobs.NewReaper(s, 30*time.Minute)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM report_jobs;")
	})

	It("fails a PROCESSING job whose lease expired", func() {
		staleID := uuid.NewString()
		past := time.Now().UTC().Add(-time.Hour)
		tx := gormdb.Exec(fmt.Sprintf(insertReportJobStm, staleID, "PROCESSING",
			past.Format(timeLayout), past.Format(timeLayout)))
		Expect(tx.Error).To(BeNil())

		reaped, err := reaper.ReapOnce(context.TODO())
		Expect(err).To(BeNil())
		Expect(reaped).To(Equal(1))

		job, err := s.ReportJob().Get(context.TODO(), uuid.MustParse(staleID))
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(model.ReportJobStatusFailed))
		Expect(job.Error).NotTo(BeNil())
		Expect(*job.Error).To(ContainSubstring("lease expired"))
		Expect(job.CompletedAt).NotTo(BeNil())
	})

	It("leaves fresh PROCESSING jobs alone", func() {
		now := time.Now().UTC()
		freshID := uuid.NewString()
		tx := gormdb.Exec(fmt.Sprintf(insertReportJobStm, freshID, "PROCESSING",
			now.Format(timeLayout), now.Format(timeLayout)))
		Expect(tx.Error).To(BeNil())

		reaped, err := reaper.ReapOnce(context.TODO())
		Expect(err).To(BeNil())
		Expect(reaped).To(Equal(0))

		job, err := s.ReportJob().Get(context.TODO(), uuid.MustParse(freshID))
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(model.ReportJobStatusProcessing))
	})

	It("leaves QUEUED jobs alone no matter how old", func() {
		past := time.Now().UTC().Add(-2 * time.Hour)
		queuedID := uuid.NewString()
		tx := gormdb.Exec(fmt.Sprintf(insertReportJobStm, queuedID, "QUEUED",
			past.Format(timeLayout), past.Format(timeLayout)))
		Expect(tx.Error).To(BeNil())

		reaped, err := reaper.ReapOnce(context.TODO())
		Expect(err).To(BeNil())
		Expect(reaped).To(Equal(0))

		job, err := s.ReportJob().Get(context.TODO(), uuid.MustParse(queuedID))
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(model.ReportJobStatusQueued))
	})
})

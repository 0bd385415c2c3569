package store_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/healthbridge/claims-reporter/internal/config"
	"github.com/healthbridge/claims-reporter/internal/store"
	"github.com/healthbridge/claims-reporter/internal/store/model"
)

const (
	insertReportJobStm = "INSERT INTO report_jobs (id, status, username, org_id, created_at, updated_at) VALUES ('%s', '%s', '%s', '%s', '%s', '%s');"
)

var _ = Describe("report job store", Ordered, func() {
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
		gormdb.Exec("DELETE FROM report_jobs;")
	})

	Context("create and get", func() {
		It("creates a job in QUEUED state", func() {
			job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.ReportJobStatusQueued))
			Expect(job.ArtifactPath).To(BeNil())
			Expect(job.Error).To(BeNil())
			Expect(job.CompletedAt).To(BeNil())

			found, err := s.ReportJob().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(found.Username).To(Equal("user1"))
			Expect(found.OrgID).To(Equal("org1"))
		})

		It("returns ErrRecordNotFound for an unknown id", func() {
			_, err := s.ReportJob().Get(context.TODO(), uuid.New())
			Expect(err).To(Equal(store.ErrRecordNotFound))
		})
	})

	Context("transition", func() {
		It("walks the happy path to COMPLETED", func() {
			job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())

			job, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusProcessing)
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.ReportJobStatusProcessing))
			Expect(job.CompletedAt).To(BeNil())

			job, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusCompleted, store.WithArtifactPath("reports/claims_report_x.csv"))
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.ReportJobStatusCompleted))
			Expect(job.ArtifactPath).NotTo(BeNil())
			Expect(*job.ArtifactPath).To(Equal("reports/claims_report_x.csv"))
			Expect(job.CompletedAt).NotTo(BeNil())
			Expect(job.Error).To(BeNil())
		})

		It("records the failure cause on FAILED", func() {
			job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())

			_, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusProcessing)
			Expect(err).To(BeNil())

			job, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusFailed, store.WithJobError("claims snapshot failed"))
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.ReportJobStatusFailed))
			Expect(job.Error).NotTo(BeNil())
			Expect(*job.Error).To(Equal("claims snapshot failed"))
			Expect(job.ArtifactPath).To(BeNil())
			Expect(job.CompletedAt).NotTo(BeNil())
		})

		It("rejects skipping PROCESSING", func() {
			job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())

			_, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusCompleted)
			Expect(err).To(Equal(store.ErrInvalidTransition))
		})

		It("rejects leaving a terminal state", func() {
			job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())

			_, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusProcessing)
			Expect(err).To(BeNil())
			_, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusCompleted)
			Expect(err).To(BeNil())

			_, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusFailed)
			Expect(err).To(Equal(store.ErrInvalidTransition))
		})

		It("rejects a replayed transition", func() {
			job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())

			_, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusProcessing)
			Expect(err).To(BeNil())

			_, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusProcessing)
			Expect(err).To(Equal(store.ErrInvalidTransition))
		})

		It("rejects a transition back to QUEUED", func() {
			job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())

			_, err = s.ReportJob().Transition(context.TODO(), job.ID, model.ReportJobStatusQueued)
			Expect(err).To(Equal(store.ErrInvalidTransition))
		})

		It("returns ErrRecordNotFound for an unknown job", func() {
			_, err := s.ReportJob().Transition(context.TODO(), uuid.New(), model.ReportJobStatusProcessing)
			Expect(err).To(Equal(store.ErrRecordNotFound))
		})
	})

	Context("delete", func() {
		It("removes the record", func() {
			job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())

			Expect(s.ReportJob().Delete(context.TODO(), job.ID)).To(BeNil())

			_, err = s.ReportJob().Get(context.TODO(), job.ID)
			Expect(err).To(Equal(store.ErrRecordNotFound))
		})

		It("returns ErrRecordNotFound for an unknown job", func() {
			Expect(s.ReportJob().Delete(context.TODO(), uuid.New())).To(Equal(store.ErrRecordNotFound))
		})
	})

	Context("list queued", func() {
		It("returns only QUEUED jobs in creation order", func() {
			now := time.Now().UTC()
			first := uuid.NewString()
			second := uuid.NewString()

			tx := gormdb.Exec(fmt.Sprintf(insertReportJobStm, first, "QUEUED", "user1", "org1",
				now.Add(-2*time.Minute).Format("2006-01-02 15:04:05"), now.Format("2006-01-02 15:04:05")))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertReportJobStm, second, "QUEUED", "user1", "org1",
				now.Add(-time.Minute).Format("2006-01-02 15:04:05"), now.Format("2006-01-02 15:04:05")))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertReportJobStm, uuid.NewString(), "PROCESSING", "user1", "org1",
				now.Format("2006-01-02 15:04:05"), now.Format("2006-01-02 15:04:05")))
			Expect(tx.Error).To(BeNil())

			queued, err := s.ReportJob().ListQueued(context.TODO())
			Expect(err).To(BeNil())
			Expect(queued).To(HaveLen(2))
			Expect(queued[0].ID.String()).To(Equal(first))
			Expect(queued[1].ID.String()).To(Equal(second))
		})
	})

	Context("list stale", func() {
		It("returns only PROCESSING jobs older than the threshold", func() {
			now := time.Now().UTC()

			staleID := uuid.NewString()
			tx := gormdb.Exec(fmt.Sprintf(insertReportJobStm, staleID, "PROCESSING", "user1", "org1",
				now.Add(-2*time.Hour).Format("2006-01-02 15:04:05"), now.Add(-time.Hour).Format("2006-01-02 15:04:05")))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertReportJobStm, uuid.NewString(), "PROCESSING", "user1", "org1",
				now.Format("2006-01-02 15:04:05"), now.Format("2006-01-02 15:04:05")))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertReportJobStm, uuid.NewString(), "QUEUED", "user1", "org1",
				now.Add(-2*time.Hour).Format("2006-01-02 15:04:05"), now.Add(-time.Hour).Format("2006-01-02 15:04:05")))
			Expect(tx.Error).To(BeNil())

			stale, err := s.ReportJob().ListStale(context.TODO(), now.Add(-30*time.Minute))
			Expect(err).To(BeNil())
			Expect(stale).To(HaveLen(1))
			Expect(stale[0].ID.String()).To(Equal(staleID))
		})
	})
})

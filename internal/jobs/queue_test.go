package jobs_test

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/healthbridge/claims-reporter/internal/artifact"
	"github.com/healthbridge/claims-reporter/internal/config"
	"github.com/healthbridge/claims-reporter/internal/jobs"
	"github.com/healthbridge/claims-reporter/internal/notifier"
	"github.com/healthbridge/claims-reporter/internal/store"
	"github.com/healthbridge/claims-reporter/internal/store/model"
)

var _ = Describe("job queue", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		dir    string
		worker *jobs.ReportWorker
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

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "artifacts-*")
		Expect(err).To(BeNil())

		artifacts, err := artifact.NewFilesystemStore(dir)
		Expect(err).To(BeNil())

		worker = jobs.NewReportWorker(s, artifacts, notifier.New(s), nil, time.Minute)
	})

	AfterEach(func() {
		os.RemoveAll(dir)
		gormdb.Exec("DELETE FROM report_jobs;")
	})

	It("executes submitted jobs to completion", func() {
		queue := jobs.NewQueue(worker, 2, 10)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		queue.Start(ctx)

		submitted := []*model.ReportJob{}
		for i := 0; i < 3; i++ {
			job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
			Expect(err).To(BeNil())
			Expect(queue.Submit(context.TODO(), jobs.ReportArgs{JobID: job.ID, Username: job.Username, OrgID: job.OrgID})).To(BeNil())
			submitted = append(submitted, job)
		}

		for _, job := range submitted {
			jobID := job.ID
			Eventually(func() model.ReportJobStatus {
				current, err := s.ReportJob().Get(context.TODO(), jobID)
				if err != nil {
					return ""
				}
				return current.Status
			}, 5*time.Second, 50*time.Millisecond).Should(Equal(model.ReportJobStatusCompleted))
		}

		queue.Stop()
	})

	It("rejects submissions beyond capacity", func() {
		// no workers started, the channel fills up
		queue := jobs.NewQueue(worker, 1, 2)

		Expect(queue.Submit(context.TODO(), jobs.ReportArgs{JobID: uuid.New()})).To(BeNil())
		Expect(queue.Submit(context.TODO(), jobs.ReportArgs{JobID: uuid.New()})).To(BeNil())

		err := queue.Submit(context.TODO(), jobs.ReportArgs{JobID: uuid.New()})
		Expect(err).To(Equal(jobs.ErrQueueFull))
	})

	It("drains submitted jobs on Stop", func() {
		queue := jobs.NewQueue(worker, 1, 10)

		job, err := s.ReportJob().Create(context.TODO(), "user1", "org1")
		Expect(err).To(BeNil())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		queue.Start(ctx)

		Expect(queue.Submit(context.TODO(), jobs.ReportArgs{JobID: job.ID, Username: job.Username, OrgID: job.OrgID})).To(BeNil())
		queue.Stop()

		done, err := s.ReportJob().Get(context.TODO(), job.ID)
		Expect(err).To(BeNil())
		Expect(done.Status).To(Equal(model.ReportJobStatusCompleted))
	})
})

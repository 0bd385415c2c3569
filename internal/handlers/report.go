package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthbridge/claims-reporter/internal/auth"
	"github.com/healthbridge/claims-reporter/internal/service"
	"github.com/healthbridge/claims-reporter/pkg/requestid"
)

type ReportHandler struct {
	reportSrv *service.ReportService
	validate  *validator.Validate
}

func NewReportHandler(reportSrv *service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportSrv: reportSrv,
		validate:  validator.New(),
	}
}

func (h *ReportHandler) Routes(r chi.Router) {
	r.Post("/reports", h.CreateReportJob)
	r.Get("/reports/{id}", h.GetReportJob)
	r.Get("/reports/{id}/download", h.DownloadReport)
	r.Put("/webhooks", h.RegisterWebhook)
}

type JobResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
}

type ErrorResponse struct {
	Message   string  `json:"message"`
	RequestId *string `json:"request_id,omitempty"`
}

type WebhookRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

func (h *ReportHandler) CreateReportJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.MustHaveUser(ctx)

	job, err := h.reportSrv.CreateReportJob(ctx, user)
	if err != nil {
		switch err.(type) {
		case *service.ErrQueueFull:
			writeError(w, r, http.StatusServiceUnavailable, err)
		default:
			zap.S().Named("report_handler").Errorw("failed to create report job", "error", err)
			writeError(w, r, http.StatusInternalServerError, err)
		}
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, JobResponse{
		ID:        job.ID.String(),
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
	})
}

func (h *ReportHandler) GetReportJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.MustHaveUser(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	job, err := h.reportSrv.GetReportJob(ctx, id, user)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			writeError(w, r, http.StatusNotFound, err)
		case *service.ErrJobAccessForbidden:
			writeError(w, r, http.StatusForbidden, err)
		default:
			zap.S().Named("report_handler").Errorw("failed to get report job", "job_id", id, "error", err)
			writeError(w, r, http.StatusInternalServerError, err)
		}
		return
	}

	render.JSON(w, r, JobResponse{
		ID:          job.ID.String(),
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		Error:       job.Error,
	})
}

func (h *ReportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.MustHaveUser(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	content, err := h.reportSrv.DownloadReport(ctx, id, user)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			writeError(w, r, http.StatusNotFound, err)
		case *service.ErrJobAccessForbidden:
			writeError(w, r, http.StatusForbidden, err)
		case *service.ErrJobNotReady:
			writeError(w, r, http.StatusConflict, err)
		default:
			zap.S().Named("report_handler").Errorw("failed to open report artifact", "job_id", id, "error", err)
			writeError(w, r, http.StatusInternalServerError, err)
		}
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="claims_report_`+id.String()+`.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		zap.S().Named("report_handler").Warnw("artifact stream interrupted", "job_id", id, "error", err)
	}
}

func (h *ReportHandler) RegisterWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := auth.MustHaveUser(ctx)

	var req WebhookRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, service.NewErrInvalidWebhookURL(req.URL))
		return
	}

	if err := h.reportSrv.RegisterWebhook(ctx, user, req.URL); err != nil {
		zap.S().Named("report_handler").Errorw("failed to register webhook", "error", err)
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.NoContent(w, r)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Message: err.Error(), RequestId: requestid.FromContextPtr(r.Context())})
}

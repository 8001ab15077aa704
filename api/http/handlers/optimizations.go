package handlers

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/artem13815/hr-optimizer/api/http/presenter"
	"github.com/artem13815/hr-optimizer/pkg/jobdetails"
	"github.com/artem13815/hr-optimizer/pkg/logger"
	"github.com/artem13815/hr-optimizer/pkg/optimization"
	"github.com/artem13815/hr-optimizer/pkg/progress"
	"github.com/artem13815/hr-optimizer/pkg/security/jwt"
)

// OptimizationsHandler запускает пайплайн и стримит прогресс через SSE.
type OptimizationsHandler struct {
	uc          optimization.UseCase
	heartbeat   time.Duration
	maxLifetime time.Duration
}

func NewOptimizationsHandler(uc optimization.UseCase, heartbeat, maxLifetime time.Duration) *OptimizationsHandler {
	return &OptimizationsHandler{uc: uc, heartbeat: heartbeat, maxLifetime: maxLifetime}
}

type startOptimizationRequest struct {
	UploadedResumeID string `json:"uploadedResumeId"`
	JobURL           string `json:"jobUrl"`
	JobDescription   string `json:"jobDescription"`
}

// Start запускает оптимизацию загруженного резюме под вакансию.
// Ответ это поток text/event-stream: шаги started, extracting_details,
// parsing_resume, analyzing_description, optimizing_resume,
// calculating_metrics, затем completed или error. Между ними heartbeat.
// @Summary     Запустить оптимизацию резюме
// @Description Нужен jobUrl или jobDescription. Ошибки шагов приходят событием error с кодом.
// @Tags        Оптимизация
// @Accept      json
// @Produce     text/event-stream
// @Param       input body startOptimizationRequest true "resume and job"
// @Security    BearerAuth
// @Success     200 {object} progress.Event
// @Failure     400 {object} presenter.ErrorResponse
// @Failure     401 {object} presenter.ErrorResponse
// @Router      /optimizations [post]
func (h *OptimizationsHandler) Start(c *fiber.Ctx) error {
	var body startOptimizationRequest
	if err := c.BodyParser(&body); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	resumeID, err := uuid.Parse(strings.TrimSpace(body.UploadedResumeID))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "uploadedResumeId must be a UUID")
	}
	req := optimization.Request{
		UserID:           jwt.UserID(c),
		UploadedResumeID: resumeID,
		Job:              jobdetails.Input{URL: body.JobURL, Description: body.JobDescription},
	}
	// fasthttp переиспользует RequestCtx после возврата из хендлера,
	// поэтому в поток уходит только request id.
	ctx := logger.WithRequestID(context.Background(), logger.RequestID(c.UserContext()))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		h.stream(ctx, w, req)
	}))
	return nil
}

func (h *OptimizationsHandler) stream(ctx context.Context, w *bufio.Writer, req optimization.Request) {
	stream := progress.NewStream(w, progress.Options{
		Heartbeat:   h.heartbeat,
		MaxLifetime: h.maxLifetime,
		Logger:      slog.With("component", "sse", "uploaded_resume_id", req.UploadedResumeID.String()),
	})
	defer stream.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// ошибки уже ушли клиенту событием error
		_, _ = h.uc.Optimize(ctx, req, stream)
	}()
	select {
	case <-done:
	case <-stream.Done():
	}
}

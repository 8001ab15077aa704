package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/hr-optimizer/api/http/presenter"
	"github.com/artem13815/hr-optimizer/pkg/coverletter"
	"github.com/artem13815/hr-optimizer/pkg/optimization"
	"github.com/artem13815/hr-optimizer/pkg/render"
	"github.com/artem13815/hr-optimizer/pkg/security/jwt"
)

// OptimizedResumesHandler отвечает за чтение, анализ, выгрузку и удаление оптимизированных резюме.
type OptimizedResumesHandler struct {
	uc      optimization.UseCase
	letters coverletter.UseCase
}

func NewOptimizedResumesHandler(uc optimization.UseCase, letters coverletter.UseCase) *OptimizedResumesHandler {
	return &OptimizedResumesHandler{uc: uc, letters: letters}
}

// List
// @Summary Список оптимизированных резюме
// @Tags    Оптимизация
// @Produce json
// @Param   limit  query int false "page size (max 200)"
// @Param   offset query int false "offset"
// @Security BearerAuth
// @Success 200 {array} optimization.OptimizedResume
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /optimized-resumes [get]
func (h *OptimizedResumesHandler) List(c *fiber.Ctx) error {
	limit, offset := parseLimitOffset(c, 50)
	items, err := h.uc.List(c.UserContext(), jwt.UserID(c), limit, offset)
	if err != nil {
		return presenter.AppError(c, err)
	}
	if items == nil {
		items = []optimization.OptimizedResume{}
	}
	return presenter.JSON(c, http.StatusOK, items)
}

// Get
// @Summary Получить оптимизированное резюме
// @Tags    Оптимизация
// @Produce json
// @Param   id path string true "ID (UUID)"
// @Security BearerAuth
// @Success 200 {object} optimization.OptimizedResume
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /optimized-resumes/{id} [get]
func (h *OptimizedResumesHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	or, err := h.uc.Get(c.UserContext(), jwt.UserID(c), id)
	if err != nil {
		return presenter.AppError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, or)
}

// Analyze пересчитывает метрики соответствия для исходного и оптимизированного текста.
// @Summary Повторный анализ
// @Tags    Оптимизация
// @Produce json
// @Param   id path string true "ID (UUID)"
// @Security BearerAuth
// @Success 200 {object} optimization.Report
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /optimized-resumes/{id}/analyze [post]
func (h *OptimizedResumesHandler) Analyze(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	rep, err := h.uc.AnalyzeExisting(c.UserContext(), jwt.UserID(c), id)
	if err != nil {
		return presenter.AppError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, rep)
}

type coverLetterRequest struct {
	// Version of the optimized resume to write the letter for; empty means the given id.
	Version string `json:"version"`
}

// CoverLetter генерирует (или перегенерирует) сопроводительное письмо.
// @Summary Сгенерировать сопроводительное письмо
// @Tags    Сопроводительные письма
// @Accept  json
// @Produce json
// @Param   id    path string             true  "ID оптимизированного резюме (UUID)"
// @Param   input body coverLetterRequest false "source version"
// @Security BearerAuth
// @Success 201 {object} coverletter.CoverLetter
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Failure 504 {object} presenter.ErrorResponse
// @Router  /optimized-resumes/{id}/cover-letter [post]
func (h *OptimizedResumesHandler) CoverLetter(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	var body coverLetterRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
		}
	}
	cl, err := h.letters.Generate(c.UserContext(), jwt.UserID(c), id, strings.TrimSpace(body.Version))
	if err != nil {
		return presenter.AppError(c, err)
	}
	return presenter.JSON(c, http.StatusCreated, cl)
}

// GetVersion
// @Summary Версия оптимизированного резюме
// @Tags    Оптимизация
// @Produce json
// @Param   id      path string true "ID любого резюме из линии (UUID)"
// @Param   version path string true "major.minor"
// @Security BearerAuth
// @Success 200 {object} optimization.OptimizedResume
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /optimized-resumes/{id}/versions/{version} [get]
func (h *OptimizedResumesHandler) GetVersion(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	or, err := h.uc.GetVersion(c.UserContext(), jwt.UserID(c), id, c.Params("version"))
	if err != nil {
		return presenter.AppError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, or)
}

// Download
// @Summary Скачать оптимизированное резюме
// @Tags    Оптимизация
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Param   id     path  string true "ID (UUID)"
// @Param   format query string true "pdf | docx"
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /optimized-resumes/{id}/download [get]
func (h *OptimizedResumesHandler) Download(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	f, err := h.uc.Download(c.UserContext(), jwt.UserID(c), id, c.Query("format"))
	if err != nil {
		return presenter.AppError(c, err)
	}
	return sendFile(c, f)
}

// Delete
// @Summary Удалить оптимизированное резюме
// @Tags    Оптимизация
// @Param   id path string true "ID (UUID)"
// @Security BearerAuth
// @Success 204 {object} nil
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /optimized-resumes/{id} [delete]
func (h *OptimizedResumesHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), jwt.UserID(c), id); err != nil {
		return presenter.AppError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func sendFile(c *fiber.Ctx, f render.File) error {
	c.Attachment(f.Name)
	c.Set(fiber.HeaderContentType, f.ContentType)
	return c.Status(http.StatusOK).Send(f.Data)
}

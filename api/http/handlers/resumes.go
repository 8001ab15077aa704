package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/hr-optimizer/api/http/presenter"
	"github.com/artem13815/hr-optimizer/pkg/resume"
	"github.com/artem13815/hr-optimizer/pkg/security/jwt"
)

type ResumesHandler struct {
	uc       resume.UseCase
	maxBytes int64
}

func NewResumesHandler(uc resume.UseCase) *ResumesHandler {
	return &ResumesHandler{
		uc:       uc,
		maxBytes: 15 << 20, // 15MB
	}
}

// Upload загружает файл резюме, сохраняет его на диск и извлекает текст.
// @Summary Загрузить резюме
// @Description Принимает PDF/DOCX, сохраняет файл и извлекает текст для оптимизации.
// @Tags        Резюме
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "Файл резюме (PDF/DOCX)"
// @Security    BearerAuth
// @Success     201 {object} resume.Resume
// @Failure     400 {object} presenter.ErrorResponse
// @Failure     401 {object} presenter.ErrorResponse
// @Failure     422 {object} presenter.ErrorResponse
// @Failure     500 {object} presenter.ErrorResponse
// @Router      /resumes [post]
func (h *ResumesHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return presenter.Error(c, http.StatusBadRequest, "file is required (pdf or docx)")
	}
	if fh.Size > h.maxBytes {
		return presenter.Error(c, http.StatusBadRequest, fmt.Sprintf("file is larger than %d MB", h.maxBytes>>20))
	}
	file, err := fh.Open()
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "failed to read uploaded file")
	}
	if int64(len(data)) > h.maxBytes {
		return presenter.Error(c, http.StatusBadRequest, fmt.Sprintf("file is larger than %d MB", h.maxBytes>>20))
	}

	meta, err := h.uc.Upload(c.UserContext(), jwt.UserID(c), fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		return presenter.AppError(c, err)
	}
	return presenter.JSON(c, http.StatusCreated, meta)
}

// List возвращает резюме текущего пользователя.
// @Summary Список резюме
// @Tags    Резюме
// @Produce json
// @Param   limit  query int false "page size (max 200)"
// @Param   offset query int false "offset"
// @Security BearerAuth
// @Success 200 {array} resume.Resume
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /resumes [get]
func (h *ResumesHandler) List(c *fiber.Ctx) error {
	limit, offset := parseLimitOffset(c, 50)
	items, err := h.uc.List(c.UserContext(), jwt.UserID(c), limit, offset)
	if err != nil {
		return presenter.AppError(c, err)
	}
	if items == nil {
		items = []resume.Resume{}
	}
	return presenter.JSON(c, http.StatusOK, items)
}

type resumeResponse struct {
	Meta   resume.Resume `json:"meta"`
	Parsed string        `json:"parsed"`
}

// Get возвращает метаданные и извлечённый текст.
// @Summary Получить резюме
// @Tags    Резюме
// @Produce json
// @Param   id path string true "ID резюме (UUID)"
// @Security BearerAuth
// @Success 200 {object} resumeResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /resumes/{id} [get]
func (h *ResumesHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	meta, parsed, err := h.uc.Get(c.UserContext(), jwt.UserID(c), id)
	if err != nil {
		return presenter.AppError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, resumeResponse{Meta: meta, Parsed: parsed.Text})
}

// Delete удаляет резюме и файл на диске. Оптимизированные версии остаются.
// @Summary Удалить резюме
// @Tags    Резюме
// @Param   id path string true "ID резюме (UUID)"
// @Security BearerAuth
// @Success 204 {object} nil
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /resumes/{id} [delete]
func (h *ResumesHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), jwt.UserID(c), id); err != nil {
		return presenter.AppError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

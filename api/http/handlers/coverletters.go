package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/hr-optimizer/api/http/presenter"
	"github.com/artem13815/hr-optimizer/pkg/coverletter"
	"github.com/artem13815/hr-optimizer/pkg/security/jwt"
)

type CoverLettersHandler struct {
	uc coverletter.UseCase
}

func NewCoverLettersHandler(uc coverletter.UseCase) *CoverLettersHandler {
	return &CoverLettersHandler{uc: uc}
}

// Get
// @Summary Получить сопроводительное письмо
// @Tags    Сопроводительные письма
// @Produce json
// @Param   id path string true "ID письма (UUID)"
// @Security BearerAuth
// @Success 200 {object} coverletter.CoverLetter
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /cover-letters/{id} [get]
func (h *CoverLettersHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	cl, err := h.uc.Get(c.UserContext(), jwt.UserID(c), id)
	if err != nil {
		return presenter.AppError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, cl)
}

// GetVersion
// @Summary Версия сопроводительного письма
// @Tags    Сопроводительные письма
// @Produce json
// @Param   id      path string true "ID письма (UUID)"
// @Param   version path string true "major.minor"
// @Security BearerAuth
// @Success 200 {object} coverletter.HistoryEntry
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /cover-letters/{id}/versions/{version} [get]
func (h *CoverLettersHandler) GetVersion(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	entry, err := h.uc.GetVersion(c.UserContext(), jwt.UserID(c), id, c.Params("version"))
	if err != nil {
		return presenter.AppError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, entry)
}

// Download
// @Summary Скачать сопроводительное письмо
// @Tags    Сопроводительные письма
// @Produce application/pdf
// @Param   id     path  string true "ID письма (UUID)"
// @Param   format query string true "pdf | docx"
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /cover-letters/{id}/download [get]
func (h *CoverLettersHandler) Download(c *fiber.Ctx) error {
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
// @Summary Удалить сопроводительное письмо
// @Tags    Сопроводительные письма
// @Param   id path string true "ID письма (UUID)"
// @Security BearerAuth
// @Success 204 {object} nil
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /cover-letters/{id} [delete]
func (h *CoverLettersHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return presenter.AppError(c, err)
	}
	if err := h.uc.Delete(c.UserContext(), jwt.UserID(c), id); err != nil {
		return presenter.AppError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

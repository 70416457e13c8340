package handler

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace/internal/middleware"
	"marketplace/internal/usecase"
	"marketplace/internal/validator"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// すべてのレスポンスはこの形
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeOK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func writeFail(c echo.Context, status int, code usecase.ErrorCode, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message, Code: string(code)})
}

// usecaseのエラーをHTTPに変換
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			log.WithFields(log.Fields{
				"code":       he.Code,
				"err":        he.Err,
				"request_id": c.Get(middleware.CtxRequestIDKey),
			}).Error("request failed")
		}
		return c.JSON(he.Status, Envelope{
			Success: false,
			Message: he.Message,
			Code:    string(he.Code),
			Data:    he.Detail,
		})
	}
	if errors.Is(err, validator.ErrInvalidInput) {
		return writeFail(c, http.StatusBadRequest, usecase.CodeValidation, err.Error())
	}

	//500
	log.WithField("err", err).Error("unexpected error")
	return writeFail(c, http.StatusInternalServerError, usecase.CodeInternal, "internal error")
}

func unauthorized(c echo.Context) error {
	return writeFail(c, http.StatusUnauthorized, usecase.CodeUnauthorized, "unauthorized")
}

func badRequest(c echo.Context, message string) error {
	return writeFail(c, http.StatusBadRequest, usecase.CodeValidation, message)
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// page（default 1） / limit（default def）
func parsePaging(c echo.Context, def int) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("invalid page")
		}
		page = p
	}
	limit := def
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("invalid limit")
		}
		limit = l
	}
	return page, limit, nil
}

package common

import (
	"errors"
	"net/http"

	"github.com/anoixa/image-gallery/internal/errs"
	"github.com/anoixa/image-gallery/utils/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDKey 请求 ID 在 gin.Context 中的键
const RequestIDKey = "request_id"

type Response struct {
	Status string      `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", "", data)
}

// RespondSuccessMessage sends a success response with message and data.
func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, "success", message, data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	Respond(c, httpStatus, "error", message, nil)
}

// RespondErrorAbort sends an error response and aborts the handler chain.
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	RespondError(c, httpStatus, message)
	c.Abort()
}

// StatusForError 把服务层错误映射为 HTTP 状态码
func StatusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errs.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errs.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError 根据错误类型返回响应，服务端错误只返回概要信息
func RespondServiceError(c *gin.Context, err error) {
	status := StatusForError(err)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(err))
		RespondError(c, status, publicMessage(err))
	case status == http.StatusNotFound:
		RespondError(c, status, "Not found")
	default:
		RespondError(c, status, err.Error())
	}
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, errs.ErrStorageUnavailable):
		return "Storage unavailable"
	case errors.Is(err, errs.ErrStorageWriteFailed):
		return "Failed to store image"
	default:
		return "Internal server error"
	}
}

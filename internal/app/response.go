package app

import (
	"net/http"

	"lineLoad/internal/errors"

	"github.com/gin-gonic/gin"
)

// StandardResponse 统一API响应结构
type StandardResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"` // 机器可读错误码
}

// RespondJSON 发送成功的JSON响应
func RespondJSON[T any](c *gin.Context, code int, data T) {
	c.JSON(code, StandardResponse[T]{
		Success: code >= 200 && code < 300,
		Data:    data,
	})
}

// RespondError 发送错误响应（自动提取应用级错误码）
func RespondError(c *gin.Context, code int, err error) {
	RespondErrorWithData[any](c, code, err, nil)
}

// RespondErrorWithData 发送带数据的错误响应
// 检查失败时仍返回本轮结果，便于调用方查看哪些端点被禁用
func RespondErrorWithData[T any](c *gin.Context, code int, err error, data T) {
	resp := StandardResponse[T]{Success: false, Data: data, Error: "unknown error"}
	if err != nil {
		resp.Error = err.Error()
		resp.Code = string(errors.GetErrorCode(err))
	}
	c.JSON(code, resp)
}

// RespondErrorMsg 发送错误消息响应
func RespondErrorMsg(c *gin.Context, code int, message string) {
	c.JSON(code, StandardResponse[any]{
		Success: false,
		Error:   message,
	})
}

// statusForError 按错误码选择HTTP状态码
func statusForError(err error) int {
	switch errors.GetErrorCode(err) {
	case errors.ErrCodeOffline,
		errors.ErrCodeNoEndpointAvailable,
		errors.ErrCodePoolExhausted,
		errors.ErrCodeNotResolved:
		return http.StatusServiceUnavailable
	case errors.ErrCodeInvalidConfig, errors.ErrCodeMissingConfig:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

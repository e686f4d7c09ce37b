package common

import (
	"errors"
	"fmt"
)

// AppError 应用级错误结构
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewError 创建新错误
func NewError(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// HasCode 判断错误链上是否有指定错误码的 AppError
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// 错误码常量
const (
	ErrCodeStarredFetch = "STARRED_FETCH_ERROR" // 认证和公开两条路都拉不到 Star 列表
	ErrCodeDelivery     = "DELIVERY_ERROR"      // 邮件投递失败 (不记账，下轮重试)
	ErrCodeDatabase     = "DATABASE_ERROR"      // 记账写库失败 (邮件已发出，风险点)
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

package logic

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError 携带HTTP状态码的业务错误
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// errValidation 入参校验错误
func errValidation(format string, args ...interface{}) error {
	return &StatusError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// errState 当前实体状态不允许该操作
func errState(format string, args ...interface{}) error {
	return &StatusError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// errNotFound 实体不存在
func errNotFound(format string, args ...interface{}) error {
	return &StatusError{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

// errConflict 并发写入冲突
func errConflict(format string, args ...interface{}) error {
	return &StatusError{Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// HTTPStatus 映射错误到HTTP状态码，未知错误一律按500处理
func HTTPStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return http.StatusInternalServerError
}

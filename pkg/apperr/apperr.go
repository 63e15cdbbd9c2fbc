// Package apperr 定义服务内部统一的错误类别。
//
// 只有三类：validation（调用方输入有误）、dependency（Gmail、模型、数据库、MQ 等外部依赖失败）、
// internal（其他未预期的错误）。错误沿调用链原样向上传递，由 API 层映射为 HTTP 状态码。
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind string

const (
	KindValidation Kind = "validation"
	KindDependency Kind = "dependency"
	KindInternal   Kind = "internal"
)

// Error 带类别和操作名的错误
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E 包装 err；err 为 nil 时返回 nil
func E(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation 构造校验错误
func Validation(op, format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

// Dependency 包装外部依赖错误
func Dependency(op string, err error) error {
	return E(KindDependency, op, err)
}

// Internal 包装内部错误
func Internal(op string, err error) error {
	return E(KindInternal, op, err)
}

// KindOf 返回错误链中第一个显式类别；没有显式类别时按错误类型推断
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if IsDependencyError(err) {
		return KindDependency
	}
	return KindInternal
}

// Is 判断错误是否属于给定类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

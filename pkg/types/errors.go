package types

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              错误分类
// ============================================================================

// ErrorCode 错误类别
type ErrorCode int

const (
	// CodeOK 无错误
	CodeOK ErrorCode = iota
	// CodeInvalidArgument 调用方提供了空或不匹配的句柄
	CodeInvalidArgument
	// CodeResourceExhausted 创建节点时分配或传输对象创建失败
	CodeResourceExhausted
	// CodeTransportTransient 传输层临时错误（批次丢弃后由下次回调重试）
	CodeTransportTransient
	// CodeTeardownBlocked 参与者仍有子实体，拒绝删除
	CodeTeardownBlocked
	// CodeError 其他错误
	CodeError
)

// String 返回错误类别字符串
func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidArgument:
		return "invalid_argument"
	case CodeResourceExhausted:
		return "resource_exhausted"
	case CodeTransportTransient:
		return "transport_transient"
	case CodeTeardownBlocked:
		return "teardown_blocked"
	default:
		return "error"
	}
}

// ============================================================================
//                              句柄相关错误
// ============================================================================

var (
	// ErrInvalidArgument 无效参数
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIncorrectImplementation 句柄来自其他实现
	ErrIncorrectImplementation = fmt.Errorf("%w: implementation identifier mismatch", ErrInvalidArgument)

	// ErrInvalidGUID 无效 GUID
	ErrInvalidGUID = fmt.Errorf("%w: invalid GUID", ErrInvalidArgument)

	// ErrNodeDestroyed 节点已销毁
	ErrNodeDestroyed = fmt.Errorf("%w: node already destroyed", ErrInvalidArgument)
)

// ============================================================================
//                              生命周期相关错误
// ============================================================================

var (
	// ErrResourceExhausted 资源分配失败
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrTeardownBlocked 参与者仍有关联实体
	ErrTeardownBlocked = errors.New("teardown blocked: participant still has attached entities")

	// ErrClosed 对象已关闭
	ErrClosed = errors.New("closed")
)

// ============================================================================
//                              传输相关错误
// ============================================================================

var (
	// ErrNoData 无可用数据（不视为错误）
	ErrNoData = errors.New("no data available")

	// ErrTransportTransient 传输层临时错误
	ErrTransportTransient = errors.New("transport transient failure")

	// ErrReaderNotFound 内置读取器不存在
	ErrReaderNotFound = errors.New("builtin reader not found")
)

// ============================================================================
//                              图查询相关错误
// ============================================================================

// ErrNodeNotFound 域内不存在指定名称与命名空间的节点
var ErrNodeNotFound = errors.New("node name does not exist")

// Code 返回错误所属类别
func Code(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrResourceExhausted):
		return CodeResourceExhausted
	case errors.Is(err, ErrTeardownBlocked):
		return CodeTeardownBlocked
	case errors.Is(err, ErrTransportTransient):
		return CodeTransportTransient
	default:
		return CodeError
	}
}

// Package apperr defines the error taxonomy shared by all handlers and
// services. Every failure crossing a package boundary carries a Kind so
// callers can map it to behavior (HTTP status, retry policy) without
// string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind は障害の分類
type Kind int

const (
	// Unauthorized: caller identity missing or invalid.
	Unauthorized Kind = iota + 1
	// NotFound: referenced entity absent or not owned by the caller.
	NotFound
	// Validation: malformed request or missing prerequisite data.
	Validation
	// Configuration: required credential/setting absent. Fatal, never retried.
	Configuration
	// Upstream: an external provider returned a non-success result.
	Upstream
	// Internal: unexpected failure (persistence, encoding, ...).
	Internal
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	case Configuration:
		return "configuration"
	case Upstream:
		return "upstream"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// Error は分類付きエラー
type Error struct {
	Kind Kind
	Msg  string
	// UpstreamStatus/UpstreamBody are set for Upstream errors only and
	// carry the provider's response verbatim for diagnostics.
	UpstreamStatus int
	UpstreamBody   string
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New は分類とメッセージからエラーを作成
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap は既存のエラーを分類付きで包む
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// NewUpstream はプロバイダの失敗応答からエラーを作成
// ステータスコードと本文をそのまま保持する
func NewUpstream(status int, body string) *Error {
	return &Error{
		Kind:           Upstream,
		Msg:            fmt.Sprintf("provider returned %d: %s", status, body),
		UpstreamStatus: status,
		UpstreamBody:   body,
	}
}

// KindOf はエラーの分類を返す。分類不明なら Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind は err が指定の分類かどうかを返す
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus はエラー分類に対応するHTTPステータスコードを返す
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusUnprocessableEntity
	case Configuration:
		return http.StatusInternalServerError
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindCanceled     Kind = "canceled"
	KindInvalid      Kind = "invalid"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindServer       Kind = "server"
	KindRejected     Kind = "rejected"
	KindMalformed    Kind = "malformed"
)

// User-facing messages shown by the app for each failure class.
const (
	MsgNetwork      = "Không thể kết nối đến máy chủ. Vui lòng kiểm tra kết nối mạng."
	MsgCanceled     = "Yêu cầu đã bị hủy."
	MsgInvalid      = "Dữ liệu không hợp lệ hoặc hóa đơn đã tồn tại. Vui lòng kiểm tra lại."
	MsgUnauthorized = "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại."
	MsgForbidden    = "Bạn không có quyền thực hiện thao tác này."
	MsgNotFound     = "Không tìm thấy dữ liệu yêu cầu."
	MsgConflict     = "Hóa đơn cho kỳ này đã tồn tại."
	MsgServer       = "Máy chủ đang bận. Vui lòng thử lại sau."
	MsgMalformed    = "Phản hồi từ máy chủ không hợp lệ."
	MsgUnknown      = "Đã xảy ra lỗi. Vui lòng thử lại."
)

// Error is the normalized failure of a billing call.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("billing api: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("billing api: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the message to display.
func (e *Error) UserMessage() string { return e.Message }

// HTTPStatus returns the status a gateway should answer with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalid, KindRejected:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindCanceled:
		return 499
	case KindNetwork, KindMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

// IsStatus reports whether err is an *Error carrying the HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// Message extracts a displayable message from any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// statusError classifies a non-2xx response. The server message wins for
// 400 responses because it names the invalid field or the duplicate.
func statusError(status int, serverMsg string) *Error {
	e := &Error{Status: status}
	switch {
	case status == http.StatusBadRequest:
		e.Kind, e.Message = KindInvalid, MsgInvalid
		if serverMsg != "" {
			e.Message = serverMsg
		}
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, MsgUnauthorized
	case status == http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, MsgForbidden
	case status == http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, MsgNotFound
	case status == http.StatusConflict:
		e.Kind, e.Message = KindConflict, MsgConflict
	case status >= 500:
		e.Kind, e.Message = KindServer, MsgServer
	default:
		e.Kind, e.Message = KindRejected, MsgUnknown
		if serverMsg != "" {
			e.Message = serverMsg
		}
	}
	if serverMsg != "" {
		e.Err = errors.New(serverMsg)
	}
	return e
}

func transportError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &Error{Kind: KindCanceled, Message: MsgCanceled, Err: err}
	}
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

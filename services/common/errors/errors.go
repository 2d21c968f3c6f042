package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies a failure. Handlers render every kind the same way; the
// kind is reported in the body and used by consumers to decide what to log.
type Kind string

const (
	KindValidation           Kind = "ValidationError"
	KindNotFound             Kind = "NotFoundError"
	KindDownstream           Kind = "DownstreamError"
	KindUnsupportedOperation Kind = "UnsupportedOperationError"
	KindInternal             Kind = "InternalError"
)

// FailureMessage is the fixed top-level message of every error body.
const FailureMessage = "Failed to perform operation"

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinels like
// ErrNotFound work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind == e.Kind
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...), nil)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...), nil)
}

func Downstream(message string, err error) *Error {
	return New(KindDownstream, message, err)
}

func Unsupported(method string) *Error {
	return New(KindUnsupportedOperation, fmt.Sprintf("Unsupported route method: %q", method), nil)
}

// Kind sentinels for errors.Is.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrDownstream  = &Error{Kind: KindDownstream}
	ErrUnsupported = &Error{Kind: KindUnsupportedOperation}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Body is the flat failure payload.
type Body struct {
	Message      string `json:"message"`
	ErrorMessage string `json:"errorMessage"`
	ErrorKind    Kind   `json:"errorKind"`
	ErrorDetail  string `json:"errorDetail,omitempty"`
}

func BodyOf(err error) Body {
	b := Body{Message: FailureMessage, ErrorMessage: err.Error(), ErrorKind: KindOf(err)}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		b.ErrorMessage = appErr.Message
		if appErr.Err != nil {
			b.ErrorDetail = appErr.Err.Error()
		}
	}
	return b
}

// Respond writes the failure body with status 500 regardless of kind.
func Respond(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, BodyOf(err))
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		Respond(c, c.Errors.Last().Err)
	}
}

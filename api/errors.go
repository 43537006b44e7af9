package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/auth"
	"gitlab.com/lfmsh/bank/ledger"
)

type ProblemDetail struct {
	Type     string        `json:"type,omitempty" validate:"uri"`
	Status   int           `json:"status,omitempty"`
	Title    string        `json:"title,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty" validate:"uri"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

type ErrorDetail struct {
	Detail  string `json:"detail"`
	Pointer string `json:"pointer"`
}

type ProblemOption func(*ProblemDetail)

func NewProblemDetail(options ...ProblemOption) ProblemDetail {
	problem := ProblemDetail{Instance: "urn:uuid:" + uuid.NewString()}
	for _, option := range options {
		option(&problem)
	}
	return problem
}

func WithStatus(s int) ProblemOption {
	return func(p *ProblemDetail) {
		p.Status = s
		if p.Title == "" {
			p.Title = http.StatusText(s)
		}
	}
}

func WithTitle(t string) ProblemOption {
	return func(p *ProblemDetail) {
		p.Title = t
	}
}

func WithDetail(d string) ProblemOption {
	return func(p *ProblemDetail) {
		p.Detail = d
	}
}

func WithErrors(e []ErrorDetail) ProblemOption {
	return func(p *ProblemDetail) {
		p.Errors = e
	}
}

func NewValidationProblem(e error) ProblemDetail {
	return NewProblemDetail(
		WithStatus(http.StatusBadRequest),
		WithTitle("Input Validation Error"),
		WithDetail("Your request has invalid parameters."),
		WithErrors(readableErrors(e)),
	)
}

func readableErrors(err error) []ErrorDetail {
	var details []ErrorDetail
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			var detail string
			switch e.Tag() {
			case "required":
				detail = "is required"
			case "oneof":
				detail = "must be one of " + e.Param()
			case "min":
				detail = "must have at least " + e.Param() + " items"
			default:
				detail = "is invalid"
			}
			details = append(details, ErrorDetail{Detail: detail, Pointer: "#/" + strings.ToLower(e.Field())})
		}
	}
	return details
}

// statusOf maps a ledger or token error to an HTTP status.
func statusOf(err error) int {
	switch {
	case ledger.IsValidation(err),
		errors.Is(err, ledger.ErrInvalidTransition),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInactiveUser):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrBadCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrWrongTokenKind):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrUsernameTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// abortWithError writes err as a problem detail. Internal errors are logged
// and hidden from the caller.
func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		zlog.Ctx(c.Request.Context()).Error("request failed", zap.Error(err))
		detail = "internal server error"
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, NewProblemDetail(WithStatus(status), WithDetail(detail)))
}

func abortWithProblem(c *gin.Context, status int, detail string) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, NewProblemDetail(WithStatus(status), WithDetail(detail)))
}

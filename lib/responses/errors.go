package responses

import (
	"errors"
	"net/http"

	"github.com/counselhub/counselhub.go/common"
	"github.com/getsentry/sentry-go"
)

// ErrorResponse is the JSON shape every failed operation is reported in.
type ErrorResponse struct {
	Error          bool                      `json:"error"`
	Code           int                       `json:"code"`
	Message        string                    `json:"message"`
	Fields         []*common.ValidationError `json:"fields,omitempty"`
	HttpStatusCode int                       `json:"-"`
}

const (
	CodeServerError = iota + 1
	CodeValidation
	CodeNotFound
	CodeConflict
	CodeConcurrentUpdate
	CodeInsufficientFunds
	CodeInvalidState
)

var GeneralServerError = ErrorResponse{
	Error:          true,
	Code:           CodeServerError,
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: http.StatusInternalServerError,
}

var NotFoundError = ErrorResponse{
	Error:          true,
	Code:           CodeNotFound,
	Message:        "record not found",
	HttpStatusCode: http.StatusNotFound,
}

// FromError maps a domain error to its response. Unknown errors become
// GeneralServerError so internals never leak to callers.
func FromError(err error) ErrorResponse {
	var (
		validation common.ValidationErrors
		single     *common.ValidationError
		precision  *common.PrecisionLossError
		unique     *common.UniquenessViolation
		reference  *common.ReferentialIntegrityError
		cycle      *common.CycleError
		unbalanced *common.UnbalancedTransactionError
		concurrent *common.ConcurrentUpdateError
		funds      *common.InsufficientTrustFundsError
		state      *common.StateError
	)
	switch {
	case errors.As(err, &validation):
		return badRequest(CodeValidation, "validation failed", validation)
	case errors.As(err, &single):
		return badRequest(CodeValidation, "validation failed", common.ValidationErrors{single})
	case errors.As(err, &precision):
		return badRequest(CodeValidation, precision.Error(), common.ValidationErrors{
			common.NewValidationError(precision.Field, "precision", "%s", precision.Error()),
		})
	case errors.As(err, &cycle), errors.As(err, &unbalanced):
		return badRequest(CodeValidation, err.Error(), nil)
	case errors.Is(err, common.ErrNotFound):
		return NotFoundError
	case errors.As(err, &reference):
		return ErrorResponse{Error: true, Code: CodeNotFound, Message: reference.Error(), HttpStatusCode: http.StatusNotFound}
	case errors.As(err, &unique):
		return conflict(CodeConflict, unique.Error())
	case errors.As(err, &concurrent):
		return conflict(CodeConcurrentUpdate, concurrent.Error())
	case errors.As(err, &funds):
		return conflict(CodeInsufficientFunds, funds.Error())
	case errors.As(err, &state):
		return conflict(CodeInvalidState, state.Error())
	}
	return GeneralServerError
}

func badRequest(code int, message string, fields common.ValidationErrors) ErrorResponse {
	return ErrorResponse{Error: true, Code: code, Message: message, Fields: fields, HttpStatusCode: http.StatusBadRequest}
}

func conflict(code int, message string) ErrorResponse {
	return ErrorResponse{Error: true, Code: code, Message: message, HttpStatusCode: http.StatusConflict}
}

// isErrAllowedForSentry keeps caller mistakes out of Sentry. Only errors
// that map to a server error are reported.
func isErrAllowedForSentry(err error) bool {
	return FromError(err).HttpStatusCode >= http.StatusInternalServerError
}

// CaptureError reports err to Sentry unless it is a caller mistake.
func CaptureError(err error) {
	if err != nil && isErrAllowedForSentry(err) {
		sentry.CaptureException(err)
	}
}

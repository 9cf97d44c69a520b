package gatehouse

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an engine error onto the status code a handler should
// answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrTransactionFailure):
		return http.StatusInternalServerError
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrSubscriptionExpired):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrTenantMismatch):
		return http.StatusForbidden
	case errors.Is(err, ErrModuleNotFound),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrSubscriptionNotFound),
		errors.Is(err, ErrRoleNotFound),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRequirement),
		errors.Is(err, ErrUnknownRole),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrDuplicateModule),
		errors.Is(err, ErrInvalidModule),
		errors.Is(err, ErrUserRequired),
		errors.Is(err, ErrTenantRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ReasonOf extracts the guard reason wrapped in err, if any.
func ReasonOf(err error) Reason {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return ReasonUnauthenticated
	case errors.Is(err, ErrSubscriptionExpired):
		return ReasonSubscriptionExpired
	case errors.Is(err, ErrRoleDenied):
		return ReasonRoleDenied
	case errors.Is(err, ErrModuleDenied):
		return ReasonModuleDenied
	case errors.Is(err, ErrActionDenied):
		return ReasonActionDenied
	default:
		return ReasonNone
	}
}

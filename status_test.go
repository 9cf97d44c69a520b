package gatehouse

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	denied := (&Verdict{Stage: StageModule, Reason: ReasonActionDenied}).Err()
	expired := (&Verdict{Stage: StageSubscription, Reason: ReasonSubscriptionExpired}).Err()
	anon := (&Verdict{Stage: StageAuthentication, Reason: ReasonUnauthenticated}).Err()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"unauthenticated verdict", anon, http.StatusUnauthorized},
		{"expired subscription", expired, http.StatusPaymentRequired},
		{"action denied", denied, http.StatusForbidden},
		{"tenant mismatch", fmt.Errorf("%w: scope X", ErrTenantMismatch), http.StatusForbidden},
		{"module not found", fmt.Errorf("%w: %q", ErrModuleNotFound, "HR"), http.StatusNotFound},
		{"store conflict", fmt.Errorf("create: %w", ErrConflict), http.StatusConflict},
		{"duplicate module", fmt.Errorf("%w: %q", ErrDuplicateModule, "HR"), http.StatusBadRequest},
		{"unknown action", fmt.Errorf("%w: %q", ErrUnknownAction, "fly"), http.StatusBadRequest},
		{"transaction failure beats not found", fmt.Errorf("%w: %w", ErrTransactionFailure, ErrNotFound), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestReasonOf(t *testing.T) {
	err := (&Verdict{Stage: StageRole, Reason: ReasonRoleDenied}).Err()
	if got := ReasonOf(err); got != ReasonRoleDenied {
		t.Fatalf("expected %q, got %q", ReasonRoleDenied, got)
	}
	if got := ReasonOf(errors.New("boom")); got != ReasonNone {
		t.Fatalf("expected no reason, got %q", got)
	}
}

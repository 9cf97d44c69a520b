package gatehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/gatehouse/checklog"
	"github.com/xraph/gatehouse/id"
)

// Requirement describes what a route or operation demands of a principal.
// Empty fields are not checked.
type Requirement struct {
	Roles  []Role `json:"roles,omitempty"`
	Module string `json:"module,omitempty"`
	Action Action `json:"action,omitempty"`
}

// Validate rejects requirements that cannot be evaluated.
func (r Requirement) Validate() error {
	for _, role := range r.Roles {
		if !role.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidRequirement, ErrUnknownRole, string(role))
		}
	}
	if r.Action != "" {
		if r.Module == "" {
			return fmt.Errorf("%w: action %q without module", ErrInvalidRequirement, r.Action)
		}
		if !r.Action.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidRequirement, ErrUnknownAction, r.Action)
		}
	}
	return nil
}

// Evaluate runs the guard chain over a loaded snapshot. Stages run in order
// and the first failing stage decides the verdict:
//
//  1. an active principal must be present
//  2. the tenant's subscription must permit access (platform owners skip)
//  3. the principal must hold one of the required roles, if any
//  4. the module, then the action, must be accessible
func Evaluate(p *Principal, snap *Snapshot, req Requirement) *Verdict {
	if p == nil || !p.Active() {
		return deny(StageAuthentication, ReasonUnauthenticated)
	}
	if !p.IsPlatformOwner() && !snap.SubscriptionPermits() {
		return deny(StageSubscription, ReasonSubscriptionExpired)
	}
	if len(req.Roles) > 0 && !p.HasAnyRole(req.Roles...) {
		return deny(StageRole, ReasonRoleDenied)
	}
	if req.Module != "" {
		if !snap.CanAccessModule(p, req.Module) {
			return deny(StageModule, ReasonModuleDenied)
		}
		if req.Action != "" && !snap.CanPerform(p, req.Module, req.Action) {
			return deny(StageModule, ReasonActionDenied)
		}
	}
	return allow()
}

// Guard runs the guard chain for p. Policy denials are reported in the
// verdict; the error is non-nil only for invalid requirements and storage
// failures.
func (e *Engine) Guard(ctx context.Context, p *Principal, req Requirement) (*Verdict, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	if e.plugins != nil {
		e.plugins.EmitBeforeGuard(ctx, p, req)
	}

	var snap *Snapshot
	if p != nil && p.Active() {
		var err error
		snap, err = e.Snapshot(ctx, p)
		if err != nil {
			return nil, err
		}
	}

	v := Evaluate(p, snap, req)
	v.EvalTimeNs = time.Since(start).Nanoseconds()

	if !v.Allowed {
		e.logger.Debug("gatehouse: guard denied",
			"user_id", principalUserID(p),
			"module", req.Module,
			"action", string(req.Action),
			"reason", string(v.Reason),
			"stage", v.Stage.String(),
		)
	}
	e.audit(ctx, p, req, v)

	if e.plugins != nil {
		e.plugins.EmitAfterGuard(ctx, p, req, v)
	}
	return v, nil
}

// Enforce runs Guard and converts a deny verdict into an error wrapping
// ErrAccessDenied and the reason-specific sentinel.
func (e *Engine) Enforce(ctx context.Context, p *Principal, req Requirement) error {
	v, err := e.Guard(ctx, p, req)
	if err != nil {
		return fmt.Errorf("gatehouse guard: %w", err)
	}
	return v.Err()
}

// audit records the verdict in the check log. Failures are logged and
// never change the verdict.
func (e *Engine) audit(ctx context.Context, p *Principal, req Requirement, v *Verdict) {
	if v.Allowed && !e.config.AuditAllows {
		return
	}
	if !v.Allowed && !e.config.auditDenials() {
		return
	}
	entry := &checklog.Entry{
		ID:         id.NewCheckLogID(),
		UserID:     principalUserID(p),
		Module:     req.Module,
		Action:     string(req.Action),
		Decision:   string(v.Decision()),
		Reason:     string(v.Reason),
		Stage:      int(v.Stage),
		EvalTimeNs: v.EvalTimeNs,
		RequestIP:  requestIPFromContext(ctx),
		CreatedAt:  e.now().UTC(),
	}
	if p != nil {
		entry.TenantID = p.TenantID()
	}
	if err := e.store.CreateCheckLog(ctx, entry); err != nil {
		e.logger.Warn("gatehouse: failed to record check log",
			"user_id", entry.UserID,
			"error", err,
		)
	}
}

func principalUserID(p *Principal) string {
	if p == nil {
		return ""
	}
	return p.UserID()
}

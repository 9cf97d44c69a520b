package api

import "time"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error" description:"Error message"`
	Reason string `json:"reason,omitempty" description:"Guard reason code"`
}

// PrincipalResponse describes the authenticated caller.
type PrincipalResponse struct {
	UserID   string   `json:"userId" description:"User ID"`
	TenantID string   `json:"tenantId,omitempty" description:"Tenant ID"`
	Roles    []string `json:"roles" description:"Role names"`
}

// CheckResponse is the verdict of an access check.
type CheckResponse struct {
	Allowed    bool   `json:"allowed" description:"Whether access is allowed"`
	Decision   string `json:"decision" description:"allow or deny"`
	Reason     string `json:"reason,omitempty" description:"Deny reason code"`
	Stage      string `json:"stage,omitempty" description:"Guard stage that denied"`
	EvalTimeNs int64  `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// SubscriptionResponse is the subscription state of a tenant.
type SubscriptionResponse struct {
	Status  string     `json:"status" description:"Effective status"`
	EndDate *time.Time `json:"endDate,omitempty" description:"End of validity"`
}

// TenantModuleResponse is one entitlement row.
type TenantModuleResponse struct {
	ModuleCode string `json:"moduleCode" description:"Module code"`
	Active     bool   `json:"active" description:"Whether the entitlement is active"`
}

// ModulePermissionResponse is one grant row of a user.
type ModulePermissionResponse struct {
	ModuleCode  string   `json:"moduleCode" description:"Module code"`
	ModuleName  string   `json:"moduleName" description:"Module display name"`
	Active      bool     `json:"active" description:"Whether the grant is active"`
	Permissions []string `json:"permissions" description:"Granted actions"`
}

// SuccessResponse acknowledges a write.
type SuccessResponse struct {
	Success bool `json:"success" description:"Whether the write was applied"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}

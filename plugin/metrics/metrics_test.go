package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/account"
	"github.com/xraph/gatehouse/module"
	"github.com/xraph/gatehouse/store/memory"
	"github.com/xraph/gatehouse/subscription"
)

func setupEngine(t *testing.T) (*gatehouse.Engine, *Plugin) {
	t.Helper()
	ctx := context.Background()

	m := New(prometheus.NewRegistry())
	s := memory.New()
	eng, err := gatehouse.NewEngine(gatehouse.WithStore(s), gatehouse.WithPlugin(m))
	require.NoError(t, err)
	require.NoError(t, eng.Start(ctx))

	require.NoError(t, eng.CreateModule(ctx, &module.Module{Code: "FINANCE", Name: "Finance"}))
	_, err = eng.SetSubscription(ctx, "T", subscription.StatusActive, nil)
	require.NoError(t, err)
	require.NoError(t, eng.ReplaceEntitlements(ctx, "T", []gatehouse.EntitlementInput{
		{ModuleCode: "FINANCE", Active: true},
	}))
	require.NoError(t, s.CreateAccount(ctx, &account.Account{UserID: "U", TenantID: "T", Active: true}))
	require.NoError(t, eng.AssignRole(ctx, "U", gatehouse.RoleTenantUser, "setup"))
	require.NoError(t, eng.ReplaceModulePermissions(ctx, "U", []gatehouse.GrantInput{
		{ModuleCode: "FINANCE", Active: true, Actions: []string{"view"}},
	}))
	return eng, m
}

func TestGuardDecisionsAreCounted(t *testing.T) {
	ctx := context.Background()
	eng, m := setupEngine(t)

	p, err := eng.ResolvePrincipal(ctx, "U")
	require.NoError(t, err)

	require.NoError(t, eng.Enforce(ctx, p, gatehouse.Requirement{Module: "FINANCE", Action: gatehouse.ActionView}))
	err = eng.Enforce(ctx, p, gatehouse.Requirement{Module: "FINANCE", Action: gatehouse.ActionDelete})
	require.ErrorIs(t, err, gatehouse.ErrActionDenied)
	_, err = eng.Guard(ctx, nil, gatehouse.Requirement{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisionsTotal.WithLabelValues("allow", "", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisionsTotal.WithLabelValues("deny", string(gatehouse.ReasonActionDenied), "module")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisionsTotal.WithLabelValues("deny", string(gatehouse.ReasonUnauthenticated), "authentication")))
}

func TestWritePathIsCounted(t *testing.T) {
	ctx := context.Background()
	eng, m := setupEngine(t)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GrantReplacements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntitlementChanges))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriptionChanges.WithLabelValues("ACTIVE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogChangesTotal.WithLabelValues("create")))

	require.NoError(t, eng.ReplaceModulePermissions(ctx, "U", nil))
	_, err := eng.SetSubscription(ctx, "T", subscription.StatusSuspended, nil)
	require.NoError(t, err)
	require.NoError(t, eng.DeleteModule(ctx, "FINANCE"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GrantReplacements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriptionChanges.WithLabelValues("SUSPENDED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogChangesTotal.WithLabelValues("delete")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.OnGrantsReplaced(context.Background(), "U", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "gatehouse_grant_replacements_total 1"))
}

func TestAfterGuardIgnoresForeignVerdicts(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.OnAfterGuard(context.Background(), nil, nil, "not a verdict"))
	assert.Equal(t, 0, testutil.CollectAndCount(m.GuardDecisionsTotal))
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/retailcloud/retail-sdk/modules/core/domain/entities/tenant"
	"github.com/retailcloud/retail-sdk/pkg/composables"
	"github.com/retailcloud/retail-sdk/pkg/configuration"
	"github.com/retailcloud/retail-sdk/pkg/httpapi"
	"github.com/retailcloud/retail-sdk/pkg/metrics"
)

type Strategy string

const (
	StrategySubdomain    Strategy = "subdomain"
	StrategyCustomDomain Strategy = "custom_domain"
	StrategyHeader       Strategy = "header"
	StrategyTokenClaim   Strategy = "token_claim"
	StrategyAPIKey       Strategy = "api_key"
)

// tenantClaim is the JWT claim carrying the tenant slug. The claim is read
// without verifying the credential: resolution only selects the partition,
// authentication happens later against that partition.
const tenantClaim = "tid"

// TenantLookup is the registry read surface the resolver depends on. Every
// lookup is a pure read; resolution never mutates state.
type TenantLookup interface {
	GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	GetByHostname(ctx context.Context, hostname string) (*tenant.Tenant, error)
}

// Resolver determines the active tenant for a request by trying an ordered
// set of identification strategies; the first match wins.
type Resolver struct {
	registry TenantLookup
	conf     *configuration.Configuration
	now      func() time.Time
}

func NewResolver(registry TenantLookup, conf *configuration.Configuration) *Resolver {
	return &Resolver{
		registry: registry,
		conf:     conf,
		now:      time.Now,
	}
}

// Resolve runs the strategies in order. A nil tenant with a nil error means
// no strategy produced an identification.
func (rs *Resolver) Resolve(ctx context.Context, r *http.Request) (*tenant.Tenant, Strategy, error) {
	type attempt struct {
		strategy Strategy
		fn       func(context.Context, *http.Request) (*tenant.Tenant, error)
	}
	attempts := []attempt{
		{StrategySubdomain, rs.bySubdomain},
		{StrategyCustomDomain, rs.byCustomDomain},
		{StrategyHeader, rs.byHeader},
		{StrategyTokenClaim, rs.byTokenClaim},
		{StrategyAPIKey, rs.byAPIKey},
	}
	for _, a := range attempts {
		t, err := a.fn(ctx, r)
		if err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				continue
			}
			return nil, a.strategy, err
		}
		if t != nil {
			return t, a.strategy, nil
		}
	}
	return nil, "", nil
}

func (rs *Resolver) bySubdomain(ctx context.Context, r *http.Request) (*tenant.Tenant, error) {
	host := normalizeHost(r.Host)
	suffix := "." + strings.ToLower(rs.conf.Tenancy.BaseDomain)
	if !strings.HasSuffix(host, suffix) {
		return nil, nil
	}
	sub := strings.TrimSuffix(host, suffix)
	if sub == "" || strings.Contains(sub, ".") {
		return nil, nil
	}
	return rs.registry.GetBySlug(ctx, sub)
}

func (rs *Resolver) byCustomDomain(ctx context.Context, r *http.Request) (*tenant.Tenant, error) {
	host := normalizeHost(r.Host)
	if host == "" {
		return nil, nil
	}
	return rs.registry.GetByHostname(ctx, host)
}

func (rs *Resolver) byHeader(ctx context.Context, r *http.Request) (*tenant.Tenant, error) {
	v := strings.TrimSpace(r.Header.Get(rs.conf.Tenancy.TenantHeader))
	if v == "" {
		return nil, nil
	}
	t, err := rs.registry.GetBySlug(ctx, v)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, tenant.ErrNotFound) {
		return nil, err
	}
	id, parseErr := uuid.Parse(v)
	if parseErr != nil {
		return nil, tenant.ErrNotFound
	}
	return rs.registry.GetByID(ctx, id)
}

func (rs *Resolver) byTokenClaim(ctx context.Context, r *http.Request) (*tenant.Tenant, error) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, nil
	}
	raw := strings.TrimPrefix(auth, "Bearer ")
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, nil
	}
	slug, ok := claims[tenantClaim].(string)
	if !ok || slug == "" {
		return nil, nil
	}
	return rs.registry.GetBySlug(ctx, slug)
}

func (rs *Resolver) byAPIKey(ctx context.Context, r *http.Request) (*tenant.Tenant, error) {
	key := strings.TrimSpace(r.Header.Get(rs.conf.Tenancy.APIKeyHeader))
	if key == "" {
		return nil, nil
	}
	slug, _, found := strings.Cut(key, "_")
	if !found || slug == "" {
		return nil, nil
	}
	return rs.registry.GetBySlug(ctx, slug)
}

// Gate validates a resolved tenant's lifecycle status. Inactive and
// trial-expired tenants are rejected with distinct errors, never treated as
// unresolved.
func (rs *Resolver) Gate(t *tenant.Tenant) error {
	if t.TrialExpired(rs.now()) {
		return tenant.ErrTrialExpired.WithDetails("tenant %s", t.Slug())
	}
	if !t.Status().Usable() {
		return tenant.ErrInactive.WithDetails("tenant %s has status %s", t.Slug(), t.Status())
	}
	return nil
}

// ResolveTenant binds the active tenant for the lifetime of one request.
// Requests on the public-path allowlist proceed unbound when no strategy
// matches; everything else is rejected.
func ResolveTenant(registry TenantLookup) mux.MiddlewareFunc {
	conf := configuration.Use()
	resolver := NewResolver(registry, conf)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := composables.UseLogger(ctx)

			t, strategy, err := resolver.Resolve(ctx, r)
			if err != nil {
				logger.WithError(err).Error("tenant resolution failed")
				metrics.ObserveResolution(string(strategy), "error")
				_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
				return
			}

			if t == nil {
				if conf.IsPublicPath(r.URL.Path) {
					metrics.ObserveResolution("none", "public_path")
					next.ServeHTTP(w, r)
					return
				}
				logger.WithField("host", r.Host).Warn("no tenant identifiable for request")
				metrics.ObserveResolution("none", "unresolved")
				_ = httpapi.WriteDomainError(w, tenant.ErrUnresolved)
				return
			}

			if err := resolver.Gate(t); err != nil {
				logger.WithField("tenant", t.Slug()).WithError(err).Warn("tenant rejected by status gate")
				metrics.ObserveResolution(string(strategy), "rejected")
				_ = httpapi.WriteDomainError(w, err)
				return
			}

			metrics.ObserveResolution(string(strategy), "resolved")
			logger.WithFields(logrus.Fields{
				"tenant":   t.Slug(),
				"strategy": string(strategy),
			}).Debug("tenant resolved")

			ctx = composables.WithTenant(ctx, &composables.Tenant{
				ID:         t.ID(),
				Name:       t.Name(),
				Slug:       t.Slug(),
				SchemaName: t.SchemaName(),
			})
			ctx = composables.WithResolutionStrategy(ctx, string(strategy))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

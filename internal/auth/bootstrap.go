package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/domain"
	"github.com/spec-kit/volunteer-client/pkg/util"
)

// ProfileAPI is the slice of the platform API the bootstrapper probes.
type ProfileAPI interface {
	CurrentUser(ctx context.Context) (*domain.UserProfile, error)
	CurrentOrganisation(ctx context.Context) (*domain.Organisation, error)
}

// Resolution is a resolved role together with whatever profile the
// resolving probe already fetched.
type Resolution struct {
	Role         domain.Role
	User         *domain.UserProfile
	Organisation *domain.Organisation
}

// RoleResolver decides the principal's role for a token. The default
// implementation probes profile endpoints by capability; it sits behind an
// interface so a dedicated whoami endpoint can replace the probing without
// touching callers.
type RoleResolver interface {
	Resolve(ctx context.Context, claims *Claims) (Resolution, error)
}

// Bootstrapper turns a raw credential token into a typed Principal.
type Bootstrapper struct {
	api      ProfileAPI
	resolver RoleResolver
	logger   *zap.Logger
}

// NewBootstrapper builds a bootstrapper using capability probing.
func NewBootstrapper(api ProfileAPI, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		api:      api,
		resolver: &probeResolver{api: api, logger: logger},
		logger:   logger,
	}
}

// Bootstrap resolves the principal for the given token. The token is
// assumed present; callers short-circuit to anonymous when there is none.
// A returned error means the session could not be settled and the caller
// must fail closed.
func (b *Bootstrapper) Bootstrap(ctx context.Context, token string) (domain.Principal, error) {
	claims := DecodeClaims(token)
	if claims == nil {
		b.logger.Debug("token carries no decodable claims")
	}

	resolution, err := b.resolver.Resolve(ctx, claims)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("resolve role: %w", err)
	}

	principal := domain.Principal{
		Role:         resolution.Role,
		User:         resolution.User,
		Organisation: resolution.Organisation,
	}

	if resolution.Role == domain.RoleAdmin && resolution.User == nil {
		// Admins may or may not have a user profile; its absence is fine.
		if profile, err := b.api.CurrentUser(ctx); err == nil {
			principal.User = profile
		} else {
			b.logger.Debug("admin has no user profile", zap.Error(err))
		}
	}

	b.logger.Info("session bootstrapped", zap.String("role", string(principal.Role)))
	return principal, nil
}

// probeResolver infers the role by elimination: claims first, then the
// user-profile endpoint, then the organisation-profile endpoint, then a
// subject hint from the claims. A probe rejection is a signal, not an
// error, and is never retried.
type probeResolver struct {
	api    ProfileAPI
	logger *zap.Logger
}

func (r *probeResolver) Resolve(ctx context.Context, claims *Claims) (Resolution, error) {
	if claims.IsAdmin() {
		return Resolution{Role: domain.RoleAdmin}, nil
	}

	profile, err := r.api.CurrentUser(ctx)
	if err == nil {
		return Resolution{Role: domain.RoleUser, User: profile}, nil
	}
	if !util.IsRoleSignal(err) {
		return Resolution{}, fmt.Errorf("user profile probe: %w", err)
	}

	org, err := r.api.CurrentOrganisation(ctx)
	if err == nil {
		return Resolution{Role: domain.RoleOrganisation, Organisation: org}, nil
	}
	if !util.IsRoleSignal(err) {
		return Resolution{}, fmt.Errorf("organisation profile probe: %w", err)
	}

	if claims.SubjectHint() != "" {
		r.logger.Debug("both profile probes rejected, falling back to user via claims hint")
		return Resolution{Role: domain.RoleUser}, nil
	}
	return Resolution{Role: domain.RoleAnonymous}, nil
}

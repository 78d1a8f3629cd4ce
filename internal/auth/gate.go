package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"campus/lms/internal/model"
)

// Capability names an action an endpoint performs together with the fixed
// set of roles allowed to perform it. There is no role hierarchy: root does
// not imply professor and professor does not imply student. RequireActive
// additionally gates the capability on a live (non-pending, non-rejected)
// account; root is exempt from that check.
type Capability struct {
	Name          string
	Roles         []model.Role
	RequireActive bool
}

func (c Capability) allows(role model.Role) bool {
	for _, allowed := range c.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Denial is a terminal authorization failure. Status is always one of 401,
// 403 or 500; handlers never see anything more ambiguous.
type Denial struct {
	Status  int
	Code    string
	Message string
}

// Identity is the resolved principal attached to the request context after a
// successful decision. Status is the live value read during authorization,
// never the one implied by the token.
type Identity struct {
	ID     int64
	Email  string
	Role   model.Role
	Status model.Status
}

// PrincipalSource resolves a credential subject to the current user row.
// The gate calls it on every request so that approval or rejection takes
// effect immediately, without waiting for token expiry.
type PrincipalSource interface {
	GetUserByID(ctx context.Context, id int64) (model.User, error)
}

type Gate struct {
	secret string
	source PrincipalSource
}

func NewGate(secret string, source PrincipalSource) *Gate {
	return &Gate{secret: secret, source: source}
}

// request carries the per-decision state threaded through the predicate
// pipeline.
type request struct {
	header     string
	capability Capability
	claims     *Claims
	user       model.User
}

type predicate func(ctx context.Context, req *request) *Denial

// Authorize runs the decision procedure for one request: an ordered pipeline
// of named predicates, short-circuiting on the first denial. The bearer
// credential proves identity only; role and status are read live.
func (g *Gate) Authorize(ctx context.Context, authorization string, capability Capability) (Identity, *Denial) {
	req := &request{header: authorization, capability: capability}
	for _, step := range []predicate{
		g.checkConfigured,
		g.checkPresence,
		g.checkToken,
		g.checkLiveness,
		g.checkRole,
		g.checkProfessorApproval,
		g.checkActiveStatus,
	} {
		if denial := step(ctx, req); denial != nil {
			return Identity{}, denial
		}
	}
	return Identity{
		ID:     req.user.ID,
		Email:  req.user.Email,
		Role:   req.user.Role,
		Status: req.user.Status,
	}, nil
}

// checkConfigured fails closed if the gate was built without a signing
// secret. Config refuses to boot in that state, so this is a backstop, not a
// code path reachable through normal startup.
func (g *Gate) checkConfigured(_ context.Context, _ *request) *Denial {
	if g.secret == "" {
		return &Denial{Status: http.StatusInternalServerError, Code: "server_misconfigured", Message: "authentication is not configured"}
	}
	return nil
}

func (g *Gate) checkPresence(_ context.Context, req *request) *Denial {
	if BearerToken(req.header) == "" {
		return &Denial{Status: http.StatusUnauthorized, Code: "missing_token", Message: "authorization bearer token required"}
	}
	return nil
}

func (g *Gate) checkToken(_ context.Context, req *request) *Denial {
	claims, err := ParseToken(g.secret, BearerToken(req.header))
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return &Denial{Status: http.StatusUnauthorized, Code: "token_expired", Message: "credential has expired"}
		}
		return &Denial{Status: http.StatusUnauthorized, Code: "invalid_token", Message: "credential is invalid"}
	}
	req.claims = claims
	return nil
}

func (g *Gate) checkLiveness(ctx context.Context, req *request) *Denial {
	user, err := g.source.GetUserByID(ctx, req.claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Denial{Status: http.StatusUnauthorized, Code: "account_not_found", Message: "account no longer exists"}
		}
		return &Denial{Status: http.StatusInternalServerError, Code: "server_error"}
	}
	req.user = user
	return nil
}

func (g *Gate) checkRole(_ context.Context, req *request) *Denial {
	if !req.capability.allows(req.user.Role) {
		return &Denial{Status: http.StatusForbidden, Code: "forbidden", Message: "role not permitted for this action"}
	}
	return nil
}

// checkProfessorApproval runs for every capability: a professor must have
// been approved by root before acting, regardless of endpoint. Skipped
// entirely for other roles.
func (g *Gate) checkProfessorApproval(_ context.Context, req *request) *Denial {
	if req.user.Role != model.RoleProfessor {
		return nil
	}
	switch req.user.Status {
	case model.StatusApproved, model.StatusActive:
		return nil
	case model.StatusPending:
		return &Denial{Status: http.StatusForbidden, Code: "pending_approval", Message: "account is pending approval"}
	case model.StatusRejected:
		return &Denial{Status: http.StatusForbidden, Code: "account_rejected", Message: "account has been rejected"}
	default:
		return &Denial{Status: http.StatusForbidden, Code: "forbidden"}
	}
}

// checkActiveStatus gates capabilities that require a live account. Root is
// deliberately exempt: root principals are provisioned active and are never
// subject to a status gate.
func (g *Gate) checkActiveStatus(_ context.Context, req *request) *Denial {
	if !req.capability.RequireActive || req.user.Role == model.RoleRoot {
		return nil
	}
	switch req.user.Status {
	case model.StatusApproved, model.StatusActive:
		return nil
	case model.StatusPending:
		return &Denial{Status: http.StatusForbidden, Code: "account_pending", Message: "account is not active yet"}
	case model.StatusRejected:
		return &Denial{Status: http.StatusForbidden, Code: "account_rejected", Message: "account has been rejected"}
	default:
		return &Denial{Status: http.StatusForbidden, Code: "forbidden"}
	}
}

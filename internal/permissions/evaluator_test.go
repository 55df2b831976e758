package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamspace-dev/mcp-gateway/internal/identity"
)

func TestEvaluatorAllowed(t *testing.T) {
	tests := []struct {
		name        string
		principal   identity.Principal
		resource    Resource
		op          Operation
		want        bool
		description string
	}{
		{
			name:        "owner may write",
			principal:   identity.Principal{UserID: "alice"},
			resource:    Resource{CreatedBy: "alice", RequiredRoles: []string{"team-x"}},
			op:          Write,
			want:        true,
			description: "rule 1: ownership trumps required roles",
		},
		{
			name:        "admin may write regardless of ownership",
			principal:   identity.Principal{UserID: "bob", Roles: []string{identity.AdminRole}},
			resource:    Resource{CreatedBy: "alice"},
			op:          Write,
			want:        true,
			description: "rule 2: admin role overrides everything",
		},
		{
			name:        "read with no required roles is public",
			principal:   identity.Principal{UserID: "carol"},
			resource:    Resource{CreatedBy: "alice"},
			op:          Read,
			want:        true,
			description: "rule 3: empty RequiredRoles means world-readable",
		},
		{
			name:        "read with matching required role",
			principal:   identity.Principal{UserID: "carol", Roles: []string{"team-x"}},
			resource:    Resource{CreatedBy: "alice", RequiredRoles: []string{"team-x"}},
			op:          Read,
			want:        true,
			description: "rule 3: held role satisfies the gate",
		},
		{
			name:        "read without matching required role is denied",
			principal:   identity.Principal{UserID: "carol", Roles: []string{"team-y"}},
			resource:    Resource{CreatedBy: "alice", RequiredRoles: []string{"team-x"}},
			op:          Read,
			want:        false,
			description: "rule 3: missing role falls through to denial",
		},
		{
			name:        "non-owner non-admin write is denied",
			principal:   identity.Principal{UserID: "carol", Roles: []string{"team-x"}},
			resource:    Resource{CreatedBy: "alice", RequiredRoles: []string{"team-x"}},
			op:          Write,
			want:        false,
			description: "rule 4: holding the read-gate role never grants write",
		},
	}

	eval := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval.Allowed(tt.principal, tt.resource, tt.op)
			assert.Equal(t, tt.want, got, tt.description)
		})
	}
}

func TestFilterReadablePreservesOrderAndDropsDenied(t *testing.T) {
	eval := New()
	principal := identity.Principal{UserID: "carol", Roles: []string{"team-x"}}

	items := []Filterable[string]{
		{Item: "public", Resource: Resource{CreatedBy: "alice"}},
		{Item: "gated-ok", Resource: Resource{CreatedBy: "alice", RequiredRoles: []string{"team-x"}}},
		{Item: "gated-denied", Resource: Resource{CreatedBy: "alice", RequiredRoles: []string{"team-z"}}},
		{Item: "owned", Resource: Resource{CreatedBy: "carol", RequiredRoles: []string{"team-z"}}},
	}

	got := FilterReadable(eval, principal, items)
	assert.Equal(t, []string{"public", "gated-ok", "owned"}, got)
}

package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteTargetPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "bare mcp entry", path: "/adapters/search/mcp", want: "/mcp"},
		{name: "tool mcp entry", path: "/tools/search/mcp", want: "/mcp"},
		{name: "messages suffix gets trailing slash", path: "/adapters/search/messages", want: "/messages/"},
		{name: "no remainder after name", path: "/adapters/search", want: "/"},
		{name: "trailing slash with no remainder", path: "/adapters/search/", want: "/"},
		{name: "nested remainder preserved verbatim", path: "/adapters/search/sse/events", want: "/sse/events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewriteTargetPath(tt.path))
		})
	}
}

func TestNewBuildsReverseProxyForValidTarget(t *testing.T) {
	rp, err := New("http://adapter-0.ns.svc.cluster.local:8000", "/mcp")
	assert.NoError(t, err)
	assert.NotNil(t, rp)
	assert.True(t, rp.FlushInterval < 0)
}

func TestNewRejectsInvalidTarget(t *testing.T) {
	_, err := New("://not-a-url", "/mcp")
	assert.Error(t, err)
}

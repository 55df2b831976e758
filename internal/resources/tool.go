package resources

import (
	"github.com/streamspace-dev/mcp-gateway/internal/audit"
	"github.com/streamspace-dev/mcp-gateway/internal/deploy"
	"github.com/streamspace-dev/mcp-gateway/internal/model"
	"github.com/streamspace-dev/mcp-gateway/internal/permissions"
	"github.com/streamspace-dev/mcp-gateway/internal/store"
)

// ToolService is the C6 resource service for tools; it shares the
// AdapterService's generic core, additionally threading the tool
// definition and passing ResourceType=Tool to the deployment manager
// (spec.md section 4.6).
type ToolService = Service[ToolData, model.ToolRecord]

// NewToolService constructs the tool resource service, keying its records
// under "tool:" in the shared resource store.
func NewToolService(backend store.Store, perm *permissions.Evaluator, deployer *deploy.Manager, auditor *audit.Logger) *ToolService {
	typed := store.NewTypedStore[model.ToolRecord](backend, "tool:")
	return NewService[ToolData, model.ToolRecord](typed, perm, deployer, auditor, model.ResourceTypeTool, "tool")
}

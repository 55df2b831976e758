package resources

import (
	"github.com/streamspace-dev/mcp-gateway/internal/audit"
	"github.com/streamspace-dev/mcp-gateway/internal/deploy"
	"github.com/streamspace-dev/mcp-gateway/internal/model"
	"github.com/streamspace-dev/mcp-gateway/internal/permissions"
	"github.com/streamspace-dev/mcp-gateway/internal/store"
)

// AdapterService is the C6 resource service for adapters.
type AdapterService = Service[AdapterData, model.AdapterRecord]

// NewAdapterService constructs the adapter resource service, keying its
// records under "adapter:" in the shared resource store.
func NewAdapterService(backend store.Store, perm *permissions.Evaluator, deployer *deploy.Manager, auditor *audit.Logger) *AdapterService {
	typed := store.NewTypedStore[model.AdapterRecord](backend, "adapter:")
	return NewService[AdapterData, model.AdapterRecord](typed, perm, deployer, auditor, model.ResourceTypeMcp, "adapter")
}

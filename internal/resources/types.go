// Package resources implements C6, the Resource Services: CRUD over
// AdapterRecord/ToolRecord with validation, authorization, and deployment
// orchestration (spec.md section 4.6). AdapterService and ToolService share
// one generic core, modeling the spec's "ToolData embeds AdapterData plus a
// toolDefinition field" composition (section 9) instead of inheritance.
package resources

import "github.com/streamspace-dev/mcp-gateway/internal/model"

// AdapterData is the request body shape for creating/updating an adapter
// (spec.md section 6.2), before server-assigned fields (id, createdBy,
// createdAt, lastUpdatedAt) are filled in.
type AdapterData struct {
	Name                 string            `json:"name"`
	ImageName            string            `json:"imageName"`
	ImageVersion         string            `json:"imageVersion"`
	EnvironmentVariables map[string]string `json:"environmentVariables"`
	ReplicaCount         int               `json:"replicaCount"`
	Description          string            `json:"description"`
	UseWorkloadIdentity  bool              `json:"useWorkloadIdentity"`
	RequiredRoles        []string          `json:"requiredRoles"`
}

// Base satisfies DataLike for a plain adapter payload.
func (d AdapterData) Base() AdapterData { return d }

// ToolDefinitionPtr is nil for a plain adapter payload.
func (d AdapterData) ToolDefinitionPtr() *model.ToolDefinition { return nil }

// ToolData extends AdapterData with a tool definition (spec.md section 3).
type ToolData struct {
	AdapterData
	ToolDefinition model.ToolDefinition `json:"toolDefinition"`
}

// Base projects ToolData down to its embedded AdapterData.
func (d ToolData) Base() AdapterData { return d.AdapterData }

// ToolDefinitionPtr exposes the embedded tool definition.
func (d ToolData) ToolDefinitionPtr() *model.ToolDefinition { return &d.ToolDefinition }

// DataLike is the constraint the generic core's create/update paths use to
// read the common adapter-shaped fields and, where present, a tool
// definition, without the core needing to know about ToolData specifically.
type DataLike interface {
	Base() AdapterData
	ToolDefinitionPtr() *model.ToolDefinition
}

// RecordLike is the constraint the generic core uses to move between a
// concrete record type R and its common AdapterRecord view.
type RecordLike[R any] interface {
	Adapter() model.AdapterRecord
	WithAdapter(model.AdapterRecord) R
	WithToolDefinition(*model.ToolDefinition) R
}

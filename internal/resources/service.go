package resources

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/audit"
	"github.com/streamspace-dev/mcp-gateway/internal/deploy"
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
	"github.com/streamspace-dev/mcp-gateway/internal/logger"
	"github.com/streamspace-dev/mcp-gateway/internal/model"
	"github.com/streamspace-dev/mcp-gateway/internal/permissions"
	"github.com/streamspace-dev/mcp-gateway/internal/store"
)

// Service is the generic C6 core shared by AdapterService and ToolService.
// D is the request-body shape (AdapterData/ToolData); R is the persisted
// record shape (model.AdapterRecord/model.ToolRecord).
type Service[D DataLike, R RecordLike[R]] struct {
	store        *store.TypedStore[R]
	perm         *permissions.Evaluator
	deployer     *deploy.Manager
	auditor      *audit.Logger
	resourceType model.ResourceType
	resourceKind string // "adapter" | "tool", for audit events and error messages
}

// NewService constructs a generic resource service.
func NewService[D DataLike, R RecordLike[R]](
	typed *store.TypedStore[R],
	perm *permissions.Evaluator,
	deployer *deploy.Manager,
	auditor *audit.Logger,
	resourceType model.ResourceType,
	resourceKind string,
) *Service[D, R] {
	return &Service[D, R]{
		store:        typed,
		perm:         perm,
		deployer:     deployer,
		auditor:      auditor,
		resourceType: resourceType,
		resourceKind: resourceKind,
	}
}

func deploySpecFor(a model.AdapterRecord, resourceType model.ResourceType) deploy.Spec {
	return deploy.Spec{
		Name:                 a.Name,
		ImageName:            a.ImageName,
		ImageVersion:         a.ImageVersion,
		EnvironmentVariables: a.EnvironmentVariables,
		ReplicaCount:         a.ReplicaCount,
		UseWorkloadIdentity:  a.UseWorkloadIdentity,
		ResourceType:         resourceType,
	}
}

// Create validates, deploys, and persists a new record (spec.md section 4.6).
// Deployment precedes persistence so a persisted record always corresponds
// to an attempted deployment (section 5, "Create ordering"; invariant 2).
func (s *Service[D, R]) Create(ctx context.Context, principal identity.Principal, data D) (R, error) {
	var zero R
	base := data.Base()

	if !ValidName(base.Name) {
		return zero, apperr.ValidationFailed("name must match ^[a-z0-9-]+$")
	}

	if td := data.ToolDefinitionPtr(); td != nil && td.Tool.Name != base.Name {
		return zero, apperr.ValidationFailed("toolDefinition.tool.name must equal the resource's name")
	}

	if _, exists, err := s.store.TryGet(ctx, base.Name); err != nil {
		return zero, err
	} else if exists {
		return zero, apperr.Conflict(base.Name)
	}

	now := time.Now().UTC()
	common := model.AdapterRecord{
		ID:                   uuid.NewString(),
		Name:                 base.Name,
		ImageName:            base.ImageName,
		ImageVersion:         base.ImageVersion,
		EnvironmentVariables: base.EnvironmentVariables,
		ReplicaCount:         base.ReplicaCount,
		Description:          base.Description,
		UseWorkloadIdentity:  base.UseWorkloadIdentity,
		RequiredRoles:        base.RequiredRoles,
		CreatedBy:            principal.UserID,
		CreatedAt:            now,
		LastUpdatedAt:        now,
	}
	common.Normalize()

	if err := s.deployer.Create(ctx, deploySpecFor(common, s.resourceType)); err != nil {
		return zero, err
	}

	record := zero.WithAdapter(common).WithToolDefinition(normalizedToolDef(data.ToolDefinitionPtr()))

	if err := s.store.Upsert(ctx, common.Name, record); err != nil {
		return zero, err
	}

	s.auditor.Record(audit.Event{
		Timestamp: now, UserID: principal.UserID, Action: "create",
		ResourceType: s.resourceKind, ResourceName: common.Name,
	})
	return record, nil
}

func normalizedToolDef(td *model.ToolDefinition) *model.ToolDefinition {
	if td == nil {
		return nil
	}
	n := td.Normalized()
	return &n
}

// Get fetches name and checks Read access (spec.md section 4.6).
func (s *Service[D, R]) Get(ctx context.Context, principal identity.Principal, name string) (R, error) {
	var zero R
	record, ok, err := s.store.TryGet(ctx, name)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, apperr.NotFound(s.resourceKind)
	}
	a := record.Adapter()
	if !s.perm.Allowed(principal, permissions.Resource{CreatedBy: a.CreatedBy, RequiredRoles: a.RequiredRoles}, permissions.Read) {
		return zero, apperr.Forbidden()
	}
	return record, nil
}

// Update fetches the existing record, checks Write access, rejects
// immutable-field mutation, applies the deployment-dirty predicate, and
// persists (spec.md section 4.6, invariants 3-4).
func (s *Service[D, R]) Update(ctx context.Context, principal identity.Principal, urlName string, data D) (R, error) {
	var zero R
	base := data.Base()

	if base.Name != urlName {
		return zero, apperr.ValidationFailed("body name must equal URL name")
	}

	if td := data.ToolDefinitionPtr(); td != nil && td.Tool.Name != base.Name {
		return zero, apperr.ValidationFailed("toolDefinition.tool.name must equal the resource's name")
	}

	existing, ok, err := s.store.TryGet(ctx, urlName)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, apperr.NotFound(s.resourceKind)
	}
	existingAdapter := existing.Adapter()

	if !s.perm.Allowed(principal, permissions.Resource{CreatedBy: existingAdapter.CreatedBy, RequiredRoles: existingAdapter.RequiredRoles}, permissions.Write) {
		return zero, apperr.Forbidden()
	}

	updated := existingAdapter
	updated.ImageName = base.ImageName
	updated.ImageVersion = base.ImageVersion
	updated.EnvironmentVariables = base.EnvironmentVariables
	updated.ReplicaCount = base.ReplicaCount
	updated.Description = base.Description
	updated.UseWorkloadIdentity = base.UseWorkloadIdentity
	updated.RequiredRoles = base.RequiredRoles
	updated.LastUpdatedAt = time.Now().UTC()
	updated.Normalize()

	dirty := updated.ImageName != existingAdapter.ImageName ||
		updated.ImageVersion != existingAdapter.ImageVersion ||
		updated.ReplicaCount != existingAdapter.ReplicaCount ||
		!model.EnvEqual(updated.EnvironmentVariables, existingAdapter.EnvironmentVariables)

	if dirty {
		if err := s.deployer.Update(ctx, deploySpecFor(updated, s.resourceType)); err != nil {
			return zero, err
		}
	}

	record := existing.WithAdapter(updated).WithToolDefinition(normalizedToolDef(data.ToolDefinitionPtr()))

	if err := s.store.Upsert(ctx, updated.Name, record); err != nil {
		return zero, err
	}

	s.auditor.Record(audit.Event{
		Timestamp: updated.LastUpdatedAt, UserID: principal.UserID, Action: "update",
		ResourceType: s.resourceKind, ResourceName: updated.Name,
		Changes: map[string]interface{}{"deploymentDirty": dirty},
	})
	logger.HTTP().Info().Str("name", updated.Name).Bool("deploymentDirty", dirty).Msg("resource updated")
	return record, nil
}

// Delete fetches or NotFound, checks Write, deletes from the store then
// the orchestrator (spec.md section 4.6, section 5 "Delete ordering").
func (s *Service[D, R]) Delete(ctx context.Context, principal identity.Principal, name string) error {
	existing, ok, err := s.store.TryGet(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(s.resourceKind)
	}
	a := existing.Adapter()
	if !s.perm.Allowed(principal, permissions.Resource{CreatedBy: a.CreatedBy, RequiredRoles: a.RequiredRoles}, permissions.Write) {
		return apperr.Forbidden()
	}

	if err := s.store.Delete(ctx, name); err != nil {
		return err
	}

	if err := s.deployer.Delete(ctx, name); err != nil {
		logger.Deploy().Warn().Err(err).Str("name", name).Msg("best-effort workload cleanup failed after record delete")
	}

	s.auditor.Record(audit.Event{
		Timestamp: time.Now().UTC(), UserID: principal.UserID, Action: "delete",
		ResourceType: s.resourceKind, ResourceName: name,
	})
	return nil
}

// Status returns the deployment-manager status view for name after
// checking Read access (spec.md section 6.1).
func (s *Service[D, R]) Status(ctx context.Context, principal identity.Principal, name string) (model.DeploymentStatus, error) {
	if _, err := s.Get(ctx, principal, name); err != nil {
		return model.DeploymentStatus{}, err
	}
	return s.deployer.Status(ctx, name)
}

// Logs returns a bounded log tail for the given replica ordinal after
// checking Read access (spec.md section 6.1).
func (s *Service[D, R]) Logs(ctx context.Context, principal identity.Principal, name string, ordinal int) (string, error) {
	if _, err := s.Get(ctx, principal, name); err != nil {
		return "", err
	}
	return s.deployer.GetLogs(ctx, name, ordinal)
}

// List returns every record the principal may read, preserving store order
// (spec.md section 4.6, invariant 6). The number filtered out is logged but
// not surfaced to the caller.
func (s *Service[D, R]) List(ctx context.Context, principal identity.Principal) ([]R, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]permissions.Filterable[R], 0, len(all))
	for _, r := range all {
		a := r.Adapter()
		items = append(items, permissions.Filterable[R]{
			Item:     r,
			Resource: permissions.Resource{CreatedBy: a.CreatedBy, RequiredRoles: a.RequiredRoles},
		})
	}

	readable := permissions.FilterReadable(s.perm, principal, items)
	if filtered := len(all) - len(readable); filtered > 0 {
		logger.HTTP().Debug().Int("filtered", filtered).Str("kind", s.resourceKind).Msg("list filtered by permission")
	}
	return readable, nil
}

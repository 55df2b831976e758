// Package deploy implements C5, the Deployment Manager: reconciling a
// resource record onto orchestrator state (spec.md section 4.5) as a
// StatefulSet + companion Service pair (section 6.4). Grounded on the
// teacher's internal/api/stubs.go (typed clientset CRUD against
// AppsV1().Deployments(), CoreV1().Pods().GetLogs with TailLines) and
// internal/nodes/manager.go's error-wrapping idiom. The teacher reconciles
// plain Deployments; this gateway needs per-ordinal pod DNS for session
// affinity (spec.md section 6.4), so StatefulSet is used instead, in the
// same client-go calling convention.
package deploy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/kubernetes"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/logger"
	"github.com/streamspace-dev/mcp-gateway/internal/model"
)

const logTailLines = 1000

// Manager reconciles AdapterRecord/ToolRecord state onto the orchestrator.
// It stores no state of its own; the orchestrator is the source of truth
// for runtime status (spec.md section 3, "Ownership").
type Manager struct {
	clientset       kubernetes.Interface
	namespace       string
	registryEndpoint string
}

// New constructs a Deployment Manager scoped to namespace, qualifying
// images against registryEndpoint.
func New(clientset kubernetes.Interface, namespace, registryEndpoint string) *Manager {
	return &Manager{clientset: clientset, namespace: namespace, registryEndpoint: registryEndpoint}
}

// Spec is the subset of a record the Deployment Manager needs to reconcile
// a workload; callers (Resource Services) project AdapterRecord/ToolRecord
// down to this shape before calling Create/Update.
type Spec struct {
	Name                 string
	ImageName            string
	ImageVersion         string
	EnvironmentVariables map[string]string
	ReplicaCount         int
	UseWorkloadIdentity  bool
	ResourceType         model.ResourceType
}

func (m *Manager) image(s Spec) string {
	return fmt.Sprintf("%s/%s:%s", m.registryEndpoint, s.ImageName, s.ImageVersion)
}

func (m *Manager) podLabels(s Spec) map[string]string {
	return map[string]string{
		"app":                   s.Name,
		"adapter/type":          string(s.ResourceType),
		"workload-identity/use": fmt.Sprintf("%t", s.UseWorkloadIdentity),
	}
}

func envVars(env map[string]string) []corev1.EnvVar {
	out := make([]corev1.EnvVar, 0, len(env))
	for k, v := range env {
		out = append(out, corev1.EnvVar{Name: k, Value: v})
	}
	return out
}

func (m *Manager) buildStatefulSet(s Spec) *appsv1.StatefulSet {
	replicas := int32(s.ReplicaCount)
	labels := m.podLabels(s)
	return &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: s.Name, Namespace: m.namespace, Labels: labels},
		Spec: appsv1.StatefulSetSpec{
			Replicas:    &replicas,
			ServiceName: s.Name + "-service",
			Selector:    &metav1.LabelSelector{MatchLabels: map[string]string{"app": s.Name}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:  s.Name,
						Image: m.image(s),
						Env:   envVars(s.EnvironmentVariables),
					}},
				},
			},
		},
	}
}

func (m *Manager) buildService(s Spec) *corev1.Service {
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: s.Name + "-service", Namespace: m.namespace},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"app": s.Name},
			Ports:    []corev1.ServicePort{{Port: 80, TargetPort: intstr.FromInt32(8000)}},
		},
	}
	if s.ResourceType == model.ResourceTypeMcp {
		// Headless so per-pod DNS names exist for ordinal-targeted session
		// affinity (spec.md section 6.4).
		svc.Spec.ClusterIP = corev1.ClusterIPNone
	}
	return svc
}

// Create builds and applies the StatefulSet + Service pair for s. A
// Conflict from the orchestrator (the workload already exists) is logged
// and treated as an upsert rather than a failure (spec.md section 4.5).
func (m *Manager) Create(ctx context.Context, s Spec) error {
	log := logger.Deploy()

	ss := m.buildStatefulSet(s)
	_, err := m.clientset.AppsV1().StatefulSets(m.namespace).Create(ctx, ss, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			log.Info().Str("name", s.Name).Msg("statefulset already exists, treating create as upsert")
		} else {
			return apperr.UpstreamFailed(err)
		}
	}

	svc := m.buildService(s)
	_, err = m.clientset.CoreV1().Services(m.namespace).Create(ctx, svc, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			log.Info().Str("name", s.Name).Msg("service already exists, treating create as upsert")
		} else {
			return apperr.UpstreamFailed(err)
		}
	}
	return nil
}

// Update patches only the differing fields of the existing StatefulSet;
// it never recreates the object and never changes identity labels
// (spec.md section 4.5). Callers are expected to have already applied the
// deployment-dirty predicate (spec.md section 4.6) before calling Update.
func (m *Manager) Update(ctx context.Context, s Spec) error {
	existing, err := m.clientset.AppsV1().StatefulSets(m.namespace).Get(ctx, s.Name, metav1.GetOptions{})
	if err != nil {
		return apperr.UpstreamFailed(err)
	}

	replicas := int32(s.ReplicaCount)
	existing.Spec.Replicas = &replicas
	existing.Spec.Template.Spec.Containers[0].Image = m.image(s)
	existing.Spec.Template.Spec.Containers[0].Env = envVars(s.EnvironmentVariables)

	if _, err := m.clientset.AppsV1().StatefulSets(m.namespace).Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return apperr.UpstreamFailed(err)
	}
	return nil
}

// Delete removes the StatefulSet and Service for name. NotFound on either
// is success (spec.md section 4.5).
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := m.clientset.AppsV1().StatefulSets(m.namespace).Delete(ctx, name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		return apperr.UpstreamFailed(err)
	}
	if err := m.clientset.CoreV1().Services(m.namespace).Delete(ctx, name+"-service", metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		return apperr.UpstreamFailed(err)
	}
	return nil
}

// Status derives the replica-health view for name (spec.md section 4.5).
func (m *Manager) Status(ctx context.Context, name string) (model.DeploymentStatus, error) {
	ss, err := m.clientset.AppsV1().StatefulSets(m.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return model.DeploymentStatus{}, apperr.UpstreamFailed(err)
	}

	desired := int32(0)
	if ss.Spec.Replicas != nil {
		desired = *ss.Spec.Replicas
	}

	image := "Unknown"
	if len(ss.Spec.Template.Spec.Containers) > 0 && ss.Spec.Template.Spec.Containers[0].Image != "" {
		image = ss.Spec.Template.Spec.Containers[0].Image
	}

	status := model.DeploymentStatus{
		ReadyReplicas:     int(ss.Status.ReadyReplicas),
		UpdatedReplicas:   int(ss.Status.UpdatedReplicas),
		AvailableReplicas: int(ss.Status.AvailableReplicas),
		Image:             image,
	}
	if desired > 0 && ss.Status.ReadyReplicas == desired {
		status.ReplicaStatus = "Healthy"
	} else {
		status.ReplicaStatus = fmt.Sprintf("Degraded: %d/%d ready", ss.Status.ReadyReplicas, desired)
	}
	return status, nil
}

// GetLogs fetches a bounded tail of logs from pod "<name>-<ordinal>"
// (spec.md section 4.5, invariant 11).
func (m *Manager) GetLogs(ctx context.Context, name string, ordinal int) (string, error) {
	podName := fmt.Sprintf("%s-%d", name, ordinal)
	tail := int64(logTailLines)

	stream, err := m.clientset.CoreV1().Pods(m.namespace).GetLogs(podName, &corev1.PodLogOptions{TailLines: &tail}).Stream(ctx)
	if err != nil {
		return "", apperr.UpstreamFailed(err)
	}
	defer stream.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return sb.String(), apperr.UpstreamFailed(err)
	}
	return sb.String(), nil
}

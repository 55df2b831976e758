// Package nodeinfo implements C4, the Node-Info Provider: resolving a
// workload name to its current ordered set of replica endpoints
// (spec.md section 4.4). Grounded on the teacher's internal/nodes/manager.go
// (typed client-go clientset usage, error wrapping) and
// internal/api/stubs.go's service/endpoint handling.
package nodeinfo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/model"
)

// defaultCacheTTL is the short, stampede-tolerant per-process cache TTL
// spec.md's design notes permit (section 9: "a stale hit is acceptable").
const defaultCacheTTL = 5 * time.Second

// Provider resolves the ready replica set for a workload by reading the
// orchestrator's Endpoints object for "<workloadName>-service".
type Provider struct {
	clientset kubernetes.Interface
	namespace string
	port      int
	ttl       time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	endpoints []model.ReplicaEndpoint
	expiresAt time.Time
}

// New constructs a Node-Info Provider scoped to namespace, resolving
// endpoints on the given default port (the service's target container port).
func New(clientset kubernetes.Interface, namespace string, port int) *Provider {
	return &Provider{
		clientset: clientset,
		namespace: namespace,
		port:      port,
		ttl:       defaultCacheTTL,
		cache:     make(map[string]cacheEntry),
	}
}

// ResolveEndpoints returns the ordered (by ordinal) set of ready replica
// endpoints for workloadName. Fails with NotFound when no endpoints exist
// (spec.md section 4.4).
func (p *Provider) ResolveEndpoints(ctx context.Context, workloadName string) ([]model.ReplicaEndpoint, error) {
	if eps, ok := p.cachedEndpoints(workloadName); ok {
		return eps, nil
	}

	serviceName := workloadName + "-service"
	endpoints, err := p.clientset.CoreV1().Endpoints(p.namespace).Get(ctx, serviceName, metav1.GetOptions{})
	if err != nil {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("no endpoints for workload %q", workloadName))
	}

	result := collectReplicaEndpoints(workloadName, endpoints, p.port)
	if len(result) == 0 {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("no ready endpoints for workload %q", workloadName))
	}

	p.storeCache(workloadName, result)
	return result, nil
}

func (p *Provider) cachedEndpoints(workloadName string) ([]model.ReplicaEndpoint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.cache[workloadName]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.endpoints, true
}

func (p *Provider) storeCache(workloadName string, eps []model.ReplicaEndpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[workloadName] = cacheEntry{endpoints: eps, expiresAt: time.Now().Add(p.ttl)}
}

func collectReplicaEndpoints(workloadName string, endpoints *corev1.Endpoints, defaultPort int) []model.ReplicaEndpoint {
	var result []model.ReplicaEndpoint
	for _, subset := range endpoints.Subsets {
		port := defaultPort
		if len(subset.Ports) > 0 {
			port = int(subset.Ports[0].Port)
		}
		for _, addr := range subset.Addresses {
			ordinal := ordinalFromHostname(addr.Hostname, workloadName)
			result = append(result, model.ReplicaEndpoint{
				WorkloadName: workloadName,
				Ordinal:      ordinal,
				Address:      fmt.Sprintf("http://%s:%d", addr.IP, port),
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Ordinal < result[j].Ordinal })
	return result
}

// ordinalFromHostname parses the pod ordinal from a StatefulSet pod's
// hostname, e.g. "a1-0" for workload "a1" -> 0. Falls back to -1 (sorted
// first) when the hostname isn't in that shape, e.g. for clustered
// (non-headless) tool services that expose no per-pod hostname.
func ordinalFromHostname(hostname, workloadName string) int {
	suffix := strings.TrimPrefix(hostname, workloadName+"-")
	if suffix == hostname {
		return -1
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return -1
	}
	return n
}

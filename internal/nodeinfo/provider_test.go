package nodeinfo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
)

func TestOrdinalFromHostname(t *testing.T) {
	tests := []struct {
		name         string
		hostname     string
		workloadName string
		want         int
	}{
		{name: "statefulset pod ordinal", hostname: "search-0", workloadName: "search", want: 0},
		{name: "double digit ordinal", hostname: "search-12", workloadName: "search", want: 12},
		{name: "no matching prefix falls back", hostname: "other-0", workloadName: "search", want: -1},
		{name: "empty hostname falls back", hostname: "", workloadName: "search", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ordinalFromHostname(tt.hostname, tt.workloadName))
		})
	}
}

func TestCollectReplicaEndpointsSortsByOrdinal(t *testing.T) {
	endpoints := &corev1.Endpoints{
		Subsets: []corev1.EndpointSubset{
			{
				Ports: []corev1.EndpointPort{{Port: 8000}},
				Addresses: []corev1.EndpointAddress{
					{IP: "10.0.0.2", Hostname: "search-1"},
					{IP: "10.0.0.1", Hostname: "search-0"},
				},
			},
		},
	}

	result := collectReplicaEndpoints("search", endpoints, 9999)
	assert.Len(t, result, 2)
	assert.Equal(t, 0, result[0].Ordinal)
	assert.Equal(t, "http://10.0.0.1:8000", result[0].Address)
	assert.Equal(t, 1, result[1].Ordinal)
	assert.Equal(t, "http://10.0.0.2:8000", result[1].Address)
}

func TestResolveEndpointsNotFound(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	p := New(clientset, "default", 8000)

	_, err := p.ResolveEndpoints(context.Background(), "search")
	ae, ok := apperr.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperr.CodeNotFound, ae.Code)
}

func TestResolveEndpointsReturnsReadyEndpoints(t *testing.T) {
	endpoints := &corev1.Endpoints{
		ObjectMeta: metav1.ObjectMeta{Name: "search-service", Namespace: "default"},
		Subsets: []corev1.EndpointSubset{
			{
				Ports:     []corev1.EndpointPort{{Port: 8000}},
				Addresses: []corev1.EndpointAddress{{IP: "10.0.0.1", Hostname: "search-0"}},
			},
		},
	}
	clientset := fake.NewSimpleClientset(endpoints)
	p := New(clientset, "default", 8000)

	result, err := p.ResolveEndpoints(context.Background(), "search")
	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "http://10.0.0.1:8000", result[0].Address)
}

func TestResolveEndpointsCachesResult(t *testing.T) {
	endpoints := &corev1.Endpoints{
		ObjectMeta: metav1.ObjectMeta{Name: "search-service", Namespace: "default"},
		Subsets: []corev1.EndpointSubset{
			{
				Ports:     []corev1.EndpointPort{{Port: 8000}},
				Addresses: []corev1.EndpointAddress{{IP: "10.0.0.1", Hostname: "search-0"}},
			},
		},
	}
	clientset := fake.NewSimpleClientset(endpoints)
	p := New(clientset, "default", 8000)

	ctx := context.Background()
	_, err := p.ResolveEndpoints(ctx, "search")
	assert.NoError(t, err)

	assert.NoError(t, clientset.CoreV1().Endpoints("default").Delete(ctx, "search-service", metav1.DeleteOptions{}))

	result, err := p.ResolveEndpoints(ctx, "search")
	assert.NoError(t, err)
	assert.Len(t, result, 1, "cached result should survive the backing object's deletion within the TTL window")
}

// Package k8sclient constructs the Kubernetes client-go clientset shared by
// the Node-Info Provider and Deployment Manager, grounded on the teacher's
// internal/k8s/client.go and internal/nodes/manager.go in-cluster/
// out-of-cluster config resolution pattern.
package k8sclient

import (
	"fmt"
	"os"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// New resolves a clientset using in-cluster config when running inside a
// pod, falling back to the local kubeconfig (KUBECONFIG or ~/.kube/config)
// for development.
func New() (*kubernetes.Clientset, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		kubeconfig := os.Getenv("KUBECONFIG")
		if kubeconfig == "" {
			home, _ := os.UserHomeDir()
			kubeconfig = home + "/.kube/config"
		}
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("resolve kube config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build clientset: %w", err)
	}
	return clientset, nil
}

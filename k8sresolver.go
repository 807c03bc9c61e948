package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	discoveryv1 "k8s.io/api/discovery/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// k8sResolver resolves "<service>.<namespace>" names to the addresses of the
// ready endpoints of the service.
type k8sResolver struct {
	client kubernetes.Interface
}

func newK8sResolver(kubeconfig string) (*k8sResolver, error) {
	var cfg *rest.Config
	var err error

	if kubeconfig == "" {
		cfg, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-cluster config: %w", err)
		}
	} else {
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig file: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %w", err)
	}

	return &k8sResolver{client: clientset}, nil
}

func (r *k8sResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	parts := strings.Split(strings.TrimSuffix(host, "."), ".")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, errors.New("invalid service name; expected format <service>.<namespace>")
	}

	serviceName := parts[0]
	namespace := parts[1]
	endpointSlices, err := r.client.DiscoveryV1().EndpointSlices(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("%s=%s", discoveryv1.LabelServiceName, serviceName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint slices for service %s in namespace %s: %w", serviceName, namespace, err)
	}

	var ips []net.IPAddr
	for _, slice := range endpointSlices.Items {
		for _, endpoint := range slice.Endpoints {
			if endpoint.Conditions.Ready != nil && !*endpoint.Conditions.Ready {
				continue
			}

			for _, addr := range endpoint.Addresses {
				ip := net.ParseIP(addr)
				if ip == nil {
					continue
				}
				ips = append(ips, net.IPAddr{IP: ip})
			}
		}
	}

	if len(ips) == 0 {
		return nil, errors.New("no endpoints found for service")
	}

	return ips, nil
}

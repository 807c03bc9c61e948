package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	discoveryv1 "k8s.io/api/discovery/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func endpointSlice(name, namespace, service string, endpoints ...discoveryv1.Endpoint) *discoveryv1.EndpointSlice {
	return &discoveryv1.EndpointSlice{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels: map[string]string{
				discoveryv1.LabelServiceName: service,
			},
		},
		AddressType: discoveryv1.AddressTypeIPv4,
		Endpoints:   endpoints,
	}
}

func TestK8sResolver(t *testing.T) {
	ready := true
	notReady := false

	client := fake.NewSimpleClientset(
		endpointSlice("kafka-abcde", "streaming", "kafka",
			discoveryv1.Endpoint{Addresses: []string{"10.1.0.1"}, Conditions: discoveryv1.EndpointConditions{Ready: &ready}},
			discoveryv1.Endpoint{Addresses: []string{"10.1.0.2"}, Conditions: discoveryv1.EndpointConditions{Ready: &notReady}},
			discoveryv1.Endpoint{Addresses: []string{"10.1.0.3"}},
		),
		endpointSlice("zookeeper-fghij", "streaming", "zookeeper",
			discoveryv1.Endpoint{Addresses: []string{"10.2.0.1"}},
		),
	)
	r := &k8sResolver{client: client}

	addrs, err := r.LookupIPAddr(context.Background(), "kafka.streaming.svc.cluster.local")
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, "10.1.0.1", addrs[0].IP.String())
	assert.Equal(t, "10.1.0.3", addrs[1].IP.String())

	_, err = r.LookupIPAddr(context.Background(), "kafka.other")
	assert.Error(t, err)
}

func TestK8sResolverInvalidName(t *testing.T) {
	r := &k8sResolver{client: fake.NewSimpleClientset()}

	for _, host := range []string{"kafka", ".streaming", "kafka."} {
		_, err := r.LookupIPAddr(context.Background(), host)
		assert.Error(t, err, host)
	}
}

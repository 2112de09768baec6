package servicefabric

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	mdns "github.com/miekg/dns"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/retry"
)

func setManagementEndpoint(t *testing.T, e *testEnv, endpoint string) {
	t.Helper()
	r, props, err := e.client.loadCluster(context.Background(), e.ref)
	if err != nil {
		t.Fatal(err)
	}
	props.ManagementEndpoint = endpoint
	if _, err := e.client.saveCluster(context.Background(), r, props); err != nil {
		t.Fatal(err)
	}
}

func TestCheckEndpoint(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	e := newTestEnv(t).withCluster(t)
	setManagementEndpoint(t, e, server.URL)

	report, err := e.client.CheckEndpoint(context.Background(), e.ref, EndpointCheckOptions{Count: 2, Insecure: true})
	if err != nil {
		t.Fatalf("CheckEndpoint() unexpected error: %v", err)
	}
	if report.Host != "127.0.0.1" || len(report.Addresses) != 1 {
		t.Errorf("host/addresses = %s %v", report.Host, report.Addresses)
	}
	if !report.Reachable || len(report.Checks) != 2 {
		t.Errorf("report = %+v", report)
	}
	if report.Checks[0].StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", report.Checks[0].StatusCode)
	}
	if len(report.Ports) != 2 || report.Ports[0].Port != 19000 || report.Ports[1].Port != 19080 {
		t.Errorf("ports = %+v, want the node type ports 19000 and 19080", report.Ports)
	}

	serverPort := server.Listener.Addr().(*net.TCPAddr).Port
	report, err = e.client.CheckEndpoint(context.Background(), e.ref, EndpointCheckOptions{Insecure: true, Ports: []int{serverPort}})
	if err != nil {
		t.Fatalf("CheckEndpoint() unexpected error: %v", err)
	}
	if len(report.Ports) != 1 || !report.Ports[0].Open() {
		t.Errorf("ports = %+v, want the gateway port open", report.Ports)
	}
}

func TestCheckEndpoint_Errors(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.client.CheckEndpoint(context.Background(), e.ref, EndpointCheckOptions{}); !errors.Is(err, cloud.ErrNotFound) {
		t.Errorf("missing cluster: err = %v, want ErrNotFound", err)
	}

	// The fake leaves the template expression unresolved.
	e.withCluster(t)
	if _, err := e.client.CheckEndpoint(context.Background(), e.ref, EndpointCheckOptions{}); err == nil {
		t.Error("expected error for an unresolved managementEndpoint")
	}

	setManagementEndpoint(t, e, "not a url")
	if _, err := e.client.CheckEndpoint(context.Background(), e.ref, EndpointCheckOptions{}); err == nil {
		t.Error("expected error for invalid managementEndpoint")
	}
}

func TestCheckEndpoint_ResolveFailure(t *testing.T) {
	e := newTestEnv(t).withCluster(t)
	setManagementEndpoint(t, e, "https://sfcluster.invalid:19080")
	opts := EndpointCheckOptions{DNSServer: "127.0.0.1:1", ResolveAttempts: 1, Timeout: time.Second}
	_, err := e.client.CheckEndpoint(context.Background(), e.ref, opts)
	if err == nil || !strings.Contains(err.Error(), "falha ao resolver sfcluster.invalid") {
		t.Fatalf("expected resolve error, got %v", err)
	}
}

// startDNSServer sobe um servidor DNS que responde rcode a toda consulta e
// conta as consultas recebidas.
func startDNSServer(t *testing.T, rcode int) (string, *atomic.Int32) {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("falha ao abrir porta UDP: %v", err)
	}

	var queries atomic.Int32
	handler := mdns.HandlerFunc(func(w mdns.ResponseWriter, req *mdns.Msg) {
		queries.Add(1)
		resp := new(mdns.Msg)
		resp.SetRcode(req, rcode)
		_ = w.WriteMsg(resp)
	})

	started := make(chan struct{})
	srv := &mdns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String(), &queries
}

func TestCheckEndpoint_ResolveRetries(t *testing.T) {
	testCases := []struct {
		name    string
		rcode   int
		queries int32
	}{
		{name: "refused is not retried", rcode: mdns.RcodeRefused, queries: 1},
		{name: "nxdomain is retried", rcode: mdns.RcodeNameError, queries: 3},
	}

	orig := retry.ResolvePolicy
	retry.ResolvePolicy = retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	t.Cleanup(func() { retry.ResolvePolicy = orig })

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server, queries := startDNSServer(t, tc.rcode)
			e := newTestEnv(t).withCluster(t)
			setManagementEndpoint(t, e, "https://sfcluster.westus.cloudapp.azure.com:19080")

			_, err := e.client.CheckEndpoint(context.Background(), e.ref, EndpointCheckOptions{DNSServer: server, Timeout: time.Second})
			if err == nil {
				t.Fatal("expected resolve error")
			}
			if strings.Contains(err.Error(), "max attempts") != (tc.queries > 1) {
				t.Errorf("unexpected error wrapping: %v", err)
			}
			if got := queries.Load(); got != tc.queries {
				t.Errorf("queries = %d, want %d", got, tc.queries)
			}
		})
	}
}

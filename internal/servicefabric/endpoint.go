package servicefabric

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/estudosdevops/fabricctl/internal/dns"
	"github.com/estudosdevops/fabricctl/internal/monitor"
	"github.com/estudosdevops/fabricctl/internal/retry"
	"github.com/estudosdevops/fabricctl/internal/scanner"
)

// EndpointCheckOptions controla "sf cluster endpoint check".
type EndpointCheckOptions struct {
	DNSServer string
	// ResolveAttempts limita as tentativas de resolução; 0 usa retry.ResolvePolicy.
	ResolveAttempts int
	Count           int
	Interval        time.Duration
	Timeout         time.Duration
	Insecure        bool
	// Ports substitui as portas de cliente e gateway dos node types.
	Ports []int
}

// EndpointReport é o resultado da verificação do endpoint de gerenciamento.
type EndpointReport struct {
	Endpoint  string               `json:"endpoint"`
	Host      string               `json:"host"`
	Addresses []string             `json:"addresses"`
	Reachable bool                 `json:"reachable"`
	Checks    []monitor.Result     `json:"checks"`
	Ports     []scanner.ScanResult `json:"ports,omitempty"`
}

// CheckEndpoint resolve o host do managementEndpoint do cluster e faz
// requisições HTTP nele. Falha de DNS é erro; endpoint que não responde
// aparece no relatório com reachable=false.
func (c *Client) CheckEndpoint(ctx context.Context, ref ClusterRef, opts EndpointCheckOptions) (*EndpointReport, error) {
	_, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}
	if props.ManagementEndpoint == "" {
		return nil, fmt.Errorf("o cluster %s ainda não tem managementEndpoint", ref.Name)
	}

	u, err := url.Parse(props.ManagementEndpoint)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("managementEndpoint inválido %q", props.ManagementEndpoint)
	}

	report := &EndpointReport{Endpoint: props.ManagementEndpoint, Host: u.Hostname()}

	policy := retry.ResolvePolicy
	if opts.ResolveAttempts > 0 {
		policy.MaxAttempts = opts.ResolveAttempts
	}
	resolver := &dns.Resolver{Server: opts.DNSServer}
	err = retry.Do(ctx, c.log, policy, func(ctx context.Context) error {
		var resolveErr error
		report.Addresses, resolveErr = resolver.Addresses(ctx, report.Host)
		var rcodeErr *dns.RcodeError
		if errors.As(resolveErr, &rcodeErr) && !rcodeErr.Temporary() {
			return retry.Permanent(resolveErr)
		}
		return resolveErr
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao resolver %s: %w", report.Host, err)
	}
	c.log.Info("Endpoint resolvido", "host", report.Host, "enderecos", report.Addresses)

	report.Checks = monitor.Watch(ctx, c.log, props.ManagementEndpoint, monitor.Options{
		Interval: opts.Interval,
		Count:    opts.Count,
		Timeout:  opts.Timeout,
		Insecure: opts.Insecure,
	})
	for _, check := range report.Checks {
		if check.Reachable() {
			report.Reachable = true
			break
		}
	}

	ports := opts.Ports
	if len(ports) == 0 {
		ports = nodeTypePorts(props.NodeTypes)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	report.Ports = scanner.ScanPorts(ctx, report.Addresses[0], ports, timeout)
	return report, nil
}

// nodeTypePorts junta as portas de cliente e do gateway HTTP de todos os node types.
func nodeTypePorts(nodeTypes []NodeType) []int {
	var ports []int
	for _, nt := range nodeTypes {
		for _, p := range []int{nt.ClientConnectionEndpointPort, nt.HTTPGatewayEndpointPort} {
			if p > 0 {
				ports = append(ports, p)
			}
		}
	}
	return ports
}

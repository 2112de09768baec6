// fabricctl/internal/dns/dns.go
package dns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// minDNSRecordParts define o número mínimo de partes que esperamos em uma resposta de registro DNS.
const minDNSRecordParts = 4

// Valores padrão do Resolver.
const (
	DefaultServer  = "8.8.8.8:53"
	defaultTimeout = 5 * time.Second
)

// RcodeError é uma resposta do servidor com código diferente de NOERROR.
type RcodeError struct {
	Domain string
	Rcode  int
}

func (e *RcodeError) Error() string {
	return fmt.Sprintf("o servidor DNS retornou um erro para %s: %s", e.Domain, dns.RcodeToString[e.Rcode])
}

// Temporary informa se a mesma consulta pode dar certo mais tarde:
// NXDOMAIN enquanto o registro propaga, ou SERVFAIL.
func (e *RcodeError) Temporary() bool {
	return e.Rcode == dns.RcodeNameError || e.Rcode == dns.RcodeServerFailure
}

// Resolver consulta um servidor DNS específico.
type Resolver struct {
	Server  string
	Timeout time.Duration
}

func (r *Resolver) server() string {
	if r.Server == "" {
		return DefaultServer
	}
	if _, _, err := net.SplitHostPort(r.Server); err != nil {
		// Sem porta explícita, usamos a porta padrão de DNS.
		return net.JoinHostPort(r.Server, "53")
	}
	return r.Server
}

func (r *Resolver) exchange(ctx context.Context, domain string, qType uint16) (*dns.Msg, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	client := &dns.Client{Timeout: timeout}

	// Garante que o domínio termine com um ponto (FQDN).
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qType)
	msg.RecursionDesired = true

	response, _, err := client.ExchangeContext(ctx, msg, r.server())
	if err != nil {
		return nil, fmt.Errorf("falha ao se comunicar com o servidor DNS: %w", err)
	}
	if response.Rcode != dns.RcodeSuccess {
		return nil, &RcodeError{Domain: domain, Rcode: response.Rcode}
	}
	return response, nil
}

// Query realiza uma consulta DNS específica para um domínio e tipo de registro.
// Cada resultado é o conteúdo do registro, sem nome, TTL, classe e tipo.
func (r *Resolver) Query(ctx context.Context, domain, recordType string) ([]string, error) {
	// Converte a string do tipo de registro (ex: "MX") para o tipo numérico que a biblioteca DNS usa.
	qType := dns.StringToType[strings.ToUpper(recordType)]
	if qType == 0 {
		return nil, fmt.Errorf("tipo de registro DNS inválido: %s", recordType)
	}

	response, err := r.exchange(ctx, domain, qType)
	if err != nil {
		return nil, err
	}

	var results []string
	for _, answer := range response.Answer {
		parts := strings.Fields(answer.String())
		if len(parts) > minDNSRecordParts {
			results = append(results, strings.Join(parts[4:], " "))
		}
	}
	return results, nil
}

// Addresses resolve os registros A e AAAA de host. Um IP literal é
// devolvido como está.
func (r *Resolver) Addresses(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{ip.String()}, nil
	}

	var addrs []string
	for _, qType := range []uint16{dns.TypeA, dns.TypeAAAA} {
		response, err := r.exchange(ctx, host, qType)
		if err != nil {
			return nil, err
		}
		for _, answer := range response.Answer {
			switch rr := answer.(type) {
			case *dns.A:
				addrs = append(addrs, rr.A.String())
			case *dns.AAAA:
				addrs = append(addrs, rr.AAAA.String())
			}
		}
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("nenhum endereço encontrado para %s", host)
	}
	return addrs, nil
}

// fabricctl/internal/monitor/http_monitor.go
package monitor

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// defaultCheckTimeout define o tempo limite padrão para cada verificação HTTP.
const defaultCheckTimeout = 10 * time.Second

// Options controla a sondagem de um endpoint.
type Options struct {
	Interval time.Duration
	Count    int
	Timeout  time.Duration
	// Insecure aceita o certificado autoassinado do cluster.
	Insecure bool
}

// Result é o resultado de uma verificação.
type Result struct {
	URL        string        `json:"url"`
	StatusCode int           `json:"statusCode,omitempty"`
	Status     string        `json:"status,omitempty"`
	Latency    time.Duration `json:"latency"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
}

// Reachable indica se o endpoint respondeu. Qualquer resposta HTTP conta:
// o gateway do cluster responde 403 quando não há certificado de cliente.
func (r Result) Reachable() bool {
	return r.Err == nil && r.StatusCode > 0
}

func (r Result) String() string {
	latency := float64(r.Latency.Microseconds()) / 1000
	if r.Err != nil {
		return fmt.Sprintf("FALHA: %s - Erro de conexão: %v", r.URL, r.Err)
	}
	return fmt.Sprintf("SUCESSO: %s - Status: %s (%.2fms)", r.URL, r.Status, latency)
}

func newClient(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultCheckTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // endpoint do cluster usa certificado autoassinado
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// checkURL realiza uma única verificação HTTP na URL fornecida.
func checkURL(ctx context.Context, client *http.Client, url string) Result {
	result := Result{URL: url}
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		result.Err = fmt.Errorf("erro ao criar requisição: %w", err)
		result.Error = result.Err.Error()
		return result
	}

	resp, err := client.Do(req)
	result.Latency = time.Since(startTime)
	if err != nil {
		result.Err = err
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Status = resp.Status
	return result
}

// Watch verifica a URL opts.Count vezes (no mínimo uma), esperando
// opts.Interval entre as verificações. Para antes se ctx for cancelado.
func Watch(ctx context.Context, log *slog.Logger, url string, opts Options) []Result {
	client := newClient(opts)
	count := max(opts.Count, 1)

	log.Info("Iniciando verificação do endpoint", "url", url, "vezes", count)

	results := make([]Result, 0, count)
	for i := range count {
		if i > 0 {
			if ctx.Err() != nil {
				return results
			}
			select {
			case <-ctx.Done():
				return results
			case <-time.After(opts.Interval):
			}
		}
		result := checkURL(ctx, client, url)
		log.Info(result.String())
		results = append(results, result)
	}
	return results
}

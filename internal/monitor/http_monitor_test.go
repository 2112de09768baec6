// fabricctl/internal/monitor/http_monitor_test.go
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/estudosdevops/fabricctl/internal/logger"
)

// TestCheckURL testa a nossa função de verificação de URL.
func TestCheckURL(t *testing.T) {
	// Cria um servidor de teste que responderá às nossas requisições.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/success" {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "Tudo certo!")
		} else {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, "Sem certificado de cliente")
		}
	}))
	defer server.Close()

	testCases := []struct {
		name           string
		urlToTest      string
		expectedResult string
		reachable      bool
	}{
		{name: "URL com sucesso", urlToTest: server.URL + "/success", expectedResult: "SUCESSO", reachable: true},
		{name: "Gateway sem certificado ainda responde", urlToTest: server.URL + "/explorer", expectedResult: "403", reachable: true},
		{name: "URL que não existe (erro de conexão)", urlToTest: "http://127.0.0.1:1", expectedResult: "FALHA"},
	}

	client := newClient(Options{})
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := checkURL(context.Background(), client, tc.urlToTest)
			if !strings.Contains(result.String(), tc.expectedResult) {
				t.Errorf("Resultado inesperado. Esperava conter '%s', mas recebi: '%s'", tc.expectedResult, result)
			}
			if result.Reachable() != tc.reachable {
				t.Errorf("Reachable() = %v, esperado %v", result.Reachable(), tc.reachable)
			}
		})
	}
}

func TestWatch_TLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// Sem --insecure o certificado autoassinado é rejeitado.
	results := Watch(context.Background(), logger.Discard(), server.URL, Options{})
	if len(results) != 1 || results[0].Reachable() {
		t.Errorf("esperava uma falha de TLS, recebi %+v", results)
	}

	results = Watch(context.Background(), logger.Discard(), server.URL, Options{Insecure: true, Count: 3})
	if len(results) != 3 {
		t.Fatalf("esperava 3 resultados, recebi %d", len(results))
	}
	for _, r := range results {
		if !r.Reachable() || r.StatusCode != http.StatusOK {
			t.Errorf("resultado inesperado: %+v", r)
		}
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Watch(ctx, logger.Discard(), server.URL, Options{Count: 5})
	if len(results) != 1 {
		t.Errorf("esperava parar após a primeira verificação, recebi %d resultados", len(results))
	}
}

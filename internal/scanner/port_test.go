package scanner

import (
	"context"
	"net"
	"reflect"
	"testing"
	"time"
)

func TestParsePorts(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedPorts []int
		expectError   bool
	}{
		{name: "Portas do cluster", input: "19000,19080", expectedPorts: []int{19000, 19080}},
		{name: "Intervalo de portas", input: "20000-20002", expectedPorts: []int{20000, 20001, 20002}},
		{name: "Combinação com espaços", input: "19000, 20000-20001", expectedPorts: []int{19000, 20000, 20001}},
		{name: "Texto", input: "19000,abc", expectError: true},
		{name: "Intervalo invertido", input: "100-90", expectError: true},
		{name: "Fora do intervalo válido", input: "80, 99999", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ports, err := ParsePorts(tc.input)
			if tc.expectError && err == nil {
				t.Errorf("Esperava um erro, mas recebi nil")
			}
			if !tc.expectError && err != nil {
				t.Errorf("Não esperava um erro, mas recebi: %v", err)
			}
			if !reflect.DeepEqual(ports, tc.expectedPorts) {
				t.Errorf("Lista de portas inesperada. Esperado: %v, Recebido: %v", tc.expectedPorts, ports)
			}
		})
	}
}

func TestIsValidPort(t *testing.T) {
	testCases := []struct {
		port     int
		expected bool
	}{
		{port: 1, expected: true},
		{port: 19080, expected: true},
		{port: 65535, expected: true},
		{port: 0, expected: false},
		{port: 65536, expected: false},
		{port: -1, expected: false},
	}

	for _, tc := range testCases {
		if got := isValidPort(tc.port); got != tc.expected {
			t.Errorf("isValidPort(%d) = %v, esperado %v", tc.port, got, tc.expected)
		}
	}
}

// listen abre uma porta local que aceita conexões até o fim do teste.
func listen(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Não foi possível criar o servidor de teste: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return listener.Addr().(*net.TCPAddr).Port
}

// closedPort devolve uma porta que estava livre e foi fechada.
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Não foi possível encontrar uma porta livre para o teste: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestScanPorts(t *testing.T) {
	open := listen(t)
	closed := closedPort(t)

	results := ScanPorts(context.Background(), "127.0.0.1", []int{closed, open, open}, time.Second)
	if len(results) != 2 {
		t.Fatalf("Esperava 2 resultados sem repetição, recebi %d: %v", len(results), results)
	}

	status := map[int]string{}
	for _, r := range results {
		status[r.Port] = r.Status
	}
	if status[open] != StatusOpen {
		t.Errorf("porta %d: esperado %s, recebido %s", open, StatusOpen, status[open])
	}
	if status[closed] != StatusClosed {
		t.Errorf("porta %d: esperado %s, recebido %s", closed, StatusClosed, status[closed])
	}
	if results[0].Port > results[1].Port {
		t.Errorf("resultados fora de ordem: %v", results)
	}
}

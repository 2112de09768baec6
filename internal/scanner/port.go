// Package scanner testa portas TCP dos nós do cluster.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Status possíveis de uma porta.
const (
	StatusOpen     = "Aberta"
	StatusClosed   = "Fechada"
	StatusFiltered = "Timeout/Filtrado"
)

// ScanResult armazena o resultado da verificação de uma única porta.
type ScanResult struct {
	Port   int    `json:"port"`
	Status string `json:"status"`
}

// Open informa se a conexão TCP foi aceita.
func (r ScanResult) Open() bool {
	return r.Status == StatusOpen
}

// isValidPort verifica se um número de porta está no intervalo válido (1-65535).
func isValidPort(port int) bool {
	return port >= 1 && port <= 65535
}

// scanPort tenta se conectar a uma única porta.
func scanPort(ctx context.Context, host string, port int, timeout time.Duration) ScanResult {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		// "connection refused" significa que o host respondeu, mas a porta está fechada.
		if errors.Is(err, syscall.ECONNREFUSED) {
			return ScanResult{Port: port, Status: StatusClosed}
		}
		return ScanResult{Port: port, Status: StatusFiltered}
	}
	conn.Close()
	return ScanResult{Port: port, Status: StatusOpen}
}

// ParsePorts interpreta listas como "19000,19080" ou "20000-20002".
func ParsePorts(portRange string) ([]int, error) {
	var ports []int
	for _, part := range strings.Split(portRange, ",") {
		part = strings.TrimSpace(part)
		if startStr, endStr, isRange := strings.Cut(part, "-"); isRange {
			start, err1 := strconv.Atoi(startStr)
			end, err2 := strconv.Atoi(endStr)
			if err1 != nil || err2 != nil || start > end {
				return nil, fmt.Errorf("intervalo de portas numérico inválido: %s", part)
			}
			if !isValidPort(start) || !isValidPort(end) {
				return nil, fmt.Errorf("número de porta fora do intervalo válido (1-65535): %s", part)
			}
			for i := start; i <= end; i++ {
				ports = append(ports, i)
			}
			continue
		}

		port, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("porta inválida: %s", part)
		}
		if !isValidPort(port) {
			return nil, fmt.Errorf("número de porta fora do intervalo válido (1-65535): %s", part)
		}
		ports = append(ports, port)
	}
	return ports, nil
}

// ScanPorts verifica as portas de forma concorrente. O resultado vem
// ordenado por porta e sem repetições.
func ScanPorts(ctx context.Context, host string, ports []int, timeout time.Duration) []ScanResult {
	ports = slices.Clone(ports)
	slices.Sort(ports)
	ports = slices.Compact(ports)

	results := make([]ScanResult, len(ports))
	var wg sync.WaitGroup
	for i, port := range ports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = scanPort(ctx, host, port, timeout)
		}()
	}
	wg.Wait()
	return results
}

package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
)

// TestNew verifica o formato da linha e o filtro de nível.
func TestNew(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo)

	log.Debug("não deve aparecer")
	log.Info("Validando o deployment", "grupo", "rg-teste")

	out := buf.String()
	if strings.Contains(out, "não deve aparecer") {
		t.Errorf("Mensagem de debug não deveria ser escrita. Saída:\n%s", out)
	}
	if !strings.Contains(out, "[INFO] [fabricctl]: Validando o deployment grupo=rg-teste") {
		t.Errorf("Formato inesperado. Saída:\n%s", out)
	}
}

// TestWithAttrs verifica que atributos fixos aparecem antes dos atributos do registro.
func TestWithAttrs(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug).With("cluster", "sf-01")
	log.Debug("Buscando cluster", "tentativa", 1)

	out := buf.String()
	if !strings.Contains(out, "cluster=sf-01 tentativa=1") {
		t.Errorf("Atributos fora de ordem. Saída:\n%s", out)
	}
}

// TestSetLevel verifica que Get() respeita o nível global.
func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(slog.LevelInfo) })

	SetLevel(slog.LevelDebug)
	if !Get().Enabled(t.Context(), slog.LevelDebug) {
		t.Error("Esperava debug habilitado após SetLevel(LevelDebug)")
	}

	SetLevel(slog.LevelWarn)
	if Get().Enabled(t.Context(), slog.LevelInfo) {
		t.Error("Esperava info desabilitado após SetLevel(LevelWarn)")
	}
}

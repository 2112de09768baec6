// fabricctl/internal/logger/logger.go
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
)

// CustomTextHandler é o nosso handler customizado que formata cada linha de log.
type CustomTextHandler struct {
	out   io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// level global usado por Get(); alterado pela flag --verbose.
var level = new(slog.LevelVar)

// SetLevel define o nível mínimo dos loggers criados por Get().
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Get retorna uma instância pré-configurada do logger, escrevendo em stderr.
// A saída padrão fica reservada para o JSON dos recursos.
func Get() *slog.Logger {
	return New(os.Stderr, level)
}

// New cria um logger com o nosso formato escrevendo no writer informado.
func New(w io.Writer, lvl slog.Leveler) *slog.Logger {
	return slog.New(&CustomTextHandler{
		out:   w,
		mu:    &sync.Mutex{},
		level: lvl,
	})
}

// Discard retorna um logger que descarta tudo. Útil em testes.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError+1)
}

// Handle é o método que formata cada entrada de log.
func (h *CustomTextHandler) Handle(_ context.Context, r slog.Record) error {
	// Formata o nível do log com cor.
	levelStr := r.Level.String()
	switch {
	case r.Level < slog.LevelInfo:
		levelStr = color.MagentaString(levelStr)
	case r.Level < slog.LevelWarn:
		levelStr = color.GreenString(levelStr)
	case r.Level < slog.LevelError:
		levelStr = color.YellowString(levelStr)
	default:
		levelStr = color.RedString(levelStr)
	}

	prefix := ""
	if h.group != "" {
		prefix = h.group + "."
	}

	// Atributos fixos (WithAttrs) vêm antes dos atributos do registro.
	attrs := ""
	for _, a := range h.attrs {
		attrs += " " + color.CyanString(prefix+a.Key+"=") + a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs += " " + color.CyanString(prefix+a.Key+"=") + a.Value.String()
		return true
	})

	// Ex: 15:04:05.000 [INFO] [fabricctl]: Mensagem principal key=value
	logLine := fmt.Sprintf("%s [%s] %s: %s%s\n",
		r.Time.Format("15:04:05.000"),
		levelStr,
		color.BlueString("[fabricctl]"),
		r.Message,
		attrs,
	)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, logLine)
	return err
}

// WithAttrs e WithGroup são necessários para implementar a interface slog.Handler.
func (h *CustomTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *CustomTextHandler) WithGroup(name string) slog.Handler {
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}

func (h *CustomTextHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

// Package presenter escreve os resultados dos comandos em JSON, YAML ou tabela.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formatos de saída aceitos por --output.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// Formats lista os formatos na ordem da ajuda.
var Formats = []string{FormatJSON, FormatYAML, FormatTable}

// tableColumns são as colunas da saída em tabela e a chave lida em cada recurso.
var tableColumns = []struct {
	header string
	key    string
}{
	{"NOME", "name"},
	{"TIPO", "type"},
	{"LOCALIZAÇÃO", "location"},
	{"ESTADO", "provisioningState"},
}

// Printer escreve valores no formato escolhido.
type Printer struct {
	Out    io.Writer
	Format string
}

// Print escreve v. Recursos achatados e o envelope {"value": [...]} viram
// linhas na tabela; YAML segue os nomes de campo do JSON.
func (p *Printer) Print(v any) error {
	if v == nil {
		return nil
	}

	switch strings.ToLower(p.Format) {
	case "", FormatJSON:
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("falha ao serializar JSON: %w", err)
		}
		_, err = fmt.Fprintln(p.Out, string(raw))
		return err
	case FormatYAML:
		node, err := toYAMLNode(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.Out)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return fmt.Errorf("falha ao serializar YAML: %w", err)
		}
		return enc.Close()
	case FormatTable:
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		return p.printTable(generic)
	default:
		return fmt.Errorf("formato de saída inválido %q (use %s)", p.Format, strings.Join(Formats, ", "))
	}
}

// toGeneric passes v through JSON so every format sees the same field names.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("falha ao serializar: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("falha ao serializar: %w", err)
	}
	return out, nil
}

// toYAMLNode lê o JSON de v como documento YAML, mantendo a ordem das chaves.
func toYAMLNode(v any) (*yaml.Node, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("falha ao serializar: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("falha ao serializar: %w", err)
	}
	blockStyle(&doc)
	return &doc, nil
}

// blockStyle troca o estilo de fluxo herdado do JSON pelo estilo de bloco.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func (p *Printer) printTable(v any) error {
	var items []any
	switch t := v.(type) {
	case map[string]any:
		if list, ok := t["value"].([]any); ok && len(t) == 1 {
			items = list
		} else {
			items = []any{t}
		}
	case []any:
		items = t
	default:
		_, err := fmt.Fprintln(p.Out, t)
		return err
	}

	header := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		header[i] = c.header
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		row := make([]string, len(tableColumns))
		for i, c := range tableColumns {
			if s, ok := m[c.key]; ok && s != nil {
				row[i] = fmt.Sprint(s)
			}
		}
		rows = append(rows, row)
	}
	return PrintTable(p.Out, header, rows)
}

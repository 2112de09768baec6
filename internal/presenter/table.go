package presenter

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// PrintTable formata e imprime dados em uma tabela.
// Ela recebe o cabeçalho e as linhas como fatias de strings.
func PrintTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)

	cols := make([]any, len(header))
	for i, h := range header {
		cols[i] = h
	}
	table.Header(cols...)

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

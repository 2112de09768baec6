package sfutil

import (
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/internal/flags"
)

// NoArgs rejeita argumentos posicionais com um erro de uso.
func NoArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return flags.Usagef("unexpected argument %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

// Group cria um comando que só agrupa subcomandos.
func Group(use, short string, children ...*cobra.Command) *cobra.Command {
	group := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	group.AddCommand(children...)
	return group
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version é sobrescrita no build via -ldflags "-X".
var Version = "v0.1.0"

// newVersionCommand cria o comando "version".
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Exibe o número da versão do fabricctl",
		Long:  `Exibe o número da versão da ferramenta de CLI fabricctl.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "fabricctl", Version)
		},
	}
}

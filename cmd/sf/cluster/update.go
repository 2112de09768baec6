package cluster

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

func newUpgradeTypeCommand(f *sfutil.Factory) *cobra.Command {
	mode := flags.NewEnumValue("", servicefabric.UpgradeModeValues...)
	var version string

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Define o modo de upgrade do runtime do cluster",
		Example: heredoc.Doc(`
			# Fixa a versão do runtime
			fabricctl sf cluster upgrade-type set -g meu-rg -n meu-cluster --upgrade-mode manual --version 7.0.470.9590

			# Volta para upgrades automáticos
			fabricctl sf cluster upgrade-type set -g meu-rg -n meu-cluster --upgrade-mode automatic
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(
				flags.Required("--upgrade-mode", mode.String()),
				flags.When(mode.String() == "manual", flags.Required("--version", version)),
			); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			cluster, err := client.SetUpgradeType(ctx, ref, mode.String(), version)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	setCmd.Flags().Var(mode, "upgrade-mode", "Modo de upgrade: manual ou automatic")
	setCmd.Flags().StringVar(&version, "version", "", "Versão do runtime do cluster")

	return sfutil.Group("upgrade-type", "Gerencia o modo de upgrade do cluster", setCmd)
}

func newReliabilityCommand(f *sfutil.Factory) *cobra.Command {
	level := flags.NewEnumValue("", servicefabric.ReliabilityValues...)
	var autoAddNode bool

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Altera o nível de confiabilidade do cluster",
		Example: heredoc.Doc(`
			fabricctl sf cluster reliability update -g meu-rg -n meu-cluster --reliability-level Gold --auto-add-node
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(flags.Required("--reliability-level", level.String())); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			cluster, err := client.UpdateReliability(ctx, ref, level.String(), autoAddNode)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	updateCmd.Flags().Var(level, "reliability-level", "Nível de confiabilidade: Bronze, Silver, Gold ou Platinum")
	updateCmd.Flags().BoolVar(&autoAddNode, "auto-add-node", false, "Adiciona nós ao node type primário quando o nível exigir")

	return sfutil.Group("reliability", "Gerencia o nível de confiabilidade do cluster", updateCmd)
}

func newDurabilityCommand(f *sfutil.Factory) *cobra.Command {
	level := flags.NewEnumValue("", servicefabric.DurabilityValues...)
	var nodeType string

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Altera a durabilidade de um node type",
		Example: heredoc.Doc(`
			fabricctl sf cluster durability update -g meu-rg -n meu-cluster --node-type nt1vm --durability-level Silver
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(
				flags.Required("--node-type", nodeType),
				flags.Required("--durability-level", level.String()),
			); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			cluster, err := client.UpdateDurability(ctx, ref, nodeType, level.String())
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	updateCmd.Flags().StringVar(&nodeType, "node-type", "", "Nome do node type")
	updateCmd.Flags().Var(level, "durability-level", "Durabilidade: Bronze, Silver ou Gold")

	return sfutil.Group("durability", "Gerencia a durabilidade dos node types", updateCmd)
}

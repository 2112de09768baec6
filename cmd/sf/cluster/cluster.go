// cmd/sf/cluster/cluster.go
package cluster

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/logger"
)

// NewCommand cria o comando pai "cluster".
func NewCommand(f *sfutil.Factory) *cobra.Command {
	clusterCmd := sfutil.Group("cluster", "Gerencia clusters do Service Fabric",
		newListCommand(f),
		newShowCommand(f),
		newCreateCommand(f),
		newWaitCommand(f),
		newCertificateCommand(f),
		newClientCertificateCommand(f),
		newSettingCommand(f),
		newUpgradeTypeCommand(f),
		newReliabilityCommand(f),
		newDurabilityCommand(f),
		newNodeCommand(f),
		newNodeTypeCommand(f),
		newEndpointCommand(f),
	)
	clusterCmd.Long = `Cria, lista, escala e configura clusters do Service Fabric e os scale sets de cada node type.`
	return clusterCmd
}

func newListCommand(f *sfutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista os clusters do resource group ou da subscription",
		Example: heredoc.Doc(`
			# Lista todos os clusters da subscription
			fabricctl sf cluster list

			# Lista os clusters de um resource group, em tabela
			fabricctl sf cluster list -g meu-rg -o table
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := f.Client()
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			clusters, err := client.ListClusters(ctx, f.ResourceGroup(cmd))
			if err != nil {
				return err
			}
			return f.PrintList(cmd, clusters)
		},
	}
}

func newShowCommand(f *sfutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Exibe um cluster",
		Example: heredoc.Doc(`
			fabricctl sf cluster show -g meu-rg -n meu-cluster
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			cluster, err := client.GetCluster(ctx, ref)
			if err != nil {
				return err
			}
			logger.Get().Debug("Cluster encontrado", "cluster", cluster.ID)
			return f.PrintResource(cmd, cluster)
		},
	}
}

package cluster

import (
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/logger"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

func newWaitCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.WaitOptions{}

	waitCmd := &cobra.Command{
		Use:   "wait",
		Short: "Espera o cluster chegar a um estado",
		Long: heredoc.Doc(`
			Consulta o cluster até provisioningState (e, se pedido, clusterState)
			chegar ao valor esperado. Um provisionamento Failed encerra a espera com erro.
		`),
		Example: heredoc.Doc(`
			# Espera o cluster ficar pronto
			fabricctl sf cluster wait -g meu-rg -n meu-cluster --cluster-state Ready

			# Espera a remoção do cluster
			fabricctl sf cluster wait -g meu-rg -n meu-cluster --deleted --timeout 30m
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Get()
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}

			timeout := opts.Timeout
			if timeout <= 0 {
				timeout = time.Hour
			}
			ctx, cancel := sfutil.Context(cmd, timeout+sfutil.ReadTimeout)
			defer cancel()

			log.Info("Aguardando o cluster...", "cluster", ref.Name, "timeout", timeout)
			cluster, err := client.WaitCluster(ctx, ref, opts)
			if err != nil {
				return err
			}
			if cluster == nil {
				log.Info("Cluster removido", "cluster", ref.Name)
				return nil
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	waitCmd.Flags().StringVar(&opts.ProvisioningState, "provisioning-state", "Succeeded", "provisioningState esperado")
	waitCmd.Flags().StringVar(&opts.ClusterState, "cluster-state", "", "clusterState esperado (ex: Ready)")
	waitCmd.Flags().BoolVar(&opts.Deleted, "deleted", false, "Espera até o cluster não existir mais")
	waitCmd.Flags().DurationVar(&opts.Interval, "interval", 30*time.Second, "Intervalo entre consultas")
	waitCmd.Flags().DurationVar(&opts.Timeout, "timeout", time.Hour, "Tempo máximo de espera")

	return waitCmd
}

package cluster

import (
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/logger"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

func newCreateCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.ClusterCreateOptions{}
	vmOS := flags.NewEnumValue(servicefabric.DefaultVMOS, servicefabric.VMOSValues...)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Cria um cluster a partir do template padrão ou de um template próprio",
		Long: heredoc.Doc(`
			Cria um cluster do Service Fabric via validar-e-implantar.

			Sem --template-file, usa o template embutido: um scale set, balanceador,
			IP público e rede virtual, com o certificado do Key Vault informado em
			--secret-identifier. Com --template-file, implanta o template informado
			com os valores de --parameter-file.
		`),
		Example: heredoc.Doc(`
			# Cluster padrão com 5 nós e certificado existente no Key Vault
			fabricctl sf cluster create -g meu-rg -n meu-cluster -l westus \
			  --secret-identifier https://meu-kv.vault.azure.net/secrets/cert/0123 \
			  --vm-password 'Pass@Word1' --cluster-size 5

			# Cluster a partir de um template próprio
			fabricctl sf cluster create -g meu-rg --template-file template.json --parameter-file parameters.json
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Get()
			opts.VMOS = vmOS.String()

			if err := flags.Validate(
				flags.When(opts.ParameterFile != "", flags.Required("--template-file", opts.TemplateFile)),
				flags.When(cmd.Flags().Changed("cluster-size"), flags.Check{Option: "--cluster-size", Check: func() error {
					_, err := servicefabric.ReliabilityForClusterSize(opts.ClusterSize)
					return err
				}}),
			); err != nil {
				return err
			}

			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			start := time.Now()
			cluster, err := client.CreateCluster(ctx, ref, opts)
			if err != nil {
				log.Error("Falha ao criar o cluster", "cluster", ref.Name, "erro", err)
				return err
			}
			log.Info("Cluster criado com sucesso!", "cluster", cluster.Name, "duração", time.Since(start).Round(time.Second))
			return f.PrintResource(cmd, cluster)
		},
	}

	createCmd.Flags().StringVarP(&opts.Location, "location", "l", "", "Região do cluster; se omitida, a do resource group")
	createCmd.Flags().StringVar(&opts.TemplateFile, "template-file", "", "Caminho do template ARM")
	createCmd.Flags().StringVar(&opts.ParameterFile, "parameter-file", "", "Caminho do arquivo de parâmetros do template")
	createCmd.Flags().StringVar(&opts.SecretIdentifier, "secret-identifier", "", "URL do segredo do Key Vault com o certificado do cluster")
	createCmd.Flags().StringVar(&opts.VaultResourceGroup, "vault-resource-group", "", "Resource group do Key Vault; se omitido, busca na subscription")
	createCmd.Flags().StringVar(&opts.VMPassword, "vm-password", "", "Senha das VMs")
	createCmd.Flags().StringVar(&opts.VMUserName, "vm-user-name", "", "Usuário das VMs (padrão adminuser)")
	createCmd.Flags().Var(vmOS, "vm-os", "Sistema operacional das VMs")
	createCmd.Flags().StringVar(&opts.VMSKU, "vm-sku", "", "SKU das VMs (padrão Standard_D2_V2)")
	createCmd.Flags().IntVarP(&opts.ClusterSize, "cluster-size", "s", 5, "Número de nós do cluster")

	return createCmd
}

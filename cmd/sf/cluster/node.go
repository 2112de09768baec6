package cluster

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/logger"
	"github.com/estudosdevops/fabricctl/internal/scanner"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

func newNodeCommand(f *sfutil.Factory) *cobra.Command {
	return sfutil.Group("node", "Escala os nós de um node type",
		newNodeResizeCommand(f, "add", "Adiciona nós a um node type", "number-of-nodes-to-add"),
		newNodeResizeCommand(f, "remove", "Remove nós de um node type", "number-of-nodes-to-remove"),
	)
}

func newNodeResizeCommand(f *sfutil.Factory, use, short, countFlag string) *cobra.Command {
	var nodeType string
	var count int

	resizeCmd := &cobra.Command{
		Use:   use,
		Short: short,
		Example: heredoc.Docf(`
			fabricctl sf cluster node %s -g meu-rg -n meu-cluster --node-type nt1vm --%s 2
		`, use, countFlag),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(
				flags.Required("--node-type", nodeType),
				flags.Range("--"+countFlag, int64(count), 1, 1000),
			); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			resize := client.AddNodes
			if use == "remove" {
				resize = client.RemoveNodes
			}
			cluster, err := resize(ctx, ref, nodeType, count)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	resizeCmd.Flags().StringVar(&nodeType, "node-type", "", "Nome do node type")
	resizeCmd.Flags().IntVar(&count, countFlag, 0, "Quantidade de nós")
	return resizeCmd
}

func newNodeTypeCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.NodeTypeAddOptions{}
	durability := flags.NewEnumValue("Bronze", servicefabric.DurabilityValues...)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Adiciona um node type ao cluster",
		Long: heredoc.Doc(`
			Cria o scale set do novo node type a partir do scale set primário,
			via validar-e-implantar, e registra o node type no cluster.
		`),
		Example: heredoc.Doc(`
			fabricctl sf cluster node-type add -g meu-rg -n meu-cluster --node-type nt2 --capacity 5 \
			  --vm-user-name admintest --vm-password 'Pass@Word1' --durability-level Gold --vm-sku Standard_D15_v2
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Get()
			opts.DurabilityLevel = durability.String()

			if err := flags.Validate(
				flags.Required("--node-type", opts.Name),
				flags.Required("--vm-password", opts.VMPassword),
				flags.Range("--capacity", int64(opts.Capacity), 1, 1000),
			); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			log.Info("Adicionando node type...", "nodeType", opts.Name, "cluster", ref.Name)
			cluster, err := client.AddNodeType(ctx, ref, opts)
			if err != nil {
				log.Error("Falha ao adicionar o node type", "nodeType", opts.Name, "erro", err)
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	addCmd.Flags().StringVar(&opts.Name, "node-type", "", "Nome do novo node type")
	addCmd.Flags().IntVar(&opts.Capacity, "capacity", 0, "Número de VMs do node type")
	addCmd.Flags().StringVar(&opts.VMUserName, "vm-user-name", "adminuser", "Usuário das VMs")
	addCmd.Flags().StringVar(&opts.VMPassword, "vm-password", "", "Senha das VMs")
	addCmd.Flags().Var(durability, "durability-level", "Durabilidade: Bronze, Silver ou Gold")
	addCmd.Flags().StringVar(&opts.VMSKU, "vm-sku", "", "SKU das VMs; se omitido, o do node type primário")
	addCmd.Flags().StringVar(&opts.VMTier, "vm-tier", "Standard", "Tier das VMs")

	return sfutil.Group("node-type", "Gerencia os node types do cluster", addCmd)
}

func newEndpointCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.EndpointCheckOptions{}
	var ports string

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve e testa o endpoint de gerenciamento do cluster",
		Example: heredoc.Doc(`
			# Três verificações, aceitando o certificado autoassinado do cluster
			fabricctl sf cluster endpoint check -g meu-rg -n meu-cluster --count 3 --insecure

			# Testa também as portas de aplicação
			fabricctl sf cluster endpoint check -g meu-rg -n meu-cluster --ports 19000,19080,20000-20010
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ports != "" {
				parsed, err := scanner.ParsePorts(ports)
				if err != nil {
					return flags.Usagef("--ports: %v", err)
				}
				opts.Ports = parsed
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			report, err := client.CheckEndpoint(ctx, ref, opts)
			if err != nil {
				return err
			}
			return f.Print(cmd, report)
		},
	}

	checkCmd.Flags().StringVar(&opts.DNSServer, "dns-server", "", "Servidor DNS (padrão 8.8.8.8:53)")
	checkCmd.Flags().IntVar(&opts.ResolveAttempts, "resolve-attempts", 0, "Tentativas de resolução DNS (padrão 4)")
	checkCmd.Flags().IntVar(&opts.Count, "count", 1, "Número de verificações HTTP")
	checkCmd.Flags().DurationVar(&opts.Interval, "interval", 0, "Intervalo entre verificações")
	checkCmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Tempo limite de cada verificação (padrão 10s)")
	checkCmd.Flags().BoolVar(&opts.Insecure, "insecure", false, "Aceita o certificado autoassinado do cluster")
	checkCmd.Flags().StringVar(&ports, "ports", "", "Portas TCP a testar, ex: 19000,19080 ou 20000-20010 (padrão: portas dos node types)")

	return sfutil.Group("endpoint", "Verifica o endpoint de gerenciamento do cluster", checkCmd)
}

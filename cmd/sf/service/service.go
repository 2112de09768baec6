// cmd/sf/service/service.go
package service

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/logger"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

// NewCommand cria o comando "service".
func NewCommand(f *sfutil.Factory) *cobra.Command {
	return sfutil.Group("service", "Gerencia os serviços das aplicações",
		newCreateCommand(f),
		newShowCommand(f),
		newListCommand(f),
		newDeleteCommand(f),
	)
}

// Flags de esquema de partição; exatamente uma é aceita.
var partitionSchemes = map[string]string{
	"--partition-scheme-singleton":     servicefabric.PartitionSingleton,
	"--partition-scheme-uniform-int64": servicefabric.PartitionUniformInt64Range,
	"--partition-scheme-named":         servicefabric.PartitionNamed,
}

func newCreateCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.ServiceCreateOptions{}
	moveCost := flags.NewEnumValue("", servicefabric.MoveCostValues...)
	var singleton, uniform, named bool

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Cria um serviço em uma aplicação",
		Long: heredoc.Doc(`
			Cria um serviço stateless ou stateful. O nome do serviço precisa ter
			o nome da aplicação como prefixo, no formato "aplicacao~servico".
		`),
		Example: heredoc.Doc(`
			# Stateless com uma instância por nó
			fabricctl sf service create -g meu-rg -n meu-cluster --application-name testApp \
			  --service-name testApp~testService --service-type testStateless --stateless \
			  --instance-count -1 --partition-scheme-singleton

			# Stateful com partições nomeadas
			fabricctl sf service create -g meu-rg -n meu-cluster --application-name testApp \
			  --service-name testApp~testService2 --service-type testStatefulType --stateful \
			  --min-replica-set-size 3 --target-replica-set-size 5 \
			  --partition-scheme-named --partition-names p0 p1
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Get()
			set := map[string]bool{
				"--partition-scheme-singleton":     singleton,
				"--partition-scheme-uniform-int64": uniform,
				"--partition-scheme-named":         named,
			}
			if err := flags.Validate(flags.ExactlyOne(set,
				"--partition-scheme-singleton", "--partition-scheme-uniform-int64", "--partition-scheme-named",
			)); err != nil {
				return err
			}
			for option, scheme := range partitionSchemes {
				if set[option] {
					opts.PartitionScheme = scheme
				}
			}
			opts.InstanceCount = sfutil.Int64If(cmd, "instance-count")
			opts.MinReplicaSetSize = sfutil.Int64If(cmd, "min-replica-set-size")
			opts.TargetReplicaSetSize = sfutil.Int64If(cmd, "target-replica-set-size")
			opts.PartitionCount = sfutil.Int64If(cmd, "partition-count")
			opts.DefaultMoveCost = moveCost.String()

			if err := servicefabric.ValidateCreateService(opts); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			log.Info("Criando serviço...", "serviço", opts.ServiceName, "aplicação", opts.ApplicationName)
			svc, err := client.CreateService(ctx, ref, opts)
			if err != nil {
				log.Error("Falha ao criar o serviço", "serviço", opts.ServiceName, "erro", err)
				return err
			}
			return f.PrintResource(cmd, svc)
		},
	}

	fs := createCmd.Flags()
	fs.StringVar(&opts.ApplicationName, "application-name", "", "Nome da aplicação")
	fs.StringVar(&opts.ServiceName, "service-name", "", "Nome do serviço, no formato aplicacao~servico")
	fs.StringVar(&opts.ServiceType, "service-type", "", "Nome do tipo de serviço")
	fs.BoolVar(&opts.Stateless, "stateless", false, "Cria um serviço stateless")
	fs.BoolVar(&opts.Stateful, "stateful", false, "Cria um serviço stateful")
	fs.Int64("instance-count", 0, "Instâncias do serviço stateless; -1 para uma por nó")
	fs.Int64("min-replica-set-size", 0, "Tamanho mínimo do replica set (stateful)")
	fs.Int64("target-replica-set-size", 0, "Tamanho alvo do replica set (stateful)")
	fs.Var(moveCost, "default-move-cost", "Custo padrão de mover o serviço: Zero, Low, Medium ou High")
	fs.BoolVar(&singleton, "partition-scheme-singleton", false, "Partição única")
	fs.BoolVar(&uniform, "partition-scheme-uniform-int64", false, "Partições por faixa uniforme de chaves int64")
	fs.BoolVar(&named, "partition-scheme-named", false, "Partições nomeadas")
	fs.Int64("partition-count", 0, "Número de partições (uniform-int64)")
	fs.StringVar(&opts.LowKey, "low-key", "", "Menor chave da faixa (uniform-int64)")
	fs.StringVar(&opts.HighKey, "high-key", "", "Maior chave da faixa (uniform-int64)")
	fs.StringSliceVar(&opts.PartitionNames, "partition-names", nil, "Nomes das partições (named)")

	return createCmd
}

// serviceFlags são os nomes usados por show e delete.
type serviceFlags struct {
	appName     string
	serviceName string
}

func (s *serviceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.appName, "application-name", "", "Nome da aplicação")
	cmd.Flags().StringVar(&s.serviceName, "service-name", "", "Nome do serviço")
}

func (s *serviceFlags) validate() error {
	return flags.Validate(
		flags.Required("--application-name", s.appName),
		flags.Required("--service-name", s.serviceName),
	)
}

func newShowCommand(f *sfutil.Factory) *cobra.Command {
	s := &serviceFlags{}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Exibe um serviço",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.validate(); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			svc, err := client.GetService(ctx, ref, s.appName, s.serviceName)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, svc)
		},
	}
	s.register(showCmd)
	return showCmd
}

func newListCommand(f *sfutil.Factory) *cobra.Command {
	var appName string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista os serviços de uma aplicação",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(flags.Required("--application-name", appName)); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			services, err := client.ListServices(ctx, ref, appName)
			if err != nil {
				return err
			}
			return f.PrintList(cmd, services)
		},
	}
	listCmd.Flags().StringVar(&appName, "application-name", "", "Nome da aplicação")
	return listCmd
}

func newDeleteCommand(f *sfutil.Factory) *cobra.Command {
	s := &serviceFlags{}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove um serviço",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.validate(); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			return client.DeleteService(ctx, ref, s.appName, s.serviceName)
		},
	}
	s.register(deleteCmd)
	return deleteCmd
}

// cmd/sf/application/application.go
package application

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/logger"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

// NewCommand cria o comando "application".
func NewCommand(f *sfutil.Factory) *cobra.Command {
	return sfutil.Group("application", "Gerencia as aplicações do cluster",
		newCreateCommand(f),
		newUpdateCommand(f),
		newShowCommand(f),
		newListCommand(f),
		newDeleteCommand(f),
	)
}

func newCreateCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.ApplicationCreateOptions{}
	params := flags.NewKeyValueValue("--application-parameters")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Cria uma aplicação",
		Long: heredoc.Doc(`
			Cria a aplicação a partir de uma versão de tipo. Com --package-url a
			versão é registrada antes, criando o tipo se ainda não existir.
		`),
		Example: heredoc.Doc(`
			# Versão já registrada
			fabricctl sf application create -g meu-rg -n meu-cluster --application-name testApp \
			  --application-type-name TestAppType --application-type-version 1.0

			# Registra a versão a partir do pacote e define parâmetros
			fabricctl sf application create -g meu-rg -n meu-cluster --application-name testApp \
			  --application-type-name TestAppType --version 1.0 \
			  --package-url https://meustorage.blob.core.windows.net/apps/TestApp_1.0.sfpkg \
			  --application-parameters key0=value0 key1=value1
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Get()
			opts.Parameters = params.Map()
			opts.MinimumNodes = sfutil.Int64If(cmd, "minimum-nodes")
			opts.MaximumNodes = sfutil.Int64If(cmd, "maximum-nodes")

			if err := servicefabric.ValidateCreateApplication(opts); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			log.Info("Criando aplicação...", "aplicação", opts.ApplicationName, "cluster", ref.Name)
			app, err := client.CreateApplication(ctx, ref, opts)
			if err != nil {
				log.Error("Falha ao criar a aplicação", "aplicação", opts.ApplicationName, "erro", err)
				return err
			}
			return f.PrintResource(cmd, app)
		},
	}

	createCmd.Flags().StringVar(&opts.ApplicationName, "application-name", "", "Nome da aplicação")
	createCmd.Flags().StringVar(&opts.TypeName, "application-type-name", "", "Nome do tipo de aplicação")
	createCmd.Flags().StringVar(&opts.TypeVersion, "application-type-version", "", "Versão do tipo de aplicação")
	createCmd.Flags().StringVar(&opts.TypeVersion, "version", "", "Sinônimo de --application-type-version")
	createCmd.Flags().StringVar(&opts.PackageURL, "package-url", "", "URL do pacote sfpkg; registra a versão antes de criar a aplicação")
	createCmd.Flags().Var(params, "application-parameters", "Parâmetros da aplicação no formato KEY=VALUE; repetir a flag substitui a lista anterior")
	createCmd.Flags().Int64("minimum-nodes", 0, "Número mínimo de nós onde a aplicação terá capacidade reservada")
	createCmd.Flags().Int64("maximum-nodes", 0, "Número máximo de nós onde a aplicação pode executar")

	return createCmd
}

func newShowCommand(f *sfutil.Factory) *cobra.Command {
	var appName string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Exibe uma aplicação",
		Example: heredoc.Doc(`
			fabricctl sf application show -g meu-rg -n meu-cluster --application-name testApp
		`),
		Args: sfutil.NoArgs,
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

			app, err := client.GetApplication(ctx, ref, appName)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, app)
		},
	}
	showCmd.Flags().StringVar(&appName, "application-name", "", "Nome da aplicação")
	return showCmd
}

func newListCommand(f *sfutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista as aplicações do cluster",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			apps, err := client.ListApplications(ctx, ref)
			if err != nil {
				return err
			}
			return f.PrintList(cmd, apps)
		},
	}
}

func newDeleteCommand(f *sfutil.Factory) *cobra.Command {
	var appName string

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove uma aplicação",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(flags.Required("--application-name", appName)); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			logger.Get().Info("Removendo aplicação...", "aplicação", appName, "cluster", ref.Name)
			return client.DeleteApplication(ctx, ref, appName)
		},
	}
	deleteCmd.Flags().StringVar(&appName, "application-name", "", "Nome da aplicação")
	return deleteCmd
}

// cmd/sf/applicationtype/applicationtype.go
package applicationtype

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/logger"
)

// NewCommand cria o comando "application-type".
func NewCommand(f *sfutil.Factory) *cobra.Command {
	return sfutil.Group("application-type", "Gerencia os tipos de aplicação do cluster",
		newTypeCreateCommand(f),
		newTypeShowCommand(f),
		newTypeListCommand(f),
		newTypeDeleteCommand(f),
	)
}

func typeNameFlag(cmd *cobra.Command, typeName *string) {
	cmd.Flags().StringVar(typeName, "application-type-name", "", "Nome do tipo de aplicação")
}

func newTypeCreateCommand(f *sfutil.Factory) *cobra.Command {
	var typeName string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Cria um tipo de aplicação",
		Example: heredoc.Doc(`
			fabricctl sf application-type create -g meu-rg -n meu-cluster --application-type-name CalcServiceApp
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(flags.Required("--application-type-name", typeName)); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			appType, err := client.CreateApplicationType(ctx, ref, typeName)
			if err != nil {
				return err
			}
			logger.Get().Info("Tipo de aplicação criado", "tipo", appType.Name)
			return f.PrintResource(cmd, appType)
		},
	}
	typeNameFlag(createCmd, &typeName)
	return createCmd
}

func newTypeShowCommand(f *sfutil.Factory) *cobra.Command {
	var typeName string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Exibe um tipo de aplicação",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(flags.Required("--application-type-name", typeName)); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			appType, err := client.GetApplicationType(ctx, ref, typeName)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, appType)
		},
	}
	typeNameFlag(showCmd, &typeName)
	return showCmd
}

func newTypeListCommand(f *sfutil.Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista os tipos de aplicação do cluster",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			types, err := client.ListApplicationTypes(ctx, ref)
			if err != nil {
				return err
			}
			return f.PrintList(cmd, types)
		},
	}
}

func newTypeDeleteCommand(f *sfutil.Factory) *cobra.Command {
	var typeName string

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove um tipo de aplicação",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(flags.Required("--application-type-name", typeName)); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			return client.DeleteApplicationType(ctx, ref, typeName)
		},
	}
	typeNameFlag(deleteCmd, &typeName)
	return deleteCmd
}

package applicationtype

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
)

// NewVersionCommand cria o comando "application-type-version".
func NewVersionCommand(f *sfutil.Factory) *cobra.Command {
	return sfutil.Group("application-type-version", "Gerencia as versões dos tipos de aplicação",
		newVersionCreateCommand(f),
		newVersionShowCommand(f),
		newVersionListCommand(f),
		newVersionDeleteCommand(f),
	)
}

type versionFlags struct {
	typeName string
	version  string
}

func (v *versionFlags) register(cmd *cobra.Command, withVersion bool) {
	typeNameFlag(cmd, &v.typeName)
	if withVersion {
		cmd.Flags().StringVar(&v.version, "version", "", "Versão do tipo de aplicação")
	}
}

func (v *versionFlags) validate(withVersion bool, extra ...flags.Check) error {
	checks := []flags.Check{
		flags.Required("--application-type-name", v.typeName),
		flags.When(withVersion, flags.Required("--version", v.version)),
	}
	return flags.Validate(append(checks, extra...)...)
}

func newVersionCreateCommand(f *sfutil.Factory) *cobra.Command {
	v := &versionFlags{}
	var packageURL string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Registra uma versão de um tipo de aplicação a partir de um pacote sfpkg",
		Long:  `Registra a versão; o tipo de aplicação é criado antes se ainda não existir.`,
		Example: heredoc.Doc(`
			fabricctl sf application-type-version create -g meu-rg -n meu-cluster \
			  --application-type-name CalcServiceApp --version 1.0 \
			  --package-url https://meustorage.blob.core.windows.net/apps/CalcApp_1.0.sfpkg
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.validate(true, flags.Required("--package-url", packageURL)); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			version, err := client.CreateApplicationTypeVersion(ctx, ref, v.typeName, v.version, packageURL)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, version)
		},
	}
	v.register(createCmd, true)
	createCmd.Flags().StringVar(&packageURL, "package-url", "", "URL do pacote sfpkg da aplicação")
	return createCmd
}

func newVersionShowCommand(f *sfutil.Factory) *cobra.Command {
	v := &versionFlags{}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Exibe uma versão de um tipo de aplicação",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.validate(true); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			version, err := client.GetApplicationTypeVersion(ctx, ref, v.typeName, v.version)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, version)
		},
	}
	v.register(showCmd, true)
	return showCmd
}

func newVersionListCommand(f *sfutil.Factory) *cobra.Command {
	v := &versionFlags{}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista as versões de um tipo de aplicação",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.validate(false); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.ReadTimeout)
			defer cancel()

			versions, err := client.ListApplicationTypeVersions(ctx, ref, v.typeName)
			if err != nil {
				return err
			}
			return f.PrintList(cmd, versions)
		},
	}
	v.register(listCmd, false)
	return listCmd
}

func newVersionDeleteCommand(f *sfutil.Factory) *cobra.Command {
	v := &versionFlags{}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove uma versão de um tipo de aplicação",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.validate(true); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			return client.DeleteApplicationTypeVersion(ctx, ref, v.typeName, v.version)
		},
	}
	v.register(deleteCmd, true)
	return deleteCmd
}

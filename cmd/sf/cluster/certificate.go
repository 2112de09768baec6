package cluster

import (
	"encoding/json"
	"errors"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

func newCertificateCommand(f *sfutil.Factory) *cobra.Command {
	return sfutil.Group("certificate", "Gerencia os certificados do cluster",
		newCertificateAddCommand(f),
		newCertificateRemoveCommand(f),
	)
}

func newCertificateAddCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.CertificateAddOptions{}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Adiciona um certificado secundário a partir do Key Vault",
		Example: heredoc.Doc(`
			fabricctl sf cluster certificate add -g meu-rg -n meu-cluster \
			  --secret-identifier https://meu-kv.vault.azure.net/secrets/cert2/4567
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(flags.Required("--secret-identifier", opts.SecretIdentifier)); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			cluster, err := client.AddClusterCertificate(ctx, ref, opts)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	addCmd.Flags().StringVar(&opts.SecretIdentifier, "secret-identifier", "", "URL do segredo do Key Vault com o certificado")
	addCmd.Flags().StringVar(&opts.VaultResourceGroup, "vault-resource-group", "", "Resource group do Key Vault; se omitido, busca na subscription")
	return addCmd
}

func newCertificateRemoveCommand(f *sfutil.Factory) *cobra.Command {
	var thumbprint string

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove um certificado do cluster pelo thumbprint",
		Args:  sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.Validate(flags.Required("--thumbprint", thumbprint)); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			cluster, err := client.RemoveClusterCertificate(ctx, ref, thumbprint)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	removeCmd.Flags().StringVar(&thumbprint, "thumbprint", "", "Thumbprint do certificado a remover")
	return removeCmd
}

func newClientCertificateCommand(f *sfutil.Factory) *cobra.Command {
	return sfutil.Group("client-certificate", "Gerencia os certificados de cliente do cluster",
		newClientCertificateAddCommand(f),
		newClientCertificateRemoveCommand(f),
	)
}

// clientCertificateFlags registra as flags comuns de add e remove.
func clientCertificateFlags(cmd *cobra.Command, opts *servicefabric.ClientCertificateOptions, commonNames *flags.JSONValue) {
	cmd.Flags().StringVar(&opts.Thumbprint, "thumbprint", "", "Thumbprint do certificado de cliente")
	cmd.Flags().StringVar(&opts.CommonName, "certificate-common-name", "", "Common name do certificado de cliente")
	cmd.Flags().StringVar(&opts.IssuerThumbprint, "certificate-issuer-thumbprint", "", "Thumbprint do emissor do certificado de cliente")
	cmd.Flags().Var(commonNames, "client-certificate-common-names", heredoc.Doc(`
		Lista JSON (ou @arquivo) de common names, por exemplo:
		[{"certificateCommonName": "test.com", "certificateIssuerThumbprint": "22B4AE296B504E512DF880A77A2CAE20200FF922", "isAdmin": true}]`))
}

func decodeCommonNames(v *flags.JSONValue) ([]servicefabric.ClientCertificateCommonName, error) {
	if !v.IsSet() {
		return nil, nil
	}
	raw, err := json.Marshal(v.Value)
	if err != nil {
		return nil, err
	}
	var names []servicefabric.ClientCertificateCommonName
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, flags.Usagef("--client-certificate-common-names must be a JSON list of common name objects: %v", err)
	}
	for i, n := range names {
		if n.CertificateCommonName == "" || n.CertificateIssuerThumbprint == "" {
			return nil, flags.Usagef("--client-certificate-common-names: item %d needs certificateCommonName and certificateIssuerThumbprint", i)
		}
	}
	return names, nil
}

func newClientCertificateAddCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.ClientCertificateOptions{}
	commonNames := &flags.JSONValue{}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Concede acesso a certificados de cliente",
		Example: heredoc.Doc(`
			# Um thumbprint com acesso de administrador
			fabricctl sf cluster client-certificate add -g meu-rg -n meu-cluster \
			  --thumbprint 5F3660C715EBBDA31DB1FFDCF508302348DE8E7A --is-admin

			# Vários thumbprints de uma vez
			fabricctl sf cluster client-certificate add -g meu-rg -n meu-cluster \
			  --admin-client-thumbprints AAAA BBBB --readonly-client-thumbprints CCCC
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := decodeCommonNames(commonNames)
			if err != nil {
				return err
			}
			opts.CommonNames = names

			if err := flags.Validate(
				flags.Check{Option: "--thumbprint", Check: func() error {
					if opts.Thumbprint == "" && opts.CommonName == "" && len(opts.AdminThumbprints) == 0 &&
						len(opts.ReadonlyThumbprints) == 0 && len(opts.CommonNames) == 0 {
						return errors.New("specify --thumbprint, --certificate-common-name, --admin-client-thumbprints, --readonly-client-thumbprints or --client-certificate-common-names")
					}
					return nil
				}},
				flags.When(opts.CommonName != "", flags.Required("--certificate-issuer-thumbprint", opts.IssuerThumbprint)),
			); err != nil {
				return err
			}

			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			cluster, err := client.AddClientCertificates(ctx, ref, opts)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	clientCertificateFlags(addCmd, &opts, commonNames)
	addCmd.Flags().BoolVar(&opts.IsAdmin, "is-admin", false, "Concede acesso de administrador (padrão: somente leitura)")
	addCmd.Flags().StringSliceVar(&opts.AdminThumbprints, "admin-client-thumbprints", nil, "Thumbprints com acesso de administrador")
	addCmd.Flags().StringSliceVar(&opts.ReadonlyThumbprints, "readonly-client-thumbprints", nil, "Thumbprints com acesso somente leitura")
	return addCmd
}

func newClientCertificateRemoveCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.ClientCertificateOptions{}
	commonNames := &flags.JSONValue{}

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Revoga o acesso de certificados de cliente",
		Example: heredoc.Doc(`
			fabricctl sf cluster client-certificate remove -g meu-rg -n meu-cluster --thumbprints AAAA BBBB
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := decodeCommonNames(commonNames)
			if err != nil {
				return err
			}
			opts.CommonNames = names

			if err := flags.Validate(
				flags.Check{Option: "--thumbprints", Check: func() error {
					if opts.Thumbprint == "" && opts.CommonName == "" && len(opts.Thumbprints) == 0 && len(opts.CommonNames) == 0 {
						return errors.New("specify --thumbprint, --thumbprints, --certificate-common-name or --client-certificate-common-names")
					}
					return nil
				}},
				flags.When(opts.CommonName != "", flags.Required("--certificate-issuer-thumbprint", opts.IssuerThumbprint)),
			); err != nil {
				return err
			}

			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			cluster, err := client.RemoveClientCertificates(ctx, ref, opts)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}

	clientCertificateFlags(removeCmd, &opts, commonNames)
	removeCmd.Flags().StringSliceVar(&opts.Thumbprints, "thumbprints", nil, "Thumbprints a remover")
	return removeCmd
}

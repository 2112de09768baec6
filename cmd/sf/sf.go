// cmd/sf/sf.go
package sf

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/estudosdevops/fabricctl/cmd/sf/application"
	"github.com/estudosdevops/fabricctl/cmd/sf/applicationtype"
	"github.com/estudosdevops/fabricctl/cmd/sf/cluster"
	"github.com/estudosdevops/fabricctl/cmd/sf/service"
	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/cloud/azure"
	"github.com/estudosdevops/fabricctl/internal/flags"
)

// subscriptionEnv é o último recurso para a subscription.
const subscriptionEnv = "AZURE_SUBSCRIPTION_ID"

// NewCommand cria o comando pai "sf".
func NewCommand(f *sfutil.Factory) *cobra.Command {
	sfCmd := sfutil.Group("sf", "Gerencia clusters e aplicações do Azure Service Fabric")
	sfCmd.Long = `Um conjunto de comandos para criar, configurar e remover clusters, tipos de aplicação, aplicações e serviços do Service Fabric via Azure Resource Manager.`
	// PersistentPreRunE resolve a subscription antes de qualquer subcomando.
	sfCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// grupos só exibem a ajuda
		if cmd.HasSubCommands() {
			return nil
		}
		return resolveSettings(cmd, f)
	}

	// --name é aceito como sinônimo de --cluster-name.
	sfCmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "name" {
			name = "cluster-name"
		}
		return pflag.NormalizedName(name)
	})

	sfCmd.PersistentFlags().String("subscription", "", "ID da subscription do Azure (sobrescreve o config e $"+subscriptionEnv+")")
	sfCmd.PersistentFlags().String("tenant", "", "ID do tenant usado na autenticação (sobrescreve o config)")
	sfCmd.PersistentFlags().Var(flags.NewEnumValue("", azure.CloudNames...), "cloud", "Nuvem do Azure: "+strings.Join(azure.CloudNames, ", "))
	sfCmd.PersistentFlags().StringP("resource-group", "g", "", "Nome do resource group")
	sfCmd.PersistentFlags().StringP("cluster-name", "n", "", "Nome do cluster; se omitido, é o nome do resource group")

	sfCmd.AddCommand(cluster.NewCommand(f))
	sfCmd.AddCommand(applicationtype.NewCommand(f))
	sfCmd.AddCommand(applicationtype.NewVersionCommand(f))
	sfCmd.AddCommand(application.NewCommand(f))
	sfCmd.AddCommand(service.NewCommand(f))

	return sfCmd
}

// resolveSettings preenche f.Settings: flags primeiro, depois o contexto do
// arquivo de configuração e por fim a variável de ambiente.
func resolveSettings(cmd *cobra.Command, f *sfutil.Factory) error {
	contextName, _ := cmd.Flags().GetString("context")
	if contextName == "" {
		contextName = f.Config.GetString("current-context")
	}

	get := func(flagName, key string) string {
		if fl := cmd.Flags().Lookup(flagName); fl != nil && fl.Changed {
			return fl.Value.String()
		}
		if contextName == "" {
			return ""
		}
		return f.Config.GetString(fmt.Sprintf("contexts.%s.azure.%s", contextName, key))
	}

	f.Settings = sfutil.Settings{
		Subscription:  get("subscription", "subscription"),
		Tenant:        get("tenant", "tenant"),
		Cloud:         get("cloud", "cloud"),
		ResourceGroup: get("resource-group", "resource-group"),
	}
	if f.Settings.Subscription == "" {
		f.Settings.Subscription = os.Getenv(subscriptionEnv)
	}

	if f.Settings.Subscription == "" {
		return flags.Usagef("a subscription é obrigatória. Use --subscription, defina 'contexts.<contexto>.azure.subscription' no ~/.fabricctl.yaml ou exporte %s", subscriptionEnv)
	}
	return nil
}

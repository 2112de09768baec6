// Package sfutil holds what every sf subcommand shares: the provider
// factory, cluster addressing, timeouts and output.
package sfutil

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/cloud/provider"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/logger"
	"github.com/estudosdevops/fabricctl/internal/presenter"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

// Tempos limite das chamadas à API.
const (
	ReadTimeout   = 2 * time.Minute
	DeployTimeout = 30 * time.Minute
)

// Settings são a subscription e os padrões resolvidos pelo grupo sf.
type Settings struct {
	Subscription  string
	Tenant        string
	Cloud         string
	ResourceGroup string
}

// Factory cria o cliente do Service Fabric uma vez por execução.
type Factory struct {
	Config   *viper.Viper
	Settings Settings

	// NewProvider constrói o ResourceManager; os testes trocam por um fake.
	NewProvider func(Settings) (cloud.ResourceManager, error)

	rm cloud.ResourceManager
}

// NewFactory retorna a factory que fala com o Azure.
func NewFactory() *Factory {
	return &Factory{Config: viper.New(), NewProvider: azureProvider}
}

func azureProvider(s Settings) (cloud.ResourceManager, error) {
	return provider.NewProvider(string(provider.ProviderAzure),
		provider.WithSubscription(s.Subscription),
		provider.WithTenant(s.Tenant),
		provider.WithCloud(s.Cloud),
		provider.WithCorrelationID(uuid.NewString()),
		provider.WithLogger(logger.Get()),
	)
}

// Client retorna o cliente, criando o provider na primeira chamada.
func (f *Factory) Client() (*servicefabric.Client, error) {
	if f.rm == nil {
		rm, err := f.NewProvider(f.Settings)
		if err != nil {
			return nil, fmt.Errorf("falha ao inicializar o provider: %w", err)
		}
		f.rm = rm
	}
	return servicefabric.New(f.rm, logger.Get()), nil
}

// ResourceGroup lê -g, caindo no resource-group do contexto.
func (f *Factory) ResourceGroup(cmd *cobra.Command) string {
	if rg, _ := cmd.Flags().GetString("resource-group"); rg != "" {
		return rg
	}
	return f.Settings.ResourceGroup
}

// ClusterRef lê -g e -n. Sem -n, o cluster tem o nome do resource group.
func (f *Factory) ClusterRef(cmd *cobra.Command, client *servicefabric.Client) (servicefabric.ClusterRef, error) {
	rg := f.ResourceGroup(cmd)
	if rg == "" {
		return servicefabric.ClusterRef{}, flags.Usagef("--resource-group/-g is required")
	}
	name, _ := cmd.Flags().GetString("cluster-name")
	if name == "" {
		name = rg
	}
	return client.Ref(rg, name), nil
}

// Setup resolve cliente e cluster de uma vez, o começo de quase todo RunE.
func (f *Factory) Setup(cmd *cobra.Command) (*servicefabric.Client, servicefabric.ClusterRef, error) {
	client, err := f.Client()
	if err != nil {
		return nil, servicefabric.ClusterRef{}, err
	}
	ref, err := f.ClusterRef(cmd, client)
	if err != nil {
		return nil, servicefabric.ClusterRef{}, err
	}
	return client, ref, nil
}

// Print escreve v em stdout no formato de --output.
func (*Factory) Print(cmd *cobra.Command, v any) error {
	format, _ := cmd.Flags().GetString("output")
	p := &presenter.Printer{Out: cmd.OutOrStdout(), Format: format}
	return p.Print(v)
}

// PrintResource escreve um recurso achatado.
func (f *Factory) PrintResource(cmd *cobra.Command, r *cloud.Resource) error {
	return f.Print(cmd, servicefabric.Flatten(r))
}

// PrintList escreve recursos no envelope {"value": [...]}.
func (f *Factory) PrintList(cmd *cobra.Command, rs []*cloud.Resource) error {
	return f.Print(cmd, servicefabric.FlattenList(rs))
}

// Context cria o contexto com tempo limite de uma chamada.
func Context(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// Int64If retorna o valor da flag só quando ela foi informada.
func Int64If(cmd *cobra.Command, name string) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt64(name)
	if err != nil {
		return nil
	}
	return &v
}

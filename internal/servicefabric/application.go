package servicefabric

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/flags"
)

// ApplicationCreateOptions contém os parâmetros de "sf application create".
type ApplicationCreateOptions struct {
	ApplicationName string
	TypeName        string
	TypeVersion     string
	PackageURL      string
	Parameters      *flags.OrderedMap
	MinimumNodes    *int64
	MaximumNodes    *int64
}

// ApplicationUpdateOptions contém os parâmetros de "sf application update".
// Durações são em segundos; nil significa "não alterar".
type ApplicationUpdateOptions struct {
	ApplicationName string
	TypeVersion     string
	Parameters      *flags.OrderedMap
	MinimumNodes    *int64
	MaximumNodes    *int64

	ForceRestart                  bool
	UpgradeReplicaSetCheckTimeout *int64
	FailureAction                 string
	HealthCheckRetryTimeout       *int64
	HealthCheckWaitDuration       *int64
	HealthCheckStableDuration     *int64
	UpgradeDomainTimeout          *int64
	UpgradeTimeout                *int64

	ConsiderWarningAsError                                    bool
	DefaultServiceTypeMaxPercentUnhealthyPartitionsPerService *int64
	DefaultServiceTypeMaxPercentUnhealthyReplicasPerPartition *int64
	DefaultMaxPercentServiceTypeUnhealthyServices             *int64
	MaxPercentUnhealthyDeployedApplications                   *int64
	ServiceTypeHealthPolicyMap                                map[string]string
}

// ServiceCreateOptions contém os parâmetros de "sf service create".
type ServiceCreateOptions struct {
	ApplicationName      string
	ServiceName          string
	ServiceType          string
	Stateless            bool
	Stateful             bool
	InstanceCount        *int64
	MinReplicaSetSize    *int64
	TargetReplicaSetSize *int64
	DefaultMoveCost      string
	PartitionScheme      string
	PartitionCount       *int64
	LowKey               string
	HighKey              string
	PartitionNames       []string
}

// clusterLocation lê o cluster; tipos, versões e aplicações herdam a localização dele.
func (c *Client) clusterLocation(ctx context.Context, ref ClusterRef) (string, error) {
	cluster, err := c.get(ctx, ref.ID(), APIVersion, "o cluster "+ref.Name)
	if err != nil {
		return "", err
	}
	return cluster.Location, nil
}

// CreateApplicationType cria o tipo de aplicação.
func (c *Client) CreateApplicationType(ctx context.Context, ref ClusterRef, typeName string) (*cloud.Resource, error) {
	location, err := c.clusterLocation(ctx, ref)
	if err != nil {
		return nil, err
	}

	c.log.Info("Criando tipo de aplicação", "tipo", typeName, "cluster", ref.Name)
	return c.put(ctx, ref.ApplicationTypeID(typeName), APIVersion, "o tipo de aplicação "+typeName, &cloud.Resource{
		Location:   location,
		Properties: map[string]any{},
	})
}

// GetApplicationType busca um tipo de aplicação.
func (c *Client) GetApplicationType(ctx context.Context, ref ClusterRef, typeName string) (*cloud.Resource, error) {
	return c.get(ctx, ref.ApplicationTypeID(typeName), APIVersion, "o tipo de aplicação "+typeName)
}

// ListApplicationTypes lista os tipos de aplicação do cluster.
func (c *Client) ListApplicationTypes(ctx context.Context, ref ClusterRef) ([]*cloud.Resource, error) {
	return c.list(ctx, ref.ApplicationTypesID(), "tipos de aplicação")
}

// DeleteApplicationType remove um tipo de aplicação e suas versões.
func (c *Client) DeleteApplicationType(ctx context.Context, ref ClusterRef, typeName string) error {
	c.log.Info("Removendo tipo de aplicação", "tipo", typeName)
	return c.remove(ctx, ref.ApplicationTypeID(typeName), "o tipo de aplicação "+typeName)
}

// CreateApplicationTypeVersion registra uma versão a partir de um pacote
// .sfpkg. O tipo é criado antes se ainda não existir.
func (c *Client) CreateApplicationTypeVersion(ctx context.Context, ref ClusterRef, typeName, version, packageURL string) (*cloud.Resource, error) {
	location, err := c.ensureApplicationType(ctx, ref, typeName)
	if err != nil {
		return nil, err
	}

	props, err := cloud.EncodeProperties(ApplicationTypeVersionProperties{AppPackageURL: packageURL})
	if err != nil {
		return nil, err
	}

	c.log.Info("Criando versão do tipo de aplicação", "tipo", typeName, "versão", version)
	return c.put(ctx, ref.VersionID(typeName, version), APIVersion, "a versão "+version, &cloud.Resource{
		Location:   location,
		Properties: props,
	})
}

func (c *Client) ensureApplicationType(ctx context.Context, ref ClusterRef, typeName string) (string, error) {
	appType, err := c.rm.GetResource(ctx, ref.ApplicationTypeID(typeName), APIVersion)
	if err == nil {
		return appType.Location, nil
	}
	if !cloud.IsNotFound(err) {
		return "", fmt.Errorf("falha ao buscar o tipo de aplicação %s: %w", typeName, err)
	}

	c.log.Debug("Tipo de aplicação não existe, criando", "tipo", typeName)
	created, err := c.CreateApplicationType(ctx, ref, typeName)
	if err != nil {
		return "", err
	}
	return created.Location, nil
}

// GetApplicationTypeVersion busca uma versão.
func (c *Client) GetApplicationTypeVersion(ctx context.Context, ref ClusterRef, typeName, version string) (*cloud.Resource, error) {
	return c.get(ctx, ref.VersionID(typeName, version), APIVersion, "a versão "+version+" do tipo "+typeName)
}

// ListApplicationTypeVersions lista as versões de um tipo.
func (c *Client) ListApplicationTypeVersions(ctx context.Context, ref ClusterRef, typeName string) ([]*cloud.Resource, error) {
	return c.list(ctx, ref.VersionsID(typeName), "versões do tipo "+typeName)
}

// DeleteApplicationTypeVersion remove uma versão.
func (c *Client) DeleteApplicationTypeVersion(ctx context.Context, ref ClusterRef, typeName, version string) error {
	c.log.Info("Removendo versão do tipo de aplicação", "tipo", typeName, "versão", version)
	return c.remove(ctx, ref.VersionID(typeName, version), "a versão "+version)
}

// CreateApplication cria a aplicação. Com PackageURL, tipo e versão são
// registrados primeiro; sem ele, a versão precisa existir.
func (c *Client) CreateApplication(ctx context.Context, ref ClusterRef, opts ApplicationCreateOptions) (*cloud.Resource, error) {
	if opts.PackageURL != "" {
		if _, err := c.rm.GetResource(ctx, ref.VersionID(opts.TypeName, opts.TypeVersion), APIVersion); err != nil {
			if !cloud.IsNotFound(err) {
				return nil, fmt.Errorf("falha ao buscar a versão %s: %w", opts.TypeVersion, err)
			}
			if _, err := c.CreateApplicationTypeVersion(ctx, ref, opts.TypeName, opts.TypeVersion, opts.PackageURL); err != nil {
				return nil, err
			}
		}
	} else if _, err := c.GetApplicationTypeVersion(ctx, ref, opts.TypeName, opts.TypeVersion); err != nil {
		return nil, err
	}

	location, err := c.clusterLocation(ctx, ref)
	if err != nil {
		return nil, err
	}

	props, err := cloud.EncodeProperties(ApplicationProperties{
		TypeName:     opts.TypeName,
		TypeVersion:  opts.TypeVersion,
		Parameters:   opts.Parameters,
		MinimumNodes: opts.MinimumNodes,
		MaximumNodes: opts.MaximumNodes,
	})
	if err != nil {
		return nil, err
	}
	keepParameterOrder(props, opts.Parameters)

	c.log.Info("Criando aplicação", "aplicação", opts.ApplicationName, "tipo", opts.TypeName, "versão", opts.TypeVersion)
	app, err := c.put(ctx, ref.ApplicationID(opts.ApplicationName), APIVersion, "a aplicação "+opts.ApplicationName, &cloud.Resource{
		Location:   location,
		Properties: props,
	})
	if err != nil {
		return nil, err
	}
	restoreParameterOrder(app, opts.Parameters)
	return app, nil
}

// UpdateApplication aplica upgrade de versão, parâmetros, capacidade e
// política de upgrade sobre a aplicação existente.
func (c *Client) UpdateApplication(ctx context.Context, ref ClusterRef, opts ApplicationUpdateOptions) (*cloud.Resource, error) {
	app, err := c.get(ctx, ref.ApplicationID(opts.ApplicationName), APIVersion, "a aplicação "+opts.ApplicationName)
	if err != nil {
		return nil, err
	}

	var props ApplicationProperties
	if err := app.DecodeProperties(&props); err != nil {
		return nil, err
	}

	if opts.TypeVersion != "" && opts.TypeVersion != props.TypeVersion {
		if _, err := c.GetApplicationTypeVersion(ctx, ref, props.TypeName, opts.TypeVersion); err != nil {
			return nil, err
		}
		c.log.Info("Atualizando versão da aplicação", "de", props.TypeVersion, "para", opts.TypeVersion)
		props.TypeVersion = opts.TypeVersion
	}

	// chaves existentes mantêm a posição; novas entram no fim
	if opts.Parameters.Len() > 0 {
		if props.Parameters == nil {
			props.Parameters = flags.NewOrderedMap()
		}
		for _, key := range opts.Parameters.Keys() {
			value, _ := opts.Parameters.Get(key)
			if old, ok := props.Parameters.Get(key); ok && old != value {
				c.log.Debug("Substituindo parâmetro", "parâmetro", key)
			}
			props.Parameters.Set(key, value)
		}
	}
	if opts.MinimumNodes != nil {
		props.MinimumNodes = opts.MinimumNodes
	}
	if opts.MaximumNodes != nil {
		props.MaximumNodes = opts.MaximumNodes
	}

	policy, err := applyUpgradePolicy(props.UpgradePolicy, opts)
	if err != nil {
		return nil, err
	}
	props.UpgradePolicy = policy

	if err := mergeProperties(app, props); err != nil {
		return nil, err
	}
	keepParameterOrder(app.Properties, props.Parameters)

	updated, err := c.put(ctx, app.ID, APIVersion, "a aplicação "+opts.ApplicationName, app)
	if err != nil {
		return nil, err
	}
	restoreParameterOrder(updated, props.Parameters)
	return updated, nil
}

// keepParameterOrder troca a cópia genérica dos parâmetros, que perde a
// ordem, pelo OrderedMap original.
func keepParameterOrder(props map[string]any, params *flags.OrderedMap) {
	if params.Len() > 0 {
		props["parameters"] = params
	}
}

// restoreParameterOrder reordena os parâmetros devolvidos pela API: as
// chaves de want primeiro, as demais em ordem alfabética. Valores que não
// são strings ficam como vieram.
func restoreParameterOrder(r *cloud.Resource, want *flags.OrderedMap) {
	got, ok := r.Properties["parameters"].(map[string]any)
	if !ok || want.Len() == 0 {
		return
	}
	ordered := flags.NewOrderedMap()
	for _, key := range append(want.Keys(), slices.Sorted(maps.Keys(got))...) {
		if v, ok := got[key]; ok {
			s, isString := v.(string)
			if !isString {
				return
			}
			ordered.Set(key, s)
		}
	}
	r.Properties["parameters"] = ordered
}

func applyUpgradePolicy(current *UpgradePolicy, opts ApplicationUpdateOptions) (*UpgradePolicy, error) {
	policy := current
	if policy == nil {
		policy = &UpgradePolicy{}
	}
	rolling := policy.RollingUpgradeMonitoringPolicy
	if rolling == nil {
		rolling = &RollingUpgradeMonitoringPolicy{}
	}
	health := policy.ApplicationHealthPolicy
	if health == nil {
		health = &ApplicationHealthPolicy{}
	}

	if opts.ForceRestart {
		t := true
		policy.ForceRestart = &t
	}
	if opts.UpgradeReplicaSetCheckTimeout != nil {
		policy.UpgradeReplicaSetCheckTimeout = FormatSeconds(*opts.UpgradeReplicaSetCheckTimeout)
	}

	if opts.FailureAction != "" {
		rolling.FailureAction = opts.FailureAction
	}
	setSpan := func(dst *string, seconds *int64) {
		if seconds != nil {
			*dst = FormatSeconds(*seconds)
		}
	}
	setSpan(&rolling.HealthCheckRetryTimeout, opts.HealthCheckRetryTimeout)
	setSpan(&rolling.HealthCheckWaitDuration, opts.HealthCheckWaitDuration)
	setSpan(&rolling.HealthCheckStableDuration, opts.HealthCheckStableDuration)
	setSpan(&rolling.UpgradeDomainTimeout, opts.UpgradeDomainTimeout)
	setSpan(&rolling.UpgradeTimeout, opts.UpgradeTimeout)

	if opts.ConsiderWarningAsError {
		t := true
		health.ConsiderWarningAsError = &t
	}
	if opts.MaxPercentUnhealthyDeployedApplications != nil {
		health.MaxPercentUnhealthyDeployedApplications = opts.MaxPercentUnhealthyDeployedApplications
	}
	if opts.DefaultServiceTypeMaxPercentUnhealthyPartitionsPerService != nil ||
		opts.DefaultServiceTypeMaxPercentUnhealthyReplicasPerPartition != nil ||
		opts.DefaultMaxPercentServiceTypeUnhealthyServices != nil {
		def := health.DefaultServiceTypeHealthPolicy
		if def == nil {
			def = &ServiceTypeHealthPolicy{}
		}
		if v := opts.DefaultServiceTypeMaxPercentUnhealthyPartitionsPerService; v != nil {
			def.MaxPercentUnhealthyPartitionsPerService = v
		}
		if v := opts.DefaultServiceTypeMaxPercentUnhealthyReplicasPerPartition; v != nil {
			def.MaxPercentUnhealthyReplicasPerPartition = v
		}
		if v := opts.DefaultMaxPercentServiceTypeUnhealthyServices; v != nil {
			def.MaxPercentUnhealthyServices = v
		}
		health.DefaultServiceTypeHealthPolicy = def
	}
	if len(opts.ServiceTypeHealthPolicyMap) > 0 {
		if health.ServiceTypeHealthPolicyMap == nil {
			health.ServiceTypeHealthPolicyMap = map[string]*ServiceTypeHealthPolicy{}
		}
		for name, spec := range opts.ServiceTypeHealthPolicyMap {
			p, err := ParseServiceTypeHealthPolicy(spec)
			if err != nil {
				return nil, fmt.Errorf("política do service type %s: %w", name, err)
			}
			health.ServiceTypeHealthPolicyMap[name] = p
		}
	}

	if *rolling != (RollingUpgradeMonitoringPolicy{}) {
		policy.RollingUpgradeMonitoringPolicy = rolling
	}
	if health.ConsiderWarningAsError != nil || health.MaxPercentUnhealthyDeployedApplications != nil ||
		health.DefaultServiceTypeHealthPolicy != nil || len(health.ServiceTypeHealthPolicyMap) > 0 {
		policy.ApplicationHealthPolicy = health
	}
	if current == nil && *policy == (UpgradePolicy{}) {
		return nil, nil
	}
	return policy, nil
}

// ParseServiceTypeHealthPolicy lê "partitionsPerService,replicasPerPartition,services",
// os três percentuais de 0 a 100.
func ParseServiceTypeHealthPolicy(spec string) (*ServiceTypeHealthPolicy, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("esperado \"MaxPercentUnhealthyPartitionsPerService,MaxPercentUnhealthyReplicasPerPartition,MaxPercentUnhealthyServices\", recebido %q", spec)
	}
	values := make([]*int64, 3)
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || n < 0 || n > 100 {
			return nil, fmt.Errorf("percentual inválido %q", p)
		}
		values[i] = &n
	}
	return &ServiceTypeHealthPolicy{
		MaxPercentUnhealthyPartitionsPerService: values[0],
		MaxPercentUnhealthyReplicasPerPartition: values[1],
		MaxPercentUnhealthyServices:             values[2],
	}, nil
}

// GetApplication busca uma aplicação.
func (c *Client) GetApplication(ctx context.Context, ref ClusterRef, appName string) (*cloud.Resource, error) {
	return c.get(ctx, ref.ApplicationID(appName), APIVersion, "a aplicação "+appName)
}

// ListApplications lista as aplicações do cluster.
func (c *Client) ListApplications(ctx context.Context, ref ClusterRef) ([]*cloud.Resource, error) {
	return c.list(ctx, ref.ApplicationsID(), "aplicações")
}

// DeleteApplication remove a aplicação e seus serviços.
func (c *Client) DeleteApplication(ctx context.Context, ref ClusterRef, appName string) error {
	c.log.Info("Removendo aplicação", "aplicação", appName)
	return c.remove(ctx, ref.ApplicationID(appName), "a aplicação "+appName)
}

// CreateService cria um serviço stateless ou stateful dentro da aplicação.
func (c *Client) CreateService(ctx context.Context, ref ClusterRef, opts ServiceCreateOptions) (*cloud.Resource, error) {
	app, err := c.GetApplication(ctx, ref, opts.ApplicationName)
	if err != nil {
		return nil, err
	}

	props := ServiceProperties{
		ServiceTypeName:      opts.ServiceType,
		PartitionDescription: partitionDescription(opts),
		DefaultMoveCost:      opts.DefaultMoveCost,
	}
	if opts.Stateless {
		props.ServiceKind = ServiceKindStateless
		props.InstanceCount = opts.InstanceCount
	} else {
		props.ServiceKind = ServiceKindStateful
		props.MinReplicaSetSize = opts.MinReplicaSetSize
		props.TargetReplicaSetSize = opts.TargetReplicaSetSize
	}

	encoded, err := cloud.EncodeProperties(props)
	if err != nil {
		return nil, err
	}

	c.log.Info("Criando serviço", "serviço", opts.ServiceName, "tipo", props.ServiceKind)
	return c.put(ctx, ref.ServiceID(opts.ApplicationName, opts.ServiceName), APIVersion, "o serviço "+opts.ServiceName, &cloud.Resource{
		Location:   app.Location,
		Properties: encoded,
	})
}

func partitionDescription(opts ServiceCreateOptions) *PartitionDescription {
	switch opts.PartitionScheme {
	case PartitionUniformInt64Range:
		count := int64(1)
		if opts.PartitionCount != nil {
			count = *opts.PartitionCount
		}
		low, high := opts.LowKey, opts.HighKey
		if low == "" {
			low = "-9223372036854775808"
		}
		if high == "" {
			high = "9223372036854775807"
		}
		return &PartitionDescription{PartitionScheme: PartitionUniformInt64Range, Count: &count, LowKey: low, HighKey: high}
	case PartitionNamed:
		count := int64(len(opts.PartitionNames))
		return &PartitionDescription{PartitionScheme: PartitionNamed, Count: &count, Names: opts.PartitionNames}
	default:
		return &PartitionDescription{PartitionScheme: PartitionSingleton}
	}
}

// GetService busca um serviço.
func (c *Client) GetService(ctx context.Context, ref ClusterRef, appName, serviceName string) (*cloud.Resource, error) {
	return c.get(ctx, ref.ServiceID(appName, serviceName), APIVersion, "o serviço "+serviceName)
}

// ListServices lista os serviços de uma aplicação.
func (c *Client) ListServices(ctx context.Context, ref ClusterRef, appName string) ([]*cloud.Resource, error) {
	return c.list(ctx, ref.ServicesID(appName), "serviços da aplicação "+appName)
}

// DeleteService remove um serviço.
func (c *Client) DeleteService(ctx context.Context, ref ClusterRef, appName, serviceName string) error {
	c.log.Info("Removendo serviço", "serviço", serviceName)
	return c.remove(ctx, ref.ServiceID(appName, serviceName), "o serviço "+serviceName)
}

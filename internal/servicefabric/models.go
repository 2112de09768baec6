package servicefabric

import "github.com/estudosdevops/fabricctl/internal/flags"

// ClusterProperties is the part of the cluster payload this tool reads or
// writes. Fields it does not model survive read-modify-write through
// mergeProperties.
type ClusterProperties struct {
	ProvisioningState            string                        `json:"provisioningState,omitempty"`
	ClusterState                 string                        `json:"clusterState,omitempty"`
	ClusterCodeVersion           string                        `json:"clusterCodeVersion,omitempty"`
	UpgradeMode                  string                        `json:"upgradeMode,omitempty"`
	ReliabilityLevel             string                        `json:"reliabilityLevel,omitempty"`
	ManagementEndpoint           string                        `json:"managementEndpoint,omitempty"`
	ClusterEndpoint              string                        `json:"clusterEndpoint,omitempty"`
	VMImage                      string                        `json:"vmImage,omitempty"`
	Certificate                  *CertificateDescription       `json:"certificate,omitempty"`
	ClientCertificateThumbprints []ClientCertificateThumbprint `json:"clientCertificateThumbprints"`
	ClientCertificateCommonNames []ClientCertificateCommonName `json:"clientCertificateCommonNames"`
	FabricSettings               []SettingsSection             `json:"fabricSettings"`
	NodeTypes                    []NodeType                    `json:"nodeTypes"`
}

// CertificateDescription is the cluster certificate pair.
type CertificateDescription struct {
	Thumbprint          string `json:"thumbprint"`
	ThumbprintSecondary string `json:"thumbprintSecondary,omitempty"`
	X509StoreName       string `json:"x509StoreName,omitempty"`
}

// ClientCertificateThumbprint grants access by thumbprint.
type ClientCertificateThumbprint struct {
	IsAdmin               bool   `json:"isAdmin"`
	CertificateThumbprint string `json:"certificateThumbprint"`
}

// ClientCertificateCommonName grants access by subject common name.
type ClientCertificateCommonName struct {
	IsAdmin                     bool   `json:"isAdmin"`
	CertificateCommonName       string `json:"certificateCommonName"`
	CertificateIssuerThumbprint string `json:"certificateIssuerThumbprint"`
}

// SettingsSection is one fabricSettings section.
type SettingsSection struct {
	Name       string              `json:"name"`
	Parameters []SettingsParameter `json:"parameters"`
}

// SettingsParameter is one fabricSettings parameter.
type SettingsParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EndpointRange is a port range.
type EndpointRange struct {
	StartPort int `json:"startPort"`
	EndPort   int `json:"endPort"`
}

// NodeType describes one node type of the cluster.
type NodeType struct {
	Name                         string            `json:"name"`
	ClientConnectionEndpointPort int               `json:"clientConnectionEndpointPort"`
	HTTPGatewayEndpointPort      int               `json:"httpGatewayEndpointPort"`
	IsPrimary                    bool              `json:"isPrimary"`
	VMInstanceCount              int               `json:"vmInstanceCount"`
	DurabilityLevel              string            `json:"durabilityLevel,omitempty"`
	ApplicationPorts             *EndpointRange    `json:"applicationPorts,omitempty"`
	EphemeralPorts               *EndpointRange    `json:"ephemeralPorts,omitempty"`
	Capacities                   map[string]string `json:"capacities,omitempty"`
	PlacementProperties          map[string]string `json:"placementProperties,omitempty"`
}

// ApplicationTypeVersionProperties is the payload of an application type version.
type ApplicationTypeVersionProperties struct {
	ProvisioningState    string            `json:"provisioningState,omitempty"`
	AppPackageURL        string            `json:"appPackageUrl"`
	DefaultParameterList map[string]string `json:"defaultParameterList,omitempty"`
}

// ApplicationProperties is the payload of an application.
type ApplicationProperties struct {
	ProvisioningState         string            `json:"provisioningState,omitempty"`
	TypeName                  string            `json:"typeName,omitempty"`
	TypeVersion               string            `json:"typeVersion,omitempty"`
	Parameters                *flags.OrderedMap `json:"parameters,omitempty"`
	UpgradePolicy             *UpgradePolicy    `json:"upgradePolicy,omitempty"`
	MinimumNodes              *int64            `json:"minimumNodes,omitempty"`
	MaximumNodes              *int64            `json:"maximumNodes,omitempty"`
	RemoveApplicationCapacity *bool             `json:"removeApplicationCapacity,omitempty"`
}

// UpgradePolicy controls application upgrades. Durations are
// "[d.]hh:mm:ss" strings.
type UpgradePolicy struct {
	UpgradeReplicaSetCheckTimeout  string                          `json:"upgradeReplicaSetCheckTimeout,omitempty"`
	ForceRestart                   *bool                           `json:"forceRestart,omitempty"`
	RollingUpgradeMonitoringPolicy *RollingUpgradeMonitoringPolicy `json:"rollingUpgradeMonitoringPolicy,omitempty"`
	ApplicationHealthPolicy        *ApplicationHealthPolicy        `json:"applicationHealthPolicy,omitempty"`
	UpgradeMode                    string                          `json:"upgradeMode,omitempty"`
}

// RollingUpgradeMonitoringPolicy controls monitored upgrades.
type RollingUpgradeMonitoringPolicy struct {
	FailureAction             string `json:"failureAction,omitempty"`
	HealthCheckWaitDuration   string `json:"healthCheckWaitDuration,omitempty"`
	HealthCheckStableDuration string `json:"healthCheckStableDuration,omitempty"`
	HealthCheckRetryTimeout   string `json:"healthCheckRetryTimeout,omitempty"`
	UpgradeTimeout            string `json:"upgradeTimeout,omitempty"`
	UpgradeDomainTimeout      string `json:"upgradeDomainTimeout,omitempty"`
}

// ApplicationHealthPolicy is evaluated during monitored upgrades.
type ApplicationHealthPolicy struct {
	ConsiderWarningAsError                  *bool                               `json:"considerWarningAsError,omitempty"`
	MaxPercentUnhealthyDeployedApplications *int64                              `json:"maxPercentUnhealthyDeployedApplications,omitempty"`
	DefaultServiceTypeHealthPolicy          *ServiceTypeHealthPolicy            `json:"defaultServiceTypeHealthPolicy,omitempty"`
	ServiceTypeHealthPolicyMap              map[string]*ServiceTypeHealthPolicy `json:"serviceTypeHealthPolicyMap,omitempty"`
}

// ServiceTypeHealthPolicy holds unhealthy percentages for one service type.
type ServiceTypeHealthPolicy struct {
	MaxPercentUnhealthyServices             *int64 `json:"maxPercentUnhealthyServices,omitempty"`
	MaxPercentUnhealthyPartitionsPerService *int64 `json:"maxPercentUnhealthyPartitionsPerService,omitempty"`
	MaxPercentUnhealthyReplicasPerPartition *int64 `json:"maxPercentUnhealthyReplicasPerPartition,omitempty"`
}

// Partition schemes.
const (
	PartitionSingleton         = "Singleton"
	PartitionUniformInt64Range = "UniformInt64Range"
	PartitionNamed             = "Named"
)

// Service kinds.
const (
	ServiceKindStateless = "Stateless"
	ServiceKindStateful  = "Stateful"
)

// PartitionDescription describes how a service is partitioned.
type PartitionDescription struct {
	PartitionScheme string   `json:"partitionScheme"`
	Count           *int64   `json:"count,omitempty"`
	LowKey          string   `json:"lowKey,omitempty"`
	HighKey         string   `json:"highKey,omitempty"`
	Names           []string `json:"names,omitempty"`
}

// ServiceProperties is the payload of a service.
type ServiceProperties struct {
	ProvisioningState    string                `json:"provisioningState,omitempty"`
	ServiceKind          string                `json:"serviceKind"`
	ServiceTypeName      string                `json:"serviceTypeName"`
	PartitionDescription *PartitionDescription `json:"partitionDescription"`
	DefaultMoveCost      string                `json:"defaultMoveCost,omitempty"`
	PlacementConstraints string                `json:"placementConstraints,omitempty"`
	InstanceCount        *int64                `json:"instanceCount,omitempty"`
	MinReplicaSetSize    *int64                `json:"minReplicaSetSize,omitempty"`
	TargetReplicaSetSize *int64                `json:"targetReplicaSetSize,omitempty"`
	HasPersistedState    *bool                 `json:"hasPersistedState,omitempty"`
}

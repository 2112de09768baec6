// Package servicefabric translates sf commands into Microsoft.ServiceFabric
// resource payloads and runs the read-modify-write cycles on clusters.
package servicefabric

import (
	"fmt"

	"github.com/estudosdevops/fabricctl/internal/cloud"
)

const (
	// APIVersion of the Microsoft.ServiceFabric resources.
	APIVersion = "2019-03-01"

	// ComputeAPIVersion of the scale sets backing each node type.
	ComputeAPIVersion = "2018-10-01"

	clusterResourceType  = "Microsoft.ServiceFabric/clusters"
	scaleSetResourceType = "Microsoft.Compute/virtualMachineScaleSets"
	vaultResourceType    = "Microsoft.KeyVault/vaults"
)

// ClusterRef addresses one cluster.
type ClusterRef struct {
	SubscriptionID string
	ResourceGroup  string
	Name           string
}

// ID returns the cluster resource ID.
func (c ClusterRef) ID() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s",
		c.SubscriptionID, c.ResourceGroup, clusterResourceType, c.Name)
}

// ApplicationTypesID returns the application type collection.
func (c ClusterRef) ApplicationTypesID() string {
	return cloud.ChildID(c.ID(), "applicationTypes")
}

// ApplicationTypeID returns one application type.
func (c ClusterRef) ApplicationTypeID(typeName string) string {
	return cloud.ChildID(c.ID(), "applicationTypes", typeName)
}

// VersionsID returns the version collection of an application type.
func (c ClusterRef) VersionsID(typeName string) string {
	return cloud.ChildID(c.ApplicationTypeID(typeName), "versions")
}

// VersionID returns one application type version.
func (c ClusterRef) VersionID(typeName, version string) string {
	return cloud.ChildID(c.ApplicationTypeID(typeName), "versions", version)
}

// ApplicationsID returns the application collection.
func (c ClusterRef) ApplicationsID() string {
	return cloud.ChildID(c.ID(), "applications")
}

// ApplicationID returns one application.
func (c ClusterRef) ApplicationID(appName string) string {
	return cloud.ChildID(c.ID(), "applications", appName)
}

// ServicesID returns the service collection of an application.
func (c ClusterRef) ServicesID(appName string) string {
	return cloud.ChildID(c.ApplicationID(appName), "services")
}

// ServiceID returns one service. Service names carry the application
// prefix, e.g. "app~svc".
func (c ClusterRef) ServiceID(appName, serviceName string) string {
	return cloud.ChildID(c.ApplicationID(appName), "services", serviceName)
}

// ScaleSetID returns the scale set backing a node type. Node type and
// scale set share the same name.
func (c ClusterRef) ScaleSetID(nodeType string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s",
		c.SubscriptionID, c.ResourceGroup, scaleSetResourceType, nodeType)
}

// ClustersCollectionID lists clusters in a resource group, or in the whole
// subscription when resourceGroup is empty.
func ClustersCollectionID(subscriptionID, resourceGroup string) string {
	if resourceGroup == "" {
		return fmt.Sprintf("/subscriptions/%s/providers/%s", subscriptionID, clusterResourceType)
	}
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s", subscriptionID, resourceGroup, clusterResourceType)
}

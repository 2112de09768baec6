package servicefabric

import (
	"fmt"
	"strings"

	"github.com/estudosdevops/fabricctl/internal/flags"
)

// ValidateCreateApplication checks the options of "sf application create".
func ValidateCreateApplication(o ApplicationCreateOptions) error {
	return flags.Validate(
		flags.Required("--application-name", o.ApplicationName),
		flags.Required("--application-type-name", o.TypeName),
		flags.Required("--application-type-version", o.TypeVersion),
		nodeBounds(o.MinimumNodes, o.MaximumNodes),
	)
}

// ValidateUpdateApplication checks the options of "sf application update".
func ValidateUpdateApplication(o ApplicationUpdateOptions) error {
	checks := []flags.Check{
		flags.Required("--application-name", o.ApplicationName),
		{Check: func() error {
			if !o.hasChanges() {
				return fmt.Errorf("nothing to update: give a new version, parameters, node counts or upgrade policy")
			}
			return nil
		}},
		nodeBounds(o.MinimumNodes, o.MaximumNodes),
	}

	durations := []struct {
		option string
		value  *int64
	}{
		{"--upgrade-replica-set-check-timeout", o.UpgradeReplicaSetCheckTimeout},
		{"--health-check-retry-timeout", o.HealthCheckRetryTimeout},
		{"--health-check-wait-duration", o.HealthCheckWaitDuration},
		{"--health-check-stable-duration", o.HealthCheckStableDuration},
		{"--upgrade-domain-timeout", o.UpgradeDomainTimeout},
		{"--upgrade-timeout", o.UpgradeTimeout},
	}
	for _, d := range durations {
		if d.value != nil {
			checks = append(checks, flags.Range(d.option, *d.value, 0, 1<<32))
		}
	}

	percentages := []struct {
		option string
		value  *int64
	}{
		{"--default-service-type-max-percent-unhealthy-partitions-per-service", o.DefaultServiceTypeMaxPercentUnhealthyPartitionsPerService},
		{"--default-service-type-max-percent-unhealthy-replicas-per-partition", o.DefaultServiceTypeMaxPercentUnhealthyReplicasPerPartition},
		{"--default-max-percent-service-type-unhealthy-services", o.DefaultMaxPercentServiceTypeUnhealthyServices},
		{"--max-percent-unhealthy-deployed-applications", o.MaxPercentUnhealthyDeployedApplications},
	}
	for _, p := range percentages {
		if p.value != nil {
			checks = append(checks, flags.Range(p.option, *p.value, 0, 100))
		}
	}

	if o.FailureAction != "" {
		checks = append(checks, flags.Check{Option: "--failure-action", Check: func() error {
			for _, v := range FailureActionValues {
				if v == o.FailureAction {
					return nil
				}
			}
			return fmt.Errorf("--failure-action must be one of %s", strings.Join(FailureActionValues, ", "))
		}})
	}

	for name, spec := range o.ServiceTypeHealthPolicyMap {
		checks = append(checks, flags.Check{Option: "--service-type-health-policy-map", Check: func() error {
			if _, err := ParseServiceTypeHealthPolicy(spec); err != nil {
				return fmt.Errorf("--service-type-health-policy-map %s: %w", name, err)
			}
			return nil
		}})
	}

	return flags.Validate(checks...)
}

func (o ApplicationUpdateOptions) hasChanges() bool {
	return o.TypeVersion != "" || o.Parameters.Len() > 0 ||
		o.MinimumNodes != nil || o.MaximumNodes != nil ||
		o.ForceRestart || o.UpgradeReplicaSetCheckTimeout != nil || o.FailureAction != "" ||
		o.HealthCheckRetryTimeout != nil || o.HealthCheckWaitDuration != nil ||
		o.HealthCheckStableDuration != nil || o.UpgradeDomainTimeout != nil || o.UpgradeTimeout != nil ||
		o.ConsiderWarningAsError ||
		o.DefaultServiceTypeMaxPercentUnhealthyPartitionsPerService != nil ||
		o.DefaultServiceTypeMaxPercentUnhealthyReplicasPerPartition != nil ||
		o.DefaultMaxPercentServiceTypeUnhealthyServices != nil ||
		o.MaxPercentUnhealthyDeployedApplications != nil ||
		len(o.ServiceTypeHealthPolicyMap) > 0
}

func nodeBounds(minimum, maximum *int64) flags.Check {
	return flags.Check{Option: "--minimum-nodes", Check: func() error {
		if minimum != nil && *minimum < 0 {
			return fmt.Errorf("--minimum-nodes cannot be negative")
		}
		if maximum != nil && *maximum < 0 {
			return fmt.Errorf("--maximum-nodes cannot be negative")
		}
		if minimum != nil && maximum != nil && *minimum > *maximum {
			return fmt.Errorf("--minimum-nodes (%d) cannot exceed --maximum-nodes (%d)", *minimum, *maximum)
		}
		return nil
	}}
}

// ValidateCreateService checks the options of "sf service create". Choosing
// exactly one partition scheme flag is checked where the flags are bound.
func ValidateCreateService(o ServiceCreateOptions) error {
	checks := []flags.Check{
		flags.Required("--application-name", o.ApplicationName),
		flags.Required("--service-name", o.ServiceName),
		flags.Required("--service-type", o.ServiceType),
		flags.ExactlyOne(map[string]bool{"--stateless": o.Stateless, "--stateful": o.Stateful}, "--stateless", "--stateful"),
		{Option: "--service-name", Check: func() error {
			if o.ApplicationName == "" || o.ServiceName == "" {
				return nil
			}
			if !strings.HasPrefix(o.ServiceName, o.ApplicationName+"~") {
				return fmt.Errorf("invalid service name, the application name must be a prefix of the service name, for example: '%s~%s'", o.ApplicationName, o.ServiceName)
			}
			return nil
		}},
	}

	if o.Stateless {
		checks = append(checks, flags.Check{Option: "--instance-count", Check: func() error {
			if o.MinReplicaSetSize != nil || o.TargetReplicaSetSize != nil {
				return fmt.Errorf("--min-replica-set-size and --target-replica-set-size are only for stateful services")
			}
			if o.InstanceCount == nil {
				return fmt.Errorf("--instance-count is required for stateless services")
			}
			if n := *o.InstanceCount; n == 0 || n < -1 {
				return fmt.Errorf("--instance-count must be -1 (one per node) or positive, got %d", n)
			}
			return nil
		}})
	}
	if o.Stateful {
		checks = append(checks, flags.Check{Option: "--target-replica-set-size", Check: func() error {
			if o.InstanceCount != nil {
				return fmt.Errorf("--instance-count is only for stateless services")
			}
			if o.MinReplicaSetSize == nil || o.TargetReplicaSetSize == nil {
				return fmt.Errorf("--min-replica-set-size and --target-replica-set-size are required for stateful services")
			}
			if *o.MinReplicaSetSize < 1 || *o.MinReplicaSetSize > *o.TargetReplicaSetSize {
				return fmt.Errorf("--min-replica-set-size must be between 1 and --target-replica-set-size")
			}
			return nil
		}})
	}

	switch o.PartitionScheme {
	case PartitionNamed:
		checks = append(checks, flags.Check{Option: "--partition-names", Check: func() error {
			if len(o.PartitionNames) == 0 {
				return fmt.Errorf("--partition-names is required with --partition-scheme-named")
			}
			return nil
		}})
	case PartitionUniformInt64Range:
		if o.PartitionCount != nil {
			checks = append(checks, flags.Range("--partition-count", *o.PartitionCount, 1, 1<<31))
		}
	}

	return flags.Validate(checks...)
}

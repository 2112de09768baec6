package application

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/logger"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

// Flags de duração, todas em segundos.
var durationFlags = []struct {
	name  string
	usage string
	field func(*servicefabric.ApplicationUpdateOptions) **int64
}{
	{"upgrade-replica-set-check-timeout", "Tempo máximo bloqueado aguardando o replica set", func(o *servicefabric.ApplicationUpdateOptions) **int64 { return &o.UpgradeReplicaSetCheckTimeout }},
	{"health-check-retry-timeout", "Tempo de novas tentativas da verificação de saúde antes da ação de falha", func(o *servicefabric.ApplicationUpdateOptions) **int64 { return &o.HealthCheckRetryTimeout }},
	{"health-check-wait-duration", "Espera após concluir um upgrade domain antes de verificar a saúde", func(o *servicefabric.ApplicationUpdateOptions) **int64 { return &o.HealthCheckWaitDuration }},
	{"health-check-stable-duration", "Tempo em que a aplicação precisa continuar saudável", func(o *servicefabric.ApplicationUpdateOptions) **int64 { return &o.HealthCheckStableDuration }},
	{"upgrade-domain-timeout", "Tempo máximo de cada upgrade domain", func(o *servicefabric.ApplicationUpdateOptions) **int64 { return &o.UpgradeDomainTimeout }},
	{"upgrade-timeout", "Tempo máximo do upgrade inteiro", func(o *servicefabric.ApplicationUpdateOptions) **int64 { return &o.UpgradeTimeout }},
}

// Flags de percentual, de 0 a 100.
var percentFlags = []struct {
	name  string
	usage string
	field func(*servicefabric.ApplicationUpdateOptions) **int64
}{
	{"default-service-type-max-percent-unhealthy-partitions-per-service", "Percentual máximo de partições não saudáveis por serviço", func(o *servicefabric.ApplicationUpdateOptions) **int64 {
		return &o.DefaultServiceTypeMaxPercentUnhealthyPartitionsPerService
	}},
	{"default-service-type-max-percent-unhealthy-replicas-per-partition", "Percentual máximo de réplicas não saudáveis por partição", func(o *servicefabric.ApplicationUpdateOptions) **int64 {
		return &o.DefaultServiceTypeMaxPercentUnhealthyReplicasPerPartition
	}},
	{"default-max-percent-service-type-unhealthy-services", "Percentual máximo de serviços não saudáveis", func(o *servicefabric.ApplicationUpdateOptions) **int64 {
		return &o.DefaultMaxPercentServiceTypeUnhealthyServices
	}},
	{"max-percent-unhealthy-deployed-applications", "Percentual máximo de aplicações implantadas não saudáveis", func(o *servicefabric.ApplicationUpdateOptions) **int64 {
		return &o.MaxPercentUnhealthyDeployedApplications
	}},
}

func newUpdateCommand(f *sfutil.Factory) *cobra.Command {
	opts := servicefabric.ApplicationUpdateOptions{}
	params := flags.NewKeyValueValue("--application-parameters")
	failureAction := flags.NewEnumValue("", servicefabric.FailureActionValues...)
	policyMap := &flags.JSONValue{}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Atualiza uma aplicação ou inicia o upgrade para outra versão",
		Long: heredoc.Doc(`
			Altera parâmetros, limites de nós ou a política de upgrade da aplicação.
			Com --application-type-version, inicia o upgrade monitorado para a versão,
			que precisa estar registrada. As durações são em segundos.
		`),
		Example: heredoc.Doc(`
			# Upgrade para a versão 2.0 com reinício forçado
			fabricctl sf application update -g meu-rg -n meu-cluster --application-name testApp \
			  --application-type-version 2.0 --force-restart --upgrade-replica-set-check-timeout 300

			# Política de saúde por tipo de serviço
			fabricctl sf application update -g meu-rg -n meu-cluster --application-name testApp \
			  --service-type-health-policy-map '{"ServiceTypeName01": "5,10,5"}'
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Get()
			opts.Parameters = params.Map()
			opts.MinimumNodes = sfutil.Int64If(cmd, "minimum-nodes")
			opts.MaximumNodes = sfutil.Int64If(cmd, "maximum-nodes")
			opts.FailureAction = failureAction.String()
			for _, d := range durationFlags {
				*d.field(&opts) = sfutil.Int64If(cmd, d.name)
			}
			for _, p := range percentFlags {
				*p.field(&opts) = sfutil.Int64If(cmd, p.name)
			}
			if policyMap.IsSet() {
				m, err := healthPolicyMap(policyMap)
				if err != nil {
					return err
				}
				opts.ServiceTypeHealthPolicyMap = m
			}

			if err := servicefabric.ValidateUpdateApplication(opts); err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			log.Info("Atualizando aplicação...", "aplicação", opts.ApplicationName, "cluster", ref.Name)
			app, err := client.UpdateApplication(ctx, ref, opts)
			if err != nil {
				log.Error("Falha ao atualizar a aplicação", "aplicação", opts.ApplicationName, "erro", err)
				return err
			}
			return f.PrintResource(cmd, app)
		},
	}

	fs := updateCmd.Flags()
	fs.StringVar(&opts.ApplicationName, "application-name", "", "Nome da aplicação")
	fs.StringVar(&opts.TypeVersion, "application-type-version", "", "Versão alvo do upgrade")
	fs.Var(params, "application-parameters", "Parâmetros da aplicação no formato KEY=VALUE; repetir a flag substitui a lista anterior")
	fs.Int64("minimum-nodes", 0, "Número mínimo de nós onde a aplicação terá capacidade reservada")
	fs.Int64("maximum-nodes", 0, "Número máximo de nós onde a aplicação pode executar")
	fs.BoolVar(&opts.ForceRestart, "force-restart", false, "Reinicia os processos mesmo sem mudança de código")
	fs.Var(failureAction, "failure-action", "Ação quando o upgrade monitorado falha: Rollback ou Manual")
	fs.BoolVar(&opts.ConsiderWarningAsError, "consider-warning-as-error", false, "Trata avisos de saúde como erros")
	fs.Var(policyMap, "service-type-health-policy-map", "Objeto JSON (ou @arquivo) de tipo de serviço para \"partições,réplicas,serviços\"")
	for _, d := range durationFlags {
		fs.Int64(d.name, 0, d.usage+" (segundos)")
	}
	for _, p := range percentFlags {
		fs.Int64(p.name, 0, p.usage)
	}

	return updateCmd
}

// healthPolicyMap exige um objeto JSON com valores string.
func healthPolicyMap(v *flags.JSONValue) (map[string]string, error) {
	obj, err := v.Object("--service-type-health-policy-map")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(obj))
	for name, raw := range obj {
		spec, ok := raw.(string)
		if !ok {
			return nil, flags.Usagef("--service-type-health-policy-map: the value of %q must be a string like \"5,10,5\"", name)
		}
		out[name] = spec
	}
	return out, nil
}

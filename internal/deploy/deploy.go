// fabricctl/internal/deploy/deploy.go
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/estudosdevops/fabricctl/internal/cloud"
)

// deploymentPrefix é o prefixo dos nomes de deployment gerados pelo cliente.
const deploymentPrefix = "AzurePSDeployment-"

// validationHeader abre a lista de erros de validação.
const validationHeader = "Error validating template. See below for more information."

// ValidationError é devolvido quando o Resource Manager rejeita o template.
// Nenhum deployment real foi tentado.
type ValidationError struct {
	Lines []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Lines, "\n")
}

// Deployer executa a sequência validar-e-implantar contra um ResourceManager.
type Deployer struct {
	rm  cloud.ResourceManager
	log *slog.Logger
	now func() time.Time
}

// New cria um Deployer. O logger é recebido explicitamente.
func New(rm cloud.ResourceManager, log *slog.Logger) *Deployer {
	return &Deployer{rm: rm, log: log, now: time.Now}
}

// DeploymentName gera o nome do deployment com resolução de minuto.
func DeploymentName(now time.Time) string {
	return deploymentPrefix + now.Format("200601021504")
}

// ValidateAndDeploy valida o template e, só se não houver erro, submete o
// deployment com o mesmo nome e espera a operação terminar.
func (d *Deployer) ValidateAndDeploy(ctx context.Context, resourceGroup string, template, parameters map[string]any) (*cloud.DeploymentResult, error) {
	name := DeploymentName(d.now())
	deployment := &cloud.Deployment{
		Template:   template,
		Parameters: parameters,
		Mode:       cloud.DeploymentModeIncremental,
	}

	d.log.Info("Validando o deployment", "grupo", resourceGroup, "deployment", name)
	detail, err := d.rm.ValidateDeployment(ctx, resourceGroup, name, deployment)
	if err != nil {
		return nil, fmt.Errorf("falha ao validar o deployment %s: %w", name, err)
	}
	if detail != nil {
		lines := append([]string{validationHeader}, BuildDetailedError(detail)...)
		return nil, &ValidationError{Lines: lines}
	}

	d.log.Info("Deployment válido, iniciando a implantação", "deployment", name)
	result, err := d.rm.CreateOrUpdateDeployment(ctx, resourceGroup, name, deployment)
	if err != nil {
		return nil, fmt.Errorf("falha no deployment %s: %w", name, err)
	}

	d.log.Debug("Deployment concluído", "deployment", name, "estado", result.ProvisioningState)
	return result, nil
}

// BuildDetailedError achata a árvore de erros em profundidade, uma linha por nó.
func BuildDetailedError(root *cloud.ErrorDetail) []string {
	var lines []string
	var walk func(e *cloud.ErrorDetail)
	walk = func(e *cloud.ErrorDetail) {
		if e == nil {
			return
		}
		if len(lines) == 0 {
			lines = append(lines, fmt.Sprintf("Error - Code: \"%s\" Message: \"%s\"", e.Code, e.Message))
		} else {
			lines = append(lines, fmt.Sprintf(" Inner Error - Code: \"%s\" Message: \"%s\"", e.Code, e.Message))
		}
		for _, child := range e.Details {
			walk(child)
		}
	}
	walk(root)
	return lines
}

package servicefabric

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/template"
)

// Default ports and ranges of a new node type.
const (
	defaultClientConnectionPort = 19000
	defaultHTTPGatewayPort      = 19080
	defaultAppStartPort         = 20000
	defaultAppEndPort           = 30000
	defaultEphemeralStartPort   = 49152
	defaultEphemeralEndPort     = 65534
)

// ClusterCreateOptions contém os parâmetros de "sf cluster create".
type ClusterCreateOptions struct {
	Location string

	// Template mode
	TemplateFile  string
	ParameterFile string

	// Default template mode
	SecretIdentifier   string
	VaultResourceGroup string
	VMPassword         string
	VMUserName         string
	VMOS               string
	VMSKU              string
	ClusterSize        int
}

// CertificateAddOptions contém os parâmetros de "sf cluster certificate add".
type CertificateAddOptions struct {
	SecretIdentifier   string
	VaultResourceGroup string
}

// ClientCertificateOptions contém os parâmetros de
// "sf cluster client-certificate add/remove".
type ClientCertificateOptions struct {
	Thumbprint          string
	IsAdmin             bool
	CommonName          string
	IssuerThumbprint    string
	AdminThumbprints    []string
	ReadonlyThumbprints []string
	Thumbprints         []string
	CommonNames         []ClientCertificateCommonName
}

// NodeTypeAddOptions contém os parâmetros de "sf cluster node-type add".
type NodeTypeAddOptions struct {
	Name            string
	Capacity        int
	VMUserName      string
	VMPassword      string
	DurabilityLevel string
	VMSKU           string
	VMTier          string
}

// WaitOptions controla "sf cluster wait".
type WaitOptions struct {
	ProvisioningState string
	ClusterState      string
	Deleted           bool
	Interval          time.Duration
	Timeout           time.Duration
}

// Setting is one fabric setting parameter addressed by section.
type Setting struct {
	Section   string
	Parameter string
	Value     string
}

// ErrClusterFailed is returned by WaitCluster when provisioning failed.
var ErrClusterFailed = errors.New("cluster provisioning failed")

func (p *ClusterProperties) normalize() {
	if p.ClientCertificateThumbprints == nil {
		p.ClientCertificateThumbprints = []ClientCertificateThumbprint{}
	}
	if p.ClientCertificateCommonNames == nil {
		p.ClientCertificateCommonNames = []ClientCertificateCommonName{}
	}
	if p.FabricSettings == nil {
		p.FabricSettings = []SettingsSection{}
	}
	if p.NodeTypes == nil {
		p.NodeTypes = []NodeType{}
	}
}

func (p *ClusterProperties) nodeType(name string) (*NodeType, error) {
	for i := range p.NodeTypes {
		if strings.EqualFold(p.NodeTypes[i].Name, name) {
			return &p.NodeTypes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: node type %s", cloud.ErrNotFound, name)
}

func (p *ClusterProperties) primaryNodeType() (*NodeType, error) {
	for i := range p.NodeTypes {
		if p.NodeTypes[i].IsPrimary {
			return &p.NodeTypes[i], nil
		}
	}
	return nil, errors.New("cluster has no primary node type")
}

func (c *Client) loadCluster(ctx context.Context, ref ClusterRef) (*cloud.Resource, *ClusterProperties, error) {
	r, err := c.get(ctx, ref.ID(), APIVersion, "o cluster "+ref.Name)
	if err != nil {
		return nil, nil, err
	}
	var props ClusterProperties
	if err := r.DecodeProperties(&props); err != nil {
		return nil, nil, err
	}
	return r, &props, nil
}

func (c *Client) saveCluster(ctx context.Context, r *cloud.Resource, props *ClusterProperties) (*cloud.Resource, error) {
	props.normalize()
	if err := mergeProperties(r, props); err != nil {
		return nil, err
	}
	c.log.Debug("Atualizando cluster", "cluster", r.Name)
	return c.put(ctx, r.ID, APIVersion, "o cluster "+r.Name, r)
}

func (c *Client) loadScaleSet(ctx context.Context, ref ClusterRef, nodeType string) (scaleSet, error) {
	r, err := c.rm.GetResource(ctx, ref.ScaleSetID(nodeType), ComputeAPIVersion)
	if err != nil {
		return scaleSet{}, fmt.Errorf("falha ao buscar o scale set do node type %s: %w", nodeType, err)
	}
	return scaleSet{r}, nil
}

func (c *Client) saveScaleSet(ctx context.Context, s scaleSet) error {
	delete(s.Properties, "provisioningState")
	c.log.Info("Atualizando scale set", "scaleSet", s.Name)
	_, err := c.put(ctx, s.ID, ComputeAPIVersion, "o scale set "+s.Name, s.Resource)
	return err
}

// ListClusters lista os clusters do resource group, ou da subscription
// inteira quando resourceGroup é vazio.
func (c *Client) ListClusters(ctx context.Context, resourceGroup string) ([]*cloud.Resource, error) {
	return c.list(ctx, ClustersCollectionID(c.rm.SubscriptionID(), resourceGroup), "clusters")
}

// GetCluster busca o cluster.
func (c *Client) GetCluster(ctx context.Context, ref ClusterRef) (*cloud.Resource, error) {
	return c.get(ctx, ref.ID(), APIVersion, "o cluster "+ref.Name)
}

// CreateCluster implanta o cluster via validar-e-implantar, com o template
// informado pelo usuário ou com o template padrão embutido.
func (c *Client) CreateCluster(ctx context.Context, ref ClusterRef, opts ClusterCreateOptions) (*cloud.Resource, error) {
	var tmpl, params map[string]any
	var err error

	if opts.TemplateFile != "" {
		tmpl, params, err = c.userTemplate(opts)
		if err != nil {
			return nil, err
		}
		if name, ok := template.ParameterValue(params, "clusterName"); ok {
			if s, ok := name.(string); ok && s != "" && s != ref.Name {
				c.log.Debug("Usando o nome do cluster do arquivo de parâmetros", "cluster", s)
				ref.Name = s
			}
		}
	} else {
		tmpl, params, err = c.defaultTemplate(ctx, ref, opts)
		if err != nil {
			return nil, err
		}
	}

	c.log.Info("Criando cluster", "cluster", ref.Name, "grupo", ref.ResourceGroup)
	if _, err := c.deployer.ValidateAndDeploy(ctx, ref.ResourceGroup, tmpl, params); err != nil {
		return nil, err
	}
	return c.GetCluster(ctx, ref)
}

func (c *Client) userTemplate(opts ClusterCreateOptions) (map[string]any, map[string]any, error) {
	tmpl, err := template.LoadFile(opts.TemplateFile)
	if err != nil {
		return nil, nil, err
	}
	params := map[string]any{}
	if opts.ParameterFile != "" {
		params, err = template.LoadParameterFile(opts.ParameterFile)
		if err != nil {
			return nil, nil, err
		}
	}
	return tmpl, params, nil
}

func (c *Client) defaultTemplate(ctx context.Context, ref ClusterRef, opts ClusterCreateOptions) (map[string]any, map[string]any, error) {
	if opts.SecretIdentifier == "" {
		return nil, nil, flags.Usagef("--secret-identifier is required when no --template-file is given")
	}
	if opts.VMPassword == "" {
		return nil, nil, flags.Usagef("--vm-password is required when no --template-file is given")
	}

	location := opts.Location
	if location == "" {
		loc, err := c.rm.ResourceGroupLocation(ctx, ref.ResourceGroup)
		if err != nil {
			return nil, nil, fmt.Errorf("falha ao buscar a localização do grupo %s: %w", ref.ResourceGroup, err)
		}
		location = loc
	}

	vmOS := opts.VMOS
	if vmOS == "" {
		vmOS = DefaultVMOS
	}
	image, err := ImageForOS(vmOS)
	if err != nil {
		return nil, nil, err
	}

	size := opts.ClusterSize
	if size == 0 {
		size = 5
	}
	reliability, err := ReliabilityForClusterSize(size)
	if err != nil {
		return nil, nil, err
	}

	cert, err := c.vaultCertificate(ctx, opts.SecretIdentifier, opts.VaultResourceGroup)
	if err != nil {
		return nil, nil, err
	}

	tmpl, err := template.Cluster()
	if err != nil {
		return nil, nil, err
	}
	params := template.ClusterParameters{
		ClusterName:           ref.Name,
		Location:              location,
		AdminUserName:         opts.VMUserName,
		AdminPassword:         opts.VMPassword,
		ImagePublisher:        image.Publisher,
		ImageOffer:            image.Offer,
		ImageSKU:              image.SKU,
		Linux:                 image.Linux,
		VMSKU:                 opts.VMSKU,
		InstanceCount:         size,
		ReliabilityLevel:      reliability,
		CertificateThumbprint: cert.thumbprint,
		SourceVaultID:         cert.vaultID,
		CertificateURL:        cert.secretID,
	}.Values()
	return tmpl, params, nil
}

type vaultCertificate struct {
	secretID   string
	vaultID    string
	thumbprint string
}

// vaultCertificate reads the certificate secret and resolves the vault
// resource that VMs pull it from.
func (c *Client) vaultCertificate(ctx context.Context, secretID, vaultResourceGroup string) (*vaultCertificate, error) {
	ref, err := cloud.ParseSecretID(secretID)
	if err != nil {
		return nil, err
	}

	secret, err := c.rm.GetSecret(ctx, secretID)
	if err != nil {
		return nil, fmt.Errorf("falha ao ler o segredo %s: %w", ref.Name, err)
	}
	thumbprint, err := cloud.CertificateThumbprint(secret)
	if err != nil {
		return nil, err
	}

	vaults, err := c.rm.ListByType(ctx, vaultResourceGroup, vaultResourceType)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar key vaults: %w", err)
	}
	for _, v := range vaults {
		if strings.EqualFold(v.Name, ref.VaultName()) {
			c.log.Debug("Key vault encontrado", "vault", v.ID, "thumbprint", thumbprint)
			return &vaultCertificate{secretID: secret.ID, vaultID: v.ID, thumbprint: thumbprint}, nil
		}
	}
	return nil, fmt.Errorf("%w: key vault %s", cloud.ErrNotFound, ref.VaultName())
}

// WaitCluster espera o cluster chegar ao estado pedido. Um provisionamento
// Failed interrompe a espera.
func (c *Client) WaitCluster(ctx context.Context, ref ClusterRef, opts WaitOptions) (*cloud.Resource, error) {
	interval, timeout := opts.Interval, opts.Timeout
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = time.Hour
	}
	want := opts.ProvisioningState
	if want == "" {
		want = "Succeeded"
	}

	var last *cloud.Resource
	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		r, err := c.rm.GetResource(ctx, ref.ID(), APIVersion)
		if cloud.IsNotFound(err) {
			return opts.Deleted, nil
		}
		if err != nil {
			return false, fmt.Errorf("falha ao buscar o cluster %s: %w", ref.Name, err)
		}
		last = r
		if opts.Deleted {
			return false, nil
		}

		state := r.ProvisioningState()
		clusterState, _ := r.Properties["clusterState"].(string)
		c.log.Debug("Estado do cluster", "provisioningState", state, "clusterState", clusterState)

		if strings.EqualFold(state, "Failed") {
			return false, fmt.Errorf("%w: %s", ErrClusterFailed, ref.Name)
		}
		if !strings.EqualFold(state, want) {
			return false, nil
		}
		return opts.ClusterState == "" || strings.EqualFold(clusterState, opts.ClusterState), nil
	})
	if err != nil {
		if wait.Interrupted(err) {
			return nil, fmt.Errorf("tempo esgotado esperando o cluster %s: %w", ref.Name, err)
		}
		return nil, err
	}
	if opts.Deleted {
		return nil, nil
	}
	return last, nil
}

// AddClusterCertificate instala um certificado secundário nas VMs e no cluster.
func (c *Client) AddClusterCertificate(ctx context.Context, ref ClusterRef, opts CertificateAddOptions) (*cloud.Resource, error) {
	cert, err := c.vaultCertificate(ctx, opts.SecretIdentifier, opts.VaultResourceGroup)
	if err != nil {
		return nil, err
	}

	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}
	if props.Certificate == nil {
		return nil, fmt.Errorf("cluster %s não usa certificado", ref.Name)
	}
	if strings.EqualFold(props.Certificate.Thumbprint, cert.thumbprint) || strings.EqualFold(props.Certificate.ThumbprintSecondary, cert.thumbprint) {
		return nil, fmt.Errorf("certificado %s já está no cluster", cert.thumbprint)
	}
	if props.Certificate.ThumbprintSecondary != "" {
		return nil, fmt.Errorf("cluster %s já tem um certificado secundário (%s); remova-o primeiro", ref.Name, props.Certificate.ThumbprintSecondary)
	}

	for _, nt := range props.NodeTypes {
		vmss, err := c.loadScaleSet(ctx, ref, nt.Name)
		if err != nil {
			return nil, err
		}
		settings, err := vmss.fabricSettings()
		if err != nil {
			return nil, err
		}
		vmss.addVaultCertificate(cert.vaultID, cert.secretID)
		settings["certificateSecondary"] = map[string]any{
			"thumbprint":    cert.thumbprint,
			"x509StoreName": "My",
		}
		if err := c.saveScaleSet(ctx, vmss); err != nil {
			return nil, err
		}
	}

	c.log.Info("Adicionando certificado secundário", "thumbprint", cert.thumbprint)
	props.Certificate.ThumbprintSecondary = cert.thumbprint
	return c.saveCluster(ctx, r, props)
}

// RemoveClusterCertificate remove o certificado pelo thumbprint. Remover o
// primário promove o secundário.
func (c *Client) RemoveClusterCertificate(ctx context.Context, ref ClusterRef, thumbprint string) (*cloud.Resource, error) {
	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}
	cert := props.Certificate
	if cert == nil {
		return nil, fmt.Errorf("cluster %s não usa certificado", ref.Name)
	}

	switch {
	case strings.EqualFold(cert.ThumbprintSecondary, thumbprint):
		cert.ThumbprintSecondary = ""
	case strings.EqualFold(cert.Thumbprint, thumbprint):
		if cert.ThumbprintSecondary == "" {
			return nil, fmt.Errorf("%s é o único certificado do cluster e não pode ser removido", thumbprint)
		}
		cert.Thumbprint, cert.ThumbprintSecondary = cert.ThumbprintSecondary, ""
	default:
		return nil, fmt.Errorf("%w: certificado %s no cluster %s", cloud.ErrNotFound, thumbprint, ref.Name)
	}

	c.log.Info("Removendo certificado do cluster", "thumbprint", thumbprint)
	return c.saveCluster(ctx, r, props)
}

// AddClientCertificates concede acesso a certificados de cliente.
// Thumbprints repetidos têm só o tipo de acesso atualizado.
func (c *Client) AddClientCertificates(ctx context.Context, ref ClusterRef, opts ClientCertificateOptions) (*cloud.Resource, error) {
	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}

	grant := func(thumbprint string, admin bool) {
		for i := range props.ClientCertificateThumbprints {
			if strings.EqualFold(props.ClientCertificateThumbprints[i].CertificateThumbprint, thumbprint) {
				props.ClientCertificateThumbprints[i].IsAdmin = admin
				return
			}
		}
		props.ClientCertificateThumbprints = append(props.ClientCertificateThumbprints,
			ClientCertificateThumbprint{IsAdmin: admin, CertificateThumbprint: thumbprint})
	}
	if opts.Thumbprint != "" {
		grant(opts.Thumbprint, opts.IsAdmin)
	}
	for _, t := range opts.AdminThumbprints {
		grant(t, true)
	}
	for _, t := range opts.ReadonlyThumbprints {
		grant(t, false)
	}

	names := slices.Clone(opts.CommonNames)
	if opts.CommonName != "" {
		names = append(names, ClientCertificateCommonName{
			IsAdmin:                     opts.IsAdmin,
			CertificateCommonName:       opts.CommonName,
			CertificateIssuerThumbprint: opts.IssuerThumbprint,
		})
	}
	for _, n := range names {
		idx := slices.IndexFunc(props.ClientCertificateCommonNames, func(e ClientCertificateCommonName) bool {
			return sameCommonName(e, n)
		})
		if idx >= 0 {
			props.ClientCertificateCommonNames[idx].IsAdmin = n.IsAdmin
			continue
		}
		props.ClientCertificateCommonNames = append(props.ClientCertificateCommonNames, n)
	}

	return c.saveCluster(ctx, r, props)
}

// RemoveClientCertificates revoga certificados de cliente por thumbprint
// ou por common name + issuer.
func (c *Client) RemoveClientCertificates(ctx context.Context, ref ClusterRef, opts ClientCertificateOptions) (*cloud.Resource, error) {
	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}

	thumbprints := slices.Clone(opts.Thumbprints)
	if opts.Thumbprint != "" {
		thumbprints = append(thumbprints, opts.Thumbprint)
	}
	names := slices.Clone(opts.CommonNames)
	if opts.CommonName != "" {
		names = append(names, ClientCertificateCommonName{
			CertificateCommonName:       opts.CommonName,
			CertificateIssuerThumbprint: opts.IssuerThumbprint,
		})
	}

	before := len(props.ClientCertificateThumbprints) + len(props.ClientCertificateCommonNames)
	props.ClientCertificateThumbprints = slices.DeleteFunc(props.ClientCertificateThumbprints, func(e ClientCertificateThumbprint) bool {
		return slices.ContainsFunc(thumbprints, func(t string) bool { return strings.EqualFold(t, e.CertificateThumbprint) })
	})
	props.ClientCertificateCommonNames = slices.DeleteFunc(props.ClientCertificateCommonNames, func(e ClientCertificateCommonName) bool {
		return slices.ContainsFunc(names, func(n ClientCertificateCommonName) bool { return sameCommonName(e, n) })
	})
	if before == len(props.ClientCertificateThumbprints)+len(props.ClientCertificateCommonNames) {
		c.log.Warn("Nenhum certificado de cliente correspondente encontrado", "cluster", ref.Name)
	}

	return c.saveCluster(ctx, r, props)
}

func sameCommonName(a, b ClientCertificateCommonName) bool {
	return strings.EqualFold(a.CertificateCommonName, b.CertificateCommonName) &&
		strings.EqualFold(a.CertificateIssuerThumbprint, b.CertificateIssuerThumbprint)
}

// ParseSettings reads a settings description, a JSON list of
// {"section","parameter","value"} objects. Values may be numbers or booleans.
func ParseSettings(v any, requireValue bool) ([]Setting, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, errors.New("expected a JSON list of {\"section\", \"parameter\", \"value\"} objects")
	}

	out := make([]Setting, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d is not an object", i)
		}
		section, _ := m["section"].(string)
		parameter, _ := m["parameter"].(string)
		if section == "" || parameter == "" {
			return nil, fmt.Errorf("item %d needs \"section\" and \"parameter\"", i)
		}
		s := Setting{Section: section, Parameter: parameter}
		if value, ok := m["value"]; ok && value != nil {
			s.Value = fmt.Sprint(value)
		} else if requireValue {
			return nil, fmt.Errorf("item %d needs \"value\"", i)
		}
		out = append(out, s)
	}
	return out, nil
}

// SetSettings grava parâmetros em fabricSettings, criando seções quando preciso.
func (c *Client) SetSettings(ctx context.Context, ref ClusterRef, settings []Setting) (*cloud.Resource, error) {
	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}

	for _, s := range settings {
		idx := slices.IndexFunc(props.FabricSettings, func(sec SettingsSection) bool { return strings.EqualFold(sec.Name, s.Section) })
		if idx < 0 {
			props.FabricSettings = append(props.FabricSettings, SettingsSection{Name: s.Section})
			idx = len(props.FabricSettings) - 1
		}
		section := &props.FabricSettings[idx]

		p := slices.IndexFunc(section.Parameters, func(sp SettingsParameter) bool { return strings.EqualFold(sp.Name, s.Parameter) })
		if p >= 0 {
			section.Parameters[p].Value = s.Value
			continue
		}
		section.Parameters = append(section.Parameters, SettingsParameter{Name: s.Parameter, Value: s.Value})
	}

	return c.saveCluster(ctx, r, props)
}

// RemoveSettings remove parâmetros de fabricSettings. Seções vazias saem junto.
func (c *Client) RemoveSettings(ctx context.Context, ref ClusterRef, settings []Setting) (*cloud.Resource, error) {
	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}

	for _, s := range settings {
		for i := range props.FabricSettings {
			section := &props.FabricSettings[i]
			if !strings.EqualFold(section.Name, s.Section) {
				continue
			}
			section.Parameters = slices.DeleteFunc(section.Parameters, func(sp SettingsParameter) bool {
				return strings.EqualFold(sp.Name, s.Parameter)
			})
		}
	}
	props.FabricSettings = slices.DeleteFunc(props.FabricSettings, func(sec SettingsSection) bool {
		return len(sec.Parameters) == 0
	})

	return c.saveCluster(ctx, r, props)
}

// SetUpgradeType define o modo de upgrade do runtime. O modo manual fixa a versão.
func (c *Client) SetUpgradeType(ctx context.Context, ref ClusterRef, mode, version string) (*cloud.Resource, error) {
	if strings.EqualFold(mode, "manual") && version == "" {
		return nil, flags.Usagef("--version is required when --upgrade-mode is manual")
	}

	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(mode, "manual") {
		props.UpgradeMode = "Manual"
	} else {
		props.UpgradeMode = "Automatic"
	}
	if version != "" {
		props.ClusterCodeVersion = version
	}

	c.log.Info("Alterando modo de upgrade", "modo", props.UpgradeMode, "versão", version)
	return c.saveCluster(ctx, r, props)
}

// UpdateReliability altera o nível de confiabilidade. Com autoAddNode, o
// node type primário cresce até o mínimo exigido pelo nível.
func (c *Client) UpdateReliability(ctx context.Context, ref ClusterRef, level string, autoAddNode bool) (*cloud.Resource, error) {
	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(props.ReliabilityLevel, level) {
		c.log.Info("Nível de confiabilidade já aplicado", "nível", level)
		return r, nil
	}

	primary, err := props.primaryNodeType()
	if err != nil {
		return nil, err
	}
	minimum := MinimumNodesForReliability(level)
	if primary.VMInstanceCount < minimum {
		if !autoAddNode {
			return nil, fmt.Errorf("reliability %s requires at least %d nodes in node type %s, which has %d; use --auto-add-node",
				level, minimum, primary.Name, primary.VMInstanceCount)
		}
		if err := c.scaleNodeType(ctx, ref, primary, minimum); err != nil {
			return nil, err
		}
	}

	c.log.Info("Alterando nível de confiabilidade", "de", props.ReliabilityLevel, "para", level)
	props.ReliabilityLevel = level
	return c.saveCluster(ctx, r, props)
}

// UpdateDurability altera a durabilidade de um node type no cluster e na
// extensão do scale set.
func (c *Client) UpdateDurability(ctx context.Context, ref ClusterRef, nodeTypeName, level string) (*cloud.Resource, error) {
	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}
	nt, err := props.nodeType(nodeTypeName)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(nt.DurabilityLevel, level) {
		c.log.Info("Durabilidade já aplicada", "nodeType", nt.Name, "nível", level)
		return r, nil
	}
	if err := checkDurabilityChange(nt.DurabilityLevel, level); err != nil {
		return nil, err
	}

	vmss, err := c.loadScaleSet(ctx, ref, nt.Name)
	if err != nil {
		return nil, err
	}
	if vmss.SKU != nil {
		if err := checkDurabilitySKU(level, vmss.SKU.Name); err != nil {
			return nil, err
		}
	}
	settings, err := vmss.fabricSettings()
	if err != nil {
		return nil, err
	}
	settings["durabilityLevel"] = level
	if err := c.saveScaleSet(ctx, vmss); err != nil {
		return nil, err
	}

	c.log.Info("Alterando durabilidade", "nodeType", nt.Name, "de", nt.DurabilityLevel, "para", level)
	nt.DurabilityLevel = level
	return c.saveCluster(ctx, r, props)
}

// AddNodes aumenta o número de nós de um node type.
func (c *Client) AddNodes(ctx context.Context, ref ClusterRef, nodeTypeName string, count int) (*cloud.Resource, error) {
	if count <= 0 {
		return nil, fmt.Errorf("number of nodes to add must be positive, got %d", count)
	}
	return c.resizeNodeType(ctx, ref, nodeTypeName, count)
}

// RemoveNodes diminui o número de nós de um node type. O primário não pode
// ficar abaixo do mínimo do nível de confiabilidade.
func (c *Client) RemoveNodes(ctx context.Context, ref ClusterRef, nodeTypeName string, count int) (*cloud.Resource, error) {
	if count <= 0 {
		return nil, fmt.Errorf("number of nodes to remove must be positive, got %d", count)
	}
	return c.resizeNodeType(ctx, ref, nodeTypeName, -count)
}

func (c *Client) resizeNodeType(ctx context.Context, ref ClusterRef, nodeTypeName string, delta int) (*cloud.Resource, error) {
	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}
	nt, err := props.nodeType(nodeTypeName)
	if err != nil {
		return nil, err
	}

	target := nt.VMInstanceCount + delta
	minimum := 1
	if nt.IsPrimary {
		minimum = MinimumNodesForReliability(props.ReliabilityLevel)
	}
	if target < minimum {
		return nil, fmt.Errorf("node type %s cannot go below %d nodes (reliability %s), requested %d",
			nt.Name, minimum, props.ReliabilityLevel, target)
	}

	if err := c.scaleNodeType(ctx, ref, nt, target); err != nil {
		return nil, err
	}
	return c.saveCluster(ctx, r, props)
}

// scaleNodeType sets the scale set capacity and the node count of nt.
func (c *Client) scaleNodeType(ctx context.Context, ref ClusterRef, nt *NodeType, target int) error {
	vmss, err := c.loadScaleSet(ctx, ref, nt.Name)
	if err != nil {
		return err
	}
	c.log.Info("Redimensionando node type", "nodeType", nt.Name, "de", vmss.capacity(), "para", target)
	vmss.setCapacity(int64(target))
	if err := c.saveScaleSet(ctx, vmss); err != nil {
		return err
	}
	nt.VMInstanceCount = target
	return nil
}

// AddNodeType cria o scale set do novo node type a partir do primário
// (validar-e-implantar) e registra o node type no cluster.
func (c *Client) AddNodeType(ctx context.Context, ref ClusterRef, opts NodeTypeAddOptions) (*cloud.Resource, error) {
	if opts.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", opts.Capacity)
	}
	if opts.VMPassword == "" {
		return nil, flags.Usagef("--vm-password is required")
	}
	if opts.VMUserName == "" {
		opts.VMUserName = "adminuser"
	}
	if opts.DurabilityLevel == "" {
		opts.DurabilityLevel = "Bronze"
	}

	r, props, err := c.loadCluster(ctx, ref)
	if err != nil {
		return nil, err
	}
	if _, err := props.nodeType(opts.Name); err == nil {
		return nil, fmt.Errorf("node type %s already exists in cluster %s", opts.Name, ref.Name)
	}
	primary, err := props.primaryNodeType()
	if err != nil {
		return nil, err
	}

	base, err := c.loadScaleSet(ctx, ref, primary.Name)
	if err != nil {
		return nil, err
	}
	resource, err := base.cloneForNodeType(opts)
	if err != nil {
		return nil, err
	}
	if sku, ok := resource["sku"].(map[string]any); ok {
		name, _ := sku["name"].(string)
		if err := checkDurabilitySKU(opts.DurabilityLevel, name); err != nil {
			return nil, err
		}
	}

	tmpl := template.SingleResource(resource, "adminPassword")
	params := template.Wrap(map[string]any{"adminPassword": opts.VMPassword})
	c.log.Info("Criando scale set do node type", "nodeType", opts.Name, "capacidade", opts.Capacity)
	if _, err := c.deployer.ValidateAndDeploy(ctx, ref.ResourceGroup, tmpl, params); err != nil {
		return nil, err
	}

	props.NodeTypes = append(props.NodeTypes, NodeType{
		Name:                         opts.Name,
		ClientConnectionEndpointPort: defaultClientConnectionPort,
		HTTPGatewayEndpointPort:      defaultHTTPGatewayPort,
		IsPrimary:                    false,
		VMInstanceCount:              opts.Capacity,
		DurabilityLevel:              opts.DurabilityLevel,
		ApplicationPorts:             &EndpointRange{StartPort: defaultAppStartPort, EndPort: defaultAppEndPort},
		EphemeralPorts:               &EndpointRange{StartPort: defaultEphemeralStartPort, EndPort: defaultEphemeralEndPort},
	})
	return c.saveCluster(ctx, r, props)
}

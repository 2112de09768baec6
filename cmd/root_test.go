package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/cloud/cloudtest"
	"github.com/estudosdevops/fabricctl/internal/flags"
)

const (
	testSubscription = "00000000-0000-0000-0000-000000000000"
	testGroup        = "sfrg"
	testCluster      = "sfcluster"
	testSecretID     = "https://kv-sf.vault.azure.net/secrets/clustercert/0123"
	testPackageURL   = "https://sfstore.blob.core.windows.net/apps/app.sfpkg"
)

// cli roda comandos contra um único fake, recriando a árvore a cada chamada.
type cli struct {
	t  *testing.T
	rm *cloudtest.ResourceManager
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AZURE_SUBSCRIPTION_ID", "")

	rm := cloudtest.New(testSubscription)
	rm.OnDeploy = cloudtest.MaterializeTemplate
	rm.AddResourceGroup(testGroup, "westus")
	rm.Seed(&cloud.Resource{
		ID:   "/subscriptions/" + testSubscription + "/resourceGroups/" + testGroup + "/providers/Microsoft.KeyVault/vaults/kv-sf",
		Name: "kv-sf",
		Type: "Microsoft.KeyVault/vaults",
	})
	secret, _ := cloudtest.CertificateSecret(t, testSecretID)
	rm.AddSecret(secret)

	return &cli{t: t, rm: rm}
}

// exec roda "fabricctl <args>" e devolve a saída padrão.
func (c *cli) exec(args ...string) (string, error) {
	c.t.Helper()

	f := sfutil.NewFactory()
	f.NewProvider = func(sfutil.Settings) (cloud.ResourceManager, error) {
		return c.rm, nil
	}
	root := NewRootCommand(f)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := Execute(root, args)
	return out.String(), err
}

// sf roda um subcomando do grupo sf no cluster de teste e decodifica o JSON.
func (c *cli) sf(args ...string) (map[string]any, error) {
	c.t.Helper()

	full := append([]string{"sf"}, args...)
	full = append(full, "--subscription", testSubscription, "-g", testGroup, "-n", testCluster)
	out, err := c.exec(full...)
	if err != nil || strings.TrimSpace(out) == "" {
		return nil, err
	}

	var v map[string]any
	require.NoError(c.t, json.Unmarshal([]byte(out), &v), "output: %s", out)
	return v, nil
}

func (c *cli) mustSF(args ...string) map[string]any {
	c.t.Helper()
	v, err := c.sf(args...)
	require.NoError(c.t, err, "fabricctl sf %s", strings.Join(args, " "))
	return v
}

// path lê um campo aninhado, como "upgradePolicy.forceRestart".
func path(v map[string]any, p string) any {
	var cur any = v
	for _, key := range strings.Split(p, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func length(v map[string]any) int {
	list, _ := v["value"].([]any)
	return len(list)
}

func TestApplicationLifecycle(t *testing.T) {
	c := newCLI(t)

	cluster := c.mustSF("cluster", "create", "--secret-identifier", testSecretID, "--vm-password", "Pass@Word1")
	assert.Equal(t, testCluster, cluster["name"])
	assert.Equal(t, 1, length(c.mustSF("cluster", "list")))

	appType := c.mustSF("application-type", "create", "--application-type-name", "CalcServiceApp")
	assert.Equal(t, "Succeeded", appType["provisioningState"])
	assert.Equal(t, 1, length(c.mustSF("application-type", "list")))

	version := c.mustSF("application-type-version", "create",
		"--application-type-name", "CalcServiceApp", "--version", "1.0", "--package-url", testPackageURL)
	assert.Equal(t, "Succeeded", version["provisioningState"])

	app := c.mustSF("application", "create", "--application-name", "calcApp",
		"--application-type-name", "CalcServiceApp", "--version", "1.0",
		"--application-parameters", "Mode=binary")
	assert.Equal(t, "Succeeded", app["provisioningState"])
	assert.Equal(t, "1.0", app["typeVersion"])
	assert.Equal(t, "binary", path(app, "parameters.Mode"))

	svc := c.mustSF("service", "create", "--application-name", "calcApp",
		"--service-name", "calcApp~calcService", "--service-type", "CalcServiceType",
		"--stateless", "--instance-count", "-1", "--partition-scheme-singleton")
	assert.Equal(t, "Succeeded", svc["provisioningState"])
	assert.Equal(t, "Stateless", svc["serviceKind"])
	assert.InDelta(t, -1, svc["instanceCount"], 0)
	assert.Equal(t, 1, length(c.mustSF("service", "list", "--application-name", "calcApp")))

	c.mustSF("application-type-version", "create",
		"--application-type-name", "CalcServiceApp", "--version", "1.1", "--package-url", testPackageURL)
	assert.Equal(t, 2, length(c.mustSF("application-type-version", "list", "--application-type-name", "CalcServiceApp")))

	app = c.mustSF("application", "update", "--application-name", "calcApp",
		"--application-type-version", "1.1", "--force-restart",
		"--upgrade-replica-set-check-timeout", "300", "--upgrade-timeout", "7000", "--upgrade-domain-timeout", "5000")
	assert.Equal(t, "1.1", app["typeVersion"])
	assert.Equal(t, true, path(app, "upgradePolicy.forceRestart"))
	assert.Equal(t, "00:05:00", path(app, "upgradePolicy.upgradeReplicaSetCheckTimeout"))
	assert.Equal(t, "01:56:40", path(app, "upgradePolicy.rollingUpgradeMonitoringPolicy.upgradeTimeout"))
	assert.Equal(t, "01:23:20", path(app, "upgradePolicy.rollingUpgradeMonitoringPolicy.upgradeDomainTimeout"))

	app = c.mustSF("application", "update", "--application-name", "calcApp", "--minimum-nodes", "1", "--maximum-nodes", "3")
	assert.InDelta(t, 1, app["minimumNodes"], 0)
	assert.InDelta(t, 3, app["maximumNodes"], 0)
	assert.Equal(t, "binary", path(app, "parameters.Mode"))

	c.mustSF("service", "delete", "--application-name", "calcApp", "--service-name", "calcApp~calcService")
	c.mustSF("application", "delete", "--application-name", "calcApp")
	c.mustSF("application-type", "delete", "--application-type-name", "CalcServiceApp")

	_, err := c.sf("application", "show", "--application-name", "calcApp")
	assert.Equal(t, ExitNotFound, ExitCode(err), "error: %v", err)
	_, err = c.sf("application-type", "show", "--application-type-name", "CalcServiceApp")
	assert.Equal(t, ExitNotFound, ExitCode(err), "error: %v", err)
}

func TestApplicationParameters(t *testing.T) {
	c := newCLI(t)
	c.mustSF("cluster", "create", "--secret-identifier", testSecretID, "--vm-password", "Pass@Word1")

	out, err := c.exec("sf", "application", "create", "--application-name", "orderedApp",
		"--application-type-name", "OrderedApp", "--version", "1.0", "--package-url", testPackageURL,
		"--application-parameters", "Zeta=1", "Alpha=2", "Mid=3",
		"--subscription", testSubscription, "-g", testGroup, "-n", testCluster)
	require.NoError(t, err)
	zeta, alpha, mid := strings.Index(out, `"Zeta"`), strings.Index(out, `"Alpha"`), strings.Index(out, `"Mid"`)
	assert.True(t, zeta >= 0 && zeta < alpha && alpha < mid, "parameters out of input order:\n%s", out)

	out, err = c.exec("sf", "application", "update", "--application-name", "orderedApp",
		"--application-parameters", "Beta=4", "Alpha=5",
		"--subscription", testSubscription, "-g", testGroup, "-n", testCluster)
	require.NoError(t, err)
	zeta, alpha, mid = strings.Index(out, `"Zeta"`), strings.Index(out, `"Alpha": "5"`), strings.Index(out, `"Mid"`)
	beta := strings.Index(out, `"Beta"`)
	assert.True(t, zeta >= 0 && zeta < alpha && alpha < mid && mid < beta, "existing keys should come first:\n%s", out)

	app := c.mustSF("application", "create", "--application-name", "lastWins",
		"--application-type-name", "OrderedApp", "--version", "1.0",
		"--application-parameters", "A=1", "B=2", "--application-parameters", "C=3")
	assert.Equal(t, map[string]any{"C": "3"}, app["parameters"])
}

func TestUsageErrors(t *testing.T) {
	c := newCLI(t)

	testCases := []struct {
		name        string
		args        []string
		expectError string
	}{
		{name: "missing required flag", args: []string{"application", "create", "--application-name", "a"}, expectError: "--application-type-name is required"},
		{name: "unknown flag", args: []string{"application", "list", "--bogus"}, expectError: "unknown flag"},
		{name: "bad enum", args: []string{"cluster", "upgrade-type", "set", "--upgrade-mode", "sometimes"}, expectError: "allowed values"},
		{name: "bad key value", args: []string{"application", "create", "--application-parameters", "novalue"}, expectError: "KEY=VALUE"},
		{name: "service name without prefix", args: []string{
			"service", "create", "--application-name", "a", "--service-name", "svc", "--service-type", "T",
			"--stateless", "--instance-count", "1", "--partition-scheme-singleton",
		}, expectError: "'a~svc'"},
		{name: "two partition schemes", args: []string{
			"service", "create", "--partition-scheme-singleton", "--partition-scheme-named",
		}, expectError: "exactly one of"},
		{name: "positional argument", args: []string{"application", "list", "extra"}, expectError: "unexpected argument"},
		{name: "unknown application subcommand", args: []string{"application", "bogus"}, expectError: "unexpected argument"},
		{name: "unknown service subcommand", args: []string{"service", "bogus"}, expectError: "unexpected argument"},
		{name: "unknown application-type subcommand", args: []string{"application-type", "bogus"}, expectError: "unexpected argument"},
		{name: "unknown version subcommand", args: []string{"application-type-version", "bogus"}, expectError: "unexpected argument"},
		{name: "unknown cluster subcommand", args: []string{"cluster", "bogus"}, expectError: "unexpected argument"},
		{name: "unknown nested subcommand", args: []string{"cluster", "certificate", "bogus"}, expectError: "unexpected argument"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.sf(tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectError)
			assert.Equal(t, ExitUsage, ExitCode(err))
		})
	}

	_, err := c.exec("no-such-command")
	assert.Equal(t, ExitUsage, ExitCode(err), "error: %v", err)

	_, err = c.exec("sf", "bogus")
	assert.Equal(t, ExitUsage, ExitCode(err), "error: %v", err)
}

func TestGroupHelp(t *testing.T) {
	c := newCLI(t)

	for _, group := range []string{"sf", "application", "service", "cluster"} {
		args := []string{"sf", group}
		if group == "sf" {
			args = []string{"sf"}
		}
		out, err := c.exec(args...)
		require.NoError(t, err, "fabricctl %s", strings.Join(args, " "))
		assert.Contains(t, out, "Available Commands", "fabricctl %s", strings.Join(args, " "))
	}
}

func TestConfigContext(t *testing.T) {
	c := newCLI(t)
	c.mustSF("cluster", "create", "--secret-identifier", testSecretID, "--vm-password", "Pass@Word1")

	cfg := filepath.Join(t.TempDir(), "fabricctl.yaml")
	content := fmt.Sprintf(`current-context: staging
contexts:
  staging:
    azure:
      subscription: %s
      resource-group: %s
`, testSubscription, testGroup)
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0o600))

	out, err := c.exec("sf", "cluster", "show", "-n", testCluster, "--config", cfg, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: "+testCluster)

	_, err = c.exec("sf", "cluster", "show", "-n", testCluster)
	require.Error(t, err)
	assert.Equal(t, ExitUsage, ExitCode(err))
	assert.Contains(t, err.Error(), "subscription")
}

func TestExitCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: ExitOK},
		{name: "usage", err: flags.Usagef("--x is required"), want: ExitUsage},
		{name: "wrapped not found", err: fmt.Errorf("show: %w", cloud.ErrNotFound), want: ExitNotFound},
		{name: "generic", err: errors.New("boom"), want: ExitError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out, err := c.exec("version")
	require.NoError(t, err)
	assert.Equal(t, "fabricctl "+Version+"\n", out)
}

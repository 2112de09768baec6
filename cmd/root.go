// cmd/root.go
package cmd

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/estudosdevops/fabricctl/cmd/sf"
	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/cloud"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/logger"
	"github.com/estudosdevops/fabricctl/internal/presenter"
)

// Códigos de saída.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitNotFound = 3
)

// MultiValueFlags aceitam vários valores após uma única flag, como em
// "--application-parameters a=1 b=2". Repetir a flag substitui os valores
// anteriores.
var MultiValueFlags = []string{
	"--application-parameters",
	"--partition-names",
	"--admin-client-thumbprints",
	"--readonly-client-thumbprints",
	"--thumbprints",
}

// NewRootCommand cria o comando raiz da nossa aplicação.
func NewRootCommand(f *sfutil.Factory) *cobra.Command {
	var cfgFile string
	var verbose bool

	// Os PersistentPreRunE do raiz e do grupo sf rodam em sequência.
	cobra.EnableTraverseRunHooks = true

	rootCmd := &cobra.Command{
		Use:   "fabricctl",
		Short: "fabricctl - Uma ferramenta de CLI para clusters Azure Service Fabric",
		Long: `fabricctl é uma ferramenta de CLI para criar e operar clusters do Azure
Service Fabric e as aplicações implantadas neles, via Azure Resource Manager.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logger.SetLevel(slog.LevelDebug)
			}
			return initConfig(f.Config, cfgFile)
		},
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &flags.UsageError{Msg: err.Error(), Err: err}
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "arquivo de configuração (o padrão é $HOME/.fabricctl.yaml)")
	rootCmd.PersistentFlags().String("context", "", "O contexto a ser usado do arquivo de configuração (ex: staging, producao)")
	rootCmd.PersistentFlags().StringP("output", "o", presenter.FormatJSON, "Formato da saída: json, yaml ou table")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Exibe logs de depuração")

	rootCmd.AddCommand(sf.NewCommand(f))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// initConfig lê o arquivo de configuração. A ausência do arquivo padrão não é erro.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".fabricctl")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return flags.Usagef("falha ao ler o arquivo de configuração: %v", err)
	}
	logger.Get().Debug("Usando o arquivo de configuração", "arquivo", v.ConfigFileUsed())
	return nil
}

// Execute roda o comando com os argumentos informados.
func Execute(root *cobra.Command, args []string) error {
	args = flags.KeepLastOccurrence(args, MultiValueFlags...)
	root.SetArgs(flags.ExpandMultiValue(args, MultiValueFlags...))
	err := root.Execute()
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		return &flags.UsageError{Msg: err.Error(), Err: err}
	}
	return err
}

// ExitCode traduz o erro devolvido por Execute no código de saída.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case flags.IsUsageError(err):
		return ExitUsage
	case cloud.IsNotFound(err):
		return ExitNotFound
	default:
		return ExitError
	}
}

package cluster

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/estudosdevops/fabricctl/cmd/sf/sfutil"
	"github.com/estudosdevops/fabricctl/internal/flags"
	"github.com/estudosdevops/fabricctl/internal/servicefabric"
)

func newSettingCommand(f *sfutil.Factory) *cobra.Command {
	return sfutil.Group("setting", "Gerencia as fabric settings do cluster",
		newSettingSetCommand(f),
		newSettingRemoveCommand(f),
	)
}

// settingInput junta as duas formas de informar settings: uma por flags
// ou uma lista JSON em --settings-section-description.
type settingInput struct {
	section     string
	parameter   string
	value       string
	description flags.JSONValue
}

func (in *settingInput) register(cmd *cobra.Command, withValue bool) {
	cmd.Flags().StringVar(&in.section, "section", "", "Nome da seção")
	cmd.Flags().StringVar(&in.parameter, "parameter", "", "Nome do parâmetro")
	if withValue {
		cmd.Flags().StringVar(&in.value, "value", "", "Valor do parâmetro")
	}
	cmd.Flags().Var(&in.description, "settings-section-description", heredoc.Doc(`
		Lista JSON (ou @arquivo) de settings, por exemplo:
		[{"section": "NamingService", "parameter": "MaxOperationTimeout", "value": 1000}]`))
}

func (in *settingInput) settings(withValue bool) ([]servicefabric.Setting, error) {
	set := map[string]bool{
		"--section":                      in.section != "" || in.parameter != "",
		"--settings-section-description": in.description.IsSet(),
	}
	if err := flags.Validate(
		flags.ExactlyOne(set, "--section", "--settings-section-description"),
		flags.When(set["--section"], flags.Required("--section", in.section)),
		flags.When(set["--section"], flags.Required("--parameter", in.parameter)),
		flags.When(set["--section"] && withValue, flags.Required("--value", in.value)),
	); err != nil {
		return nil, err
	}

	if in.description.IsSet() {
		settings, err := servicefabric.ParseSettings(in.description.Value, withValue)
		if err != nil {
			return nil, flags.Usagef("--settings-section-description: %v", err)
		}
		return settings, nil
	}
	return []servicefabric.Setting{{Section: in.section, Parameter: in.parameter, Value: in.value}}, nil
}

func newSettingSetCommand(f *sfutil.Factory) *cobra.Command {
	in := &settingInput{}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Grava fabric settings no cluster",
		Example: heredoc.Doc(`
			fabricctl sf cluster setting set -g meu-rg -n meu-cluster \
			  --section NamingService --parameter MaxOperationTimeout --value 10000
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := in.settings(true)
			if err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			cluster, err := client.SetSettings(ctx, ref, settings)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}
	in.register(setCmd, true)
	return setCmd
}

func newSettingRemoveCommand(f *sfutil.Factory) *cobra.Command {
	in := &settingInput{}

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove fabric settings do cluster",
		Example: heredoc.Doc(`
			fabricctl sf cluster setting remove -g meu-rg -n meu-cluster \
			  --section NamingService --parameter MaxOperationTimeout
		`),
		Args: sfutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := in.settings(false)
			if err != nil {
				return err
			}
			client, ref, err := f.Setup(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := sfutil.Context(cmd, sfutil.DeployTimeout)
			defer cancel()

			cluster, err := client.RemoveSettings(ctx, ref, settings)
			if err != nil {
				return err
			}
			return f.PrintResource(cmd, cluster)
		},
	}
	in.register(removeCmd, false)
	return removeCmd
}

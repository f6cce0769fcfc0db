package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hirepath/shortlist/configs"
	"github.com/hirepath/shortlist/internal/output"
)

// defaultConfigFile is where `config init` writes the template.
const defaultConfigFile = "shortlist.yaml"

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage shortlistd configuration",
		Long: `Manage shortlistd configuration.

Configuration is resolved from built-in defaults, then shortlist.yaml
(or the --config file), then environment variables.`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// newConfigInitCmd creates the config init command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the annotated configuration template",
		Long:  `Write the annotated configuration template to shortlist.yaml in the working directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing shortlist.yaml")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(defaultConfigFile); err == nil && !force {
		out.Warningf("%s already exists", defaultConfigFile)
		out.Status("💡", "Use --force to overwrite it with the template")
		return nil
	}

	if err := os.WriteFile(defaultConfigFile, []byte(configs.ConfigTemplate), 0644); err != nil {
		return fmt.Errorf("write %s: %w", defaultConfigFile, err)
	}

	out.Successf("Created %s", defaultConfigFile)
	out.Status("💡", "Set MONGO_URI and LLM_API_KEY in the environment or a .env file")
	return nil
}

// newConfigShowCmd creates the config show command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the effective configuration after applying the config file and
environment overrides. The LLM API key is never printed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd)
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	keyState := "not set (keyword parsing and template highlights)"
	if cfg.LLM.APIKey != "" {
		keyState = "set"
	}

	fmt.Fprintln(cmd.OutOrStdout(), "# effective shortlistd configuration")
	fmt.Fprintf(cmd.OutOrStdout(), "# llm api key: %s\n", keyState)
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

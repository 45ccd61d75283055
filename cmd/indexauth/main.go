// Package main is the entry point for the indexauth CLI
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/su1ph3r/indexauth/pkg/types"
)

var (
	version = "1.0.0"
	cfgFile string
	config  *types.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errNotFound) {
			printError("%v", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexauth",
	Short: "indexauth - keyring credentials for package indexes",
	Long: `indexauth stores and resolves the username/password pairs used to
authenticate against package indexes.

Passwords live in the platform keyring, reached through an external agent
such as the "keyring" command. Lookups try the full index URL first and
fall back to the index host.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || !config.Output.Color {
			color.NoColor = true
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify indexauth configuration settings`,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.Set(args[0], args[1])
		if err := viper.WriteConfig(); err != nil {
			return viper.SafeWriteConfig()
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), viper.Get(args[0]))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.indexauth.yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("keyring-provider", "", "Keyring provider (disabled, subprocess, native)")
	rootCmd.PersistentFlags().String("keyring-command", "", "Agent executable for the subprocess provider")
	rootCmd.PersistentFlags().StringArray("index", []string{}, "Package index as name=url (repeatable)")
	rootCmd.PersistentFlags().String("auth-config", "", "Path of the index username file")

	_ = viper.BindPFlag("keyring.provider", rootCmd.PersistentFlags().Lookup("keyring-provider"))
	_ = viper.BindPFlag("keyring.command", rootCmd.PersistentFlags().Lookup("keyring-command"))
	_ = viper.BindPFlag("auth_config", rootCmd.PersistentFlags().Lookup("auth-config"))
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add commands
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configShowCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".indexauth")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("INDEXAUTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	defaults := types.DefaultConfig()
	viper.SetDefault("keyring.provider", defaults.Keyring.Provider)
	viper.SetDefault("keyring.command", defaults.Keyring.Command)
	viper.SetDefault("keyring.service", defaults.Keyring.Service)
	viper.SetDefault("keyring.timeout", defaults.Keyring.Timeout)
	viper.SetDefault("concurrency", defaults.Concurrency)
	viper.SetDefault("output.color", defaults.Output.Color)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			printWarning("Could not read config file: %v", err)
		}
	}

	config = defaults
	if err := viper.Unmarshal(config); err != nil {
		printWarning("Could not load configuration: %v", err)
	}
}

func printInfo(format string, args ...interface{}) {
	color.Cyan("[*] "+format, args...)
}

func printSuccess(format string, args ...interface{}) {
	color.Green("[+] "+format, args...)
}

func printWarning(format string, args ...interface{}) {
	color.Yellow("[!] "+format, args...)
}

func printError(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "[-] "+format+"\n", args...)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/su1ph3r/indexauth/internal/authconfig"
	"github.com/su1ph3r/indexauth/internal/commands"
	"github.com/su1ph3r/indexauth/internal/credentials"
	"github.com/su1ph3r/indexauth/internal/index"
	"github.com/su1ph3r/indexauth/internal/logging"
	"github.com/su1ph3r/indexauth/internal/prompt"
	"github.com/su1ph3r/indexauth/pkg/types"
)

// errNotFound makes `auth get` exit non-zero on a miss without printing.
var errNotFound = errors.New("no credentials found")

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage package index credentials",
		Long:  `Add, list, look up and remove keyring credentials for package indexes`,
	}

	addCmd := &cobra.Command{
		Use:   "add <index>",
		Short: "Store credentials for an index",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdd,
	}
	addCmd.Flags().StringP("username", "u", "", "Username (prompted when omitted)")
	addCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show which indexes have credentials",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	unsetCmd := &cobra.Command{
		Use:   "unset <index>",
		Short: "Remove credentials for an index",
		Args:  cobra.ExactArgs(1),
		RunE:  runUnset,
	}
	unsetCmd.Flags().StringP("username", "u", "", "Username (defaults to the stored one, then prompts)")

	getCmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Print the password resolved for a URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}
	getCmd.Flags().StringP("username", "u", "", "Username to look up (defaults to the one in the URL)")

	authCmd.AddCommand(addCmd, listCmd, unsetCmd, getCmd)
	return authCmd
}

// newEnv wires the resolver and its collaborators from configuration.
func newEnv(cmd *cobra.Command, needAuthConfig bool) (*commands.Env, error) {
	if errs := types.NewConfigValidator().Validate(config); errs.HasErrors() {
		return nil, errs
	}

	logger := logging.NewCommandLogger(config.Output.Verbose)

	resolver, err := newResolver(logger)
	if err != nil {
		return nil, err
	}

	configured, err := index.FromSettings(config.Indexes)
	if err != nil {
		return nil, err
	}
	specs, _ := cmd.Flags().GetStringArray("index")
	extra, err := index.ParseAll(specs)
	if err != nil {
		return nil, err
	}

	env := &commands.Env{
		Resolver:    resolver,
		Indexes:     configured.Merge(extra),
		Prompter:    prompt.New(),
		Logger:      logger,
		Concurrency: config.Concurrency,
	}

	if needAuthConfig {
		auth, err := authconfig.Load(config.AuthConfig)
		if err != nil {
			return nil, err
		}
		env.AuthConfig = auth
	}

	return env, nil
}

func newResolver(logger *slog.Logger) (*credentials.Resolver, error) {
	provider, err := credentials.ParseProviderType(config.Keyring.Provider)
	if err != nil {
		return nil, err
	}

	resolver, err := credentials.NewResolverWithOptions(credentials.Options{
		Provider: provider,
		Command:  config.Keyring.Command,
		Service:  config.Keyring.Service,
		Logger:   logger,
	})
	if errors.Is(err, credentials.ErrProviderDisabled) {
		return nil, fmt.Errorf("keyring provider is not available (set keyring.provider to subprocess or native)")
	}
	return resolver, err
}

// commandContext is cancelled on interrupt and after keyring.timeout when
// one is configured.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if config.Keyring.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, config.Keyring.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	if err := commands.Add(ctx, env, args[0], username, password); err != nil {
		return err
	}
	printSuccess("Stored credentials for index '%s'", args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	statuses, err := commands.List(ctx, env)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		printInfo("No index has a stored username in %s", env.AuthConfig.Path())
	}

	for _, s := range statuses {
		if s.HasCredentials {
			printSuccess("Index: '%s' authenticates with username '%s'.", s.Index, s.Username)
		} else {
			printWarning("Index: '%s' has no credentials.", s.Index)
		}
	}
	for _, name := range commands.Orphaned(env) {
		printWarning("Index: '%s' is in %s but no longer configured.", name, env.AuthConfig.Path())
	}
	return nil
}

func runUnset(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	username, _ := cmd.Flags().GetString("username")
	if err := commands.Unset(ctx, env, args[0], username); err != nil {
		return err
	}
	printSuccess("Removed credentials for index '%s'", args[0])
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, false)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	u, err := url.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	username, _ := cmd.Flags().GetString("username")

	creds, err := commands.Get(ctx, env, u, username)
	if errors.Is(err, commands.ErrNoUsername) {
		return fmt.Errorf("pass --username or put the username in the URL: %w", err)
	}
	if err != nil {
		return err
	}
	if creds == nil {
		return errNotFound
	}
	password, _ := creds.Password()
	fmt.Fprintln(cmd.OutOrStdout(), password)
	return nil
}

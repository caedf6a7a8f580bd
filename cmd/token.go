package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const defaultTokenRef = "api_token"

var errEmptyToken = errors.New("token value is empty")

func newTokenCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the API token kept in the secret store",
		Long:  "Tokens are stored in pass when it is available and in the secrets directory otherwise. Prefix a reference with pass: or file: to pick the backend.",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newTokenSetCmd(app), newTokenRemoveCmd(app), newTokenCheckCmd(app))
	return cmd
}

// tokenRef falls back to api.token_ref, then to the default key.
func (a *app) tokenRef(ref string) string {
	if ref != "" {
		return ref
	}
	if a.cfg.API.TokenRef != "" {
		return a.cfg.API.TokenRef
	}
	return defaultTokenRef
}

func newTokenSetCmd(app *app) *cobra.Command {
	var ref string
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API token; reads the first line of stdin without --value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if value == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token from stdin: %w", errEmptyToken)
				}
				value = line
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return errEmptyToken
			}

			store, err := app.secretStore(app.cfg)
			if err != nil {
				return err
			}
			resolved := app.tokenRef(ref)
			if err := store.Put(cmd.Context(), resolved, value); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored token at %s\n", resolved)
			return err
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Secret reference (default: api.token_ref or api_token)")
	cmd.Flags().StringVar(&value, "value", "", "Token value")

	return cmd
}

func newTokenRemoveCmd(app *app) *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.secretStore(app.cfg)
			if err != nil {
				return err
			}
			resolved := app.tokenRef(ref)
			if err := store.Delete(cmd.Context(), resolved); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed token at %s\n", resolved)
			return err
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "Secret reference (default: api.token_ref or api_token)")

	return cmd
}

func newTokenCheckCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report where the API token for fetches comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch {
			case app.cfg.API.Token != "":
				_, err := fmt.Fprintln(out, "api token: set in config")
				return err
			case app.cfg.API.TokenRef == "":
				_, err := fmt.Fprintln(out, "api token: not configured, requests are sent without one")
				return err
			}

			token, err := app.apiToken(cmd.Context(), app.cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "api token: resolved from %s (%d chars)\n", app.cfg.API.TokenRef, len(token))
			return err
		},
	}
}

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/spf13/cobra"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the plugin profile",
	}

	cmd.AddCommand(newProfileInitCmd(app), newProfilePathCmd(app))

	return cmd
}

func newProfileInitCmd(app *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in profile to the profile path for editing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := app.profiles.Path()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("profile %s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat profile: %w", err)
			}

			if err := app.profiles.Save(domain.DefaultProfile()); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing profile")

	return cmd
}

func newProfilePathCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the profile path in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), app.profiles.Path())
			return err
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nareynolds/dicommanager-go/cmd/export"
	"github.com/nareynolds/dicommanager-go/cmd/manage"
	"github.com/nareynolds/dicommanager-go/cmd/note"
	"github.com/nareynolds/dicommanager-go/cmd/query"
	"github.com/nareynolds/dicommanager-go/cmd/remove"
	"github.com/nareynolds/dicommanager-go/cmd/wanted"
	"github.com/nareynolds/dicommanager-go/internal/config"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *config.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dicommanager",
		Short: "Catalogue and organize collections of DICOM files",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, ctx.Settings); err != nil {
		cobra.CheckErr(err)
	}

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		manage.Command(ctx),
		export.Command(ctx),
		remove.Command(ctx),
		note.Command(ctx),
		wanted.Command(ctx),
		query.Command(ctx),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *config.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Project, "project", "p", settings.Project, "Project that owns the operation")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

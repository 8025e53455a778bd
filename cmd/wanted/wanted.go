package wanted

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nareynolds/dicommanager-go/internal/catalog"
	"github.com/nareynolds/dicommanager-go/internal/config"
)

// Command creates the wanted command group for tracking studies the
// project is still looking for.
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wanted",
		Short: "Track studies the project wants to import",
	}

	cmd.AddCommand(addCommand(ctx), listCommand(ctx), togoCommand(ctx))
	return cmd
}

func addCommand(ctx *config.Context) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "add [accession-numbers...]",
		Short: "Put accession numbers on the wanted list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			added, repeats, err := mgr.AddWanted(args, note)
			if err != nil {
				return err
			}

			fmt.Printf("%d accession numbers submitted, %d already present, %d added.\n",
				added+repeats, repeats, added)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Note to record with each accession number")
	return cmd
}

func listCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the project's wanted studies",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			wanted, err := mgr.Wanted()
			if err != nil {
				return err
			}

			fmt.Printf("The project '%s' has %d wanted studies:\n", ctx.Settings.Project, len(wanted))
			for _, w := range wanted {
				if w.Note != "" {
					fmt.Printf("  %s  (%s)\n", w.AccessionNumber, w.Note)
				} else {
					fmt.Printf("  %s\n", w.AccessionNumber)
				}
			}
			return nil
		},
	}
}

func togoCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "togo",
		Short: "List wanted studies with no imported series yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			togo, err := mgr.StudiesToGet()
			if err != nil {
				return err
			}

			fmt.Printf("The project '%s' still has %d studies to get:\n", ctx.Settings.Project, len(togo))
			for _, accession := range togo {
				fmt.Printf("  %s\n", accession)
			}
			return nil
		},
	}
}

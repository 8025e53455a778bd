package note

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nareynolds/dicommanager-go/internal/catalog"
	"github.com/nareynolds/dicommanager-go/internal/config"
)

// Command creates the note command group for annotating series.
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Annotate catalogued series",
	}

	cmd.AddCommand(addCommand(ctx), listCommand(ctx), deleteCommand(ctx))
	return cmd
}

func addCommand(ctx *config.Context) *cobra.Command {
	var ids []uint

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Attach a note to one or more owned series",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return errors.New("no series IDs provided, use --ids")
			}

			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			added := mgr.AddNotes(ids, strings.Join(args, " "))
			fmt.Printf("Note added to %d of %d series.\n", added, len(ids))
			return nil
		},
	}

	cmd.Flags().UintSliceVar(&ids, "ids", nil, "Series record IDs to annotate")
	return cmd
}

func listCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list [series-id]",
		Short: "List the project's notes on a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid series ID %q: %w", args[0], err)
			}

			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			notes, err := mgr.Notes(uint(id))
			if err != nil {
				return err
			}
			if len(notes) == 0 {
				fmt.Printf("No notes on series %d.\n", id)
				return nil
			}

			fmt.Printf("Series %d has %d notes:\n", id, len(notes))
			for _, n := range notes {
				fmt.Printf("  %d. %s\n", n.ID, n.Note)
			}
			return nil
		},
	}
}

func deleteCommand(ctx *config.Context) *cobra.Command {
	var ids []uint

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the project's notes by note ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return errors.New("no note IDs provided, use --ids")
			}

			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			deleted := mgr.DeleteNotes(ids)
			fmt.Printf("Deleted %d of %d notes.\n", deleted, len(ids))
			return nil
		},
	}

	cmd.Flags().UintSliceVar(&ids, "ids", nil, "Note IDs to delete")
	return cmd
}

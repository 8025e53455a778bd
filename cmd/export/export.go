package export

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nareynolds/dicommanager-go/internal/catalog"
	"github.com/nareynolds/dicommanager-go/internal/config"
)

// Command creates the export command for copying series out of storage.
func Command(ctx *config.Context) *cobra.Command {
	var (
		ids        []uint
		byAge      bool
		flat       bool
		seriesUIDs bool
	)

	cmd := &cobra.Command{
		Use:   "export [destination]",
		Short: "Copy owned series to a destination directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return errors.New("no series IDs provided, use --ids")
			}

			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			fmt.Printf("Exporting %d series...\n", len(ids))
			report := mgr.Export(ids, args[0], catalog.ExportOptions{
				AgeBreakdown:  byAge,
				DirectoryTree: !flat,
				ReadableSlug:  !seriesUIDs,
			})

			fmt.Printf("Done: %d exported, %d skipped, %d failed.\n",
				report.Exported, report.Skipped, report.Failed)
			return nil
		},
	}

	cmd.Flags().UintSliceVar(&ids, "ids", nil, "Series record IDs to export")
	cmd.Flags().BoolVar(&byAge, "by-age", false, "Group exported series by patient age at scan time")
	cmd.Flags().BoolVar(&flat, "flat", false, "Copy series directories directly under the destination")
	cmd.Flags().BoolVar(&seriesUIDs, "series-uid-names", false, "Name exported series directories by SeriesInstanceUID")

	return cmd
}

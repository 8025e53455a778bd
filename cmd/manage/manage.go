package manage

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nareynolds/dicommanager-go/internal/catalog"
	"github.com/nareynolds/dicommanager-go/internal/config"
	"github.com/nareynolds/dicommanager-go/internal/prompt"
)

// Command creates the manage command for importing DICOM files.
func Command(ctx *config.Context) *cobra.Command {
	var (
		recursive    bool
		deleteSource bool
		noRecord     bool
		noStore      bool
	)

	cmd := &cobra.Command{
		Use:   "manage [directory]",
		Short: "Import DICOM files into the catalogue",
		Long: `Search a directory for DICOM files and catalogue each one: index its
series in the database, claim it for the acting project, file it into
managed storage and link it into the project's alias trees.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			fmt.Println("Finding DICOM files to import...")
			paths, err := mgr.Find(args[0], recursive)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Println("No DICOM files found.")
				return nil
			}

			if deleteSource {
				question := fmt.Sprintf("Delete all %d source files after import?", len(paths))
				if !prompt.Confirm(os.Stdin, os.Stdout, question) {
					deleteSource = false
				}
			}

			fmt.Printf("Importing %d DICOM files...\n", len(paths))
			report := mgr.Ingest(paths, catalog.IngestOptions{
				DeleteSource: deleteSource,
				NoRecord:     noRecord,
				NoStore:      noStore,
			})

			fmt.Printf("Done: %d catalogued (%d already stored), %d failed.\n",
				report.Managed, report.Duplicates, report.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "Search subdirectories for DICOM files")
	cmd.Flags().BoolVar(&deleteSource, "delete-source", false, "Delete source files after import (asks for confirmation)")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Skip indexing series in the database")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Skip copying files into managed storage")

	return cmd
}

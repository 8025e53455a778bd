package query

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nareynolds/dicommanager-go/internal/catalog"
	"github.com/nareynolds/dicommanager-go/internal/config"
	"github.com/nareynolds/dicommanager-go/internal/datastore"
)

// Command creates the query command group for inspecting the catalogue.
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Inspect the project's catalogue",
	}

	cmd.AddCommand(patientsCommand(ctx), accessionsCommand(ctx), seriesCommand(ctx))
	return cmd
}

func patientsCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "patients",
		Short: "List the project's patient IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			ids, err := mgr.PatientIDs()
			if err != nil {
				return err
			}

			fmt.Printf("The project '%s' has %d patients:\n", ctx.Settings.Project, len(ids))
			for _, id := range ids {
				fmt.Printf("  %s\n", id)
			}
			return nil
		},
	}
}

func accessionsCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "accessions",
		Short: "List the project's accession numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			accessions, err := mgr.AccessionNumbers()
			if err != nil {
				return err
			}

			fmt.Printf("The project '%s' has %d accession numbers:\n", ctx.Settings.Project, len(accessions))
			for _, accession := range accessions {
				fmt.Printf("  %s\n", accession)
			}
			return nil
		},
	}
}

func seriesCommand(ctx *config.Context) *cobra.Command {
	var (
		id        uint
		uid       string
		accession string
		patientID string
	)

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Show one catalogued series",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := catalog.LookupKey{
				RecordID:  id,
				SeriesUID: uid,
				Accession: accession,
				PatientID: patientID,
			}
			if key == (catalog.LookupKey{}) {
				return errors.New("specify one of --id, --uid, --accession or --patient-id")
			}

			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			series, err := mgr.Lookup(key)
			if err != nil {
				return err
			}

			printSeries(series)
			return nil
		},
	}

	cmd.Flags().UintVar(&id, "id", 0, "Series record ID")
	cmd.Flags().StringVar(&uid, "uid", "", "SeriesInstanceUID")
	cmd.Flags().StringVar(&accession, "accession", "", "Accession number (first series of the study)")
	cmd.Flags().StringVar(&patientID, "patient-id", "", "Patient ID (first series of the patient)")

	return cmd
}

func printSeries(s *datastore.Series) {
	fmt.Printf("Series %d\n", s.ID)
	fmt.Printf("  SeriesInstanceUID: %s\n", s.SeriesInstanceUID)
	fmt.Printf("  Description:       %s\n", s.SeriesDescription)
	fmt.Printf("  Protocol:          %s\n", s.ProtocolName)
	fmt.Printf("  Modality:          %s\n", s.Modality)
	fmt.Printf("  Institution:       %s\n", s.InstitutionName)
	fmt.Printf("  Patient:           %s (%s)\n", s.PatientID, s.PatientName)
	fmt.Printf("  Study:             %s %s (%s)\n", s.StudyDate, s.StudyDescription, s.AccessionNumber)
	fmt.Printf("  Files:             %d\n", s.NumberOfDicoms)
}

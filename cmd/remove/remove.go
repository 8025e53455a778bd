package remove

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nareynolds/dicommanager-go/internal/catalog"
	"github.com/nareynolds/dicommanager-go/internal/config"
	"github.com/nareynolds/dicommanager-go/internal/prompt"
)

// Command creates the remove command for taking series out of the
// project.
func Command(ctx *config.Context) *cobra.Command {
	var (
		ids       []uint
		accession string
		patient   string
	)

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove series, a study or a patient from the project",
		Long: `Remove catalogued series from the acting project. Stored files are
deleted only when no other project owns the series; otherwise only this
project's claim, notes and aliases are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := 0
			for _, set := range []bool{len(ids) > 0, accession != "", patient != ""} {
				if set {
					modes++
				}
			}
			if modes != 1 {
				return errors.New("specify exactly one of --ids, --accession or --patient")
			}

			mgr, err := catalog.Bootstrap(ctx)
			if err != nil {
				return err
			}
			defer mgr.Close()

			var report *catalog.DeleteReport
			switch {
			case len(ids) > 0:
				question := fmt.Sprintf("Remove %d series from project '%s'?", len(ids), ctx.Settings.Project)
				if !prompt.Confirm(os.Stdin, os.Stdout, question) {
					return nil
				}
				report = mgr.Delete(ids)

			case accession != "":
				question := fmt.Sprintf("Remove study %s from project '%s'?", accession, ctx.Settings.Project)
				if !prompt.Confirm(os.Stdin, os.Stdout, question) {
					return nil
				}
				report, err = mgr.DeleteStudy(accession)

			default:
				institution, patientID, ok := strings.Cut(patient, ",")
				if !ok {
					return errors.New("--patient takes INSTITUTION,PATIENTID")
				}
				question := fmt.Sprintf("Remove patient %s at %s from project '%s'?",
					patientID, institution, ctx.Settings.Project)
				if !prompt.Confirm(os.Stdin, os.Stdout, question) {
					return nil
				}
				report, err = mgr.DeletePatient(institution, patientID)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Done: %d removed, %d released to other projects, %d failed.\n",
				report.Removed, report.Released, report.Failed)
			return nil
		},
	}

	cmd.Flags().UintSliceVar(&ids, "ids", nil, "Series record IDs to remove")
	cmd.Flags().StringVar(&accession, "accession", "", "Remove every series of this study")
	cmd.Flags().StringVar(&patient, "patient", "", "Remove every study of this patient (INSTITUTION,PATIENTID)")

	return cmd
}

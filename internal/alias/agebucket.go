package alias

import (
	"fmt"
	"time"

	"github.com/nareynolds/dicommanager-go/internal/config"
)

const dicomDateLayout = "20060102"

// AgeInDays returns the patient's age in whole days at scan time from
// the DICOM-formatted study and birth dates.
func AgeInDays(studyDate, birthDate string) (int, error) {
	study, err := time.Parse(dicomDateLayout, studyDate)
	if err != nil {
		return 0, fmt.Errorf("invalid study date %q: %w", studyDate, err)
	}
	birth, err := time.Parse(dicomDateLayout, birthDate)
	if err != nil {
		return 0, fmt.Errorf("invalid birth date %q: %w", birthDate, err)
	}

	days := int(study.Sub(birth).Hours() / 24)
	if days < 0 {
		return 0, fmt.Errorf("study date %s precedes birth date %s", studyDate, birthDate)
	}
	return days, nil
}

// Bucket returns the name of the first range containing the given age.
// Ranges are inclusive on both ends.
func Bucket(ranges []config.AgeRange, ageInDays int) (string, bool) {
	for _, r := range ranges {
		if ageInDays >= r.MinDay && ageInDays <= r.MaxDay {
			return r.Name, true
		}
	}
	return "", false
}

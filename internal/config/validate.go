package config

import (
	"errors"
	"fmt"
)

// Validate checks the settings for problems that would make every
// operation fail, so they surface once at startup.
func (s *Settings) Validate() error {
	var errs []error

	if s.Project == "" {
		errs = append(errs, errors.New("project must be set"))
	}
	if s.Storage.Root == "" {
		errs = append(errs, errors.New("storage.root must be set"))
	}
	if s.Storage.DatabasePath == "" {
		errs = append(errs, errors.New("storage.databasepath must be set"))
	}
	if err := validateAgeBreakdown(s.AgeBreakdown); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// validateAgeBreakdown requires the bucket table to be ordered, gap-free
// within each range, and non-overlapping, so an age maps to at most one
// bucket.
func validateAgeBreakdown(ranges []AgeRange) error {
	prevMax := -1
	for i, r := range ranges {
		if r.Name == "" {
			return fmt.Errorf("agebreakdown[%d]: name must not be empty", i)
		}
		if r.MinDay < 0 {
			return fmt.Errorf("agebreakdown[%d] %q: minday must not be negative", i, r.Name)
		}
		if r.MaxDay < r.MinDay {
			return fmt.Errorf("agebreakdown[%d] %q: maxday %d is less than minday %d", i, r.Name, r.MaxDay, r.MinDay)
		}
		if r.MinDay <= prevMax {
			return fmt.Errorf("agebreakdown[%d] %q: minday %d overlaps previous range ending at %d", i, r.Name, r.MinDay, prevMax)
		}
		prevMax = r.MaxDay
	}
	return nil
}

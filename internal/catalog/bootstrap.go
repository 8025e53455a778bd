package catalog

import (
	"fmt"

	"github.com/nareynolds/dicommanager-go/internal/alias"
	"github.com/nareynolds/dicommanager-go/internal/config"
	"github.com/nareynolds/dicommanager-go/internal/datastore"
	"github.com/nareynolds/dicommanager-go/internal/metadata"
	"github.com/nareynolds/dicommanager-go/internal/vault"
)

// Bootstrap assembles a ready-to-use Manager from loaded settings:
// managed directory layout, catalogue database, vault and alias trees.
func Bootstrap(ctx *config.Context) (*Manager, error) {
	settings := ctx.Settings

	if err := settings.EnsureDirs(); err != nil {
		return nil, err
	}

	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("error opening catalogue database: %w", err)
	}

	v := vault.New(settings.DicomDir(), settings.NormalizeInstitution, ctx.Logger)
	aliases := alias.New(settings.ByPatientDir(), settings.ByAgeDir(), settings.NormalizeInstitution, ctx.Logger)
	reader := metadata.NewFileReader()

	return New(ctx, reader, store, v, aliases), nil
}

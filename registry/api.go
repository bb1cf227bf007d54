package registry

import (
	"log/slog"

	"github.com/c360/confsync/config"
	"github.com/c360/confsync/errors"
	"github.com/c360/confsync/schema"
)

// API bundles a config store with the two registries and provides the
// one-call registration entry point
type API struct {
	Store  *config.Store
	Client *Client
	Synced *Synced
	logger *slog.Logger
}

// NewAPI creates the registration facade. Either registry may be nil when
// only one side runs in this process.
func NewAPI(store *config.Store, client *Client, synced *Synced, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{Store: store, Client: client, Synced: synced, logger: logger.With("component", "RegistryAPI")}
}

// RegisterAndLoad loads active from its file (creating it when absent) and
// registers it per t. base must be a second instance of the same config type;
// it is brought to the loaded state of active and kept as the client
// baseline. base may be nil for server-only registration.
func (a *API) RegisterAndLoad(active, base config.Config, t RegisterType) error {
	if err := a.Store.ReadOrCreate(active); err != nil {
		// defaults stay in effect; registration proceeds
		a.logger.Warn("config loaded with defaults", "scope", active.ID().String(), "error", err)
	}
	if t.Client() {
		if a.Client == nil || base == nil {
			return errors.WrapInvalid(errors.ErrBadRegistration, "RegistryAPI", "RegisterAndLoad", "client registration prerequisites")
		}
		a.alignBaseline(active, base)
		if err := a.Client.Register(active, base); err != nil {
			return err
		}
	}
	if t.Server() {
		if a.Synced == nil {
			return errors.WrapInvalid(errors.ErrBadRegistration, "RegistryAPI", "RegisterAndLoad", "server registration prerequisites")
		}
		if err := a.Synced.Register(active); err != nil {
			return err
		}
	}
	return nil
}

// alignBaseline copies active's current state onto base through the element
// form, so the pair starts identical
func (a *API) alignBaseline(active, base config.Config) {
	var errs []string
	el := config.SerializeToElement(active, &errs, schema.IgnoreNonSync)
	config.DeserializeFromElement(base, el, &errs, schema.IgnoreNonSync)
	for _, msg := range errs {
		a.logger.Warn("baseline alignment issue", "scope", active.ID().String(), "issue", msg)
	}
}

// Shared helpers for contactbook CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/contactbook/internal/sqlite"
	"github.com/mesh-intelligence/contactbook/internal/viewmodel"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

// attachBackend resolves the store configuration and attaches a SQLite
// backend. The caller must call Detach.
func (a *app) attachBackend(watch bool) (*sqlite.Backend, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, userError("invalid configuration: %v", err)
	}
	cfg.Watch = cfg.Watch || watch

	backend := sqlite.NewBackend(a.log)
	if err := backend.Attach(cfg); err != nil {
		return nil, sysError("attach backend", err)
	}
	return backend, nil
}

// detach releases the backend, keeping the first error.
func (a *app) detach(backend *sqlite.Backend, err *error) {
	if derr := backend.Detach(); derr != nil {
		a.log.Warn("detach failed", zap.Error(derr))
		if *err == nil {
			*err = sysError("detach backend", derr)
		}
	}
}

// newViewModel builds a view model over store. onSaved, when non-nil,
// receives every contact the view model stores.
func (a *app) newViewModel(store types.ContactStore, sortFlag string, onSaved func(types.Contact)) (*viewmodel.ViewModel, error) {
	cfg, err := a.viewModelConfig(sortFlag)
	if err != nil {
		return nil, userError("%v", err)
	}
	cfg.OnSaved = onSaved
	vm, err := viewmodel.New(store, cfg, a.log)
	if err != nil {
		return nil, userError("%v", err)
	}
	return vm, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// printContacts writes contacts as an aligned table.
func printContacts(w io.Writer, contacts []types.Contact) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFIRST\tLAST\tPHONE")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ContactID, c.FirstName, c.LastName, c.PhoneNumber)
	}
	tw.Flush()
}

// printContact writes one contact as key/value lines.
func printContact(w io.Writer, c types.Contact) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", c.ContactID)
	fmt.Fprintf(tw, "first name:\t%s\n", c.FirstName)
	fmt.Fprintf(tw, "last name:\t%s\n", c.LastName)
	fmt.Fprintf(tw, "phone:\t%s\n", c.PhoneNumber)
	fmt.Fprintf(tw, "created:\t%s\n", c.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "updated:\t%s\n", c.UpdatedAt.Format("2006-01-02 15:04:05"))
	tw.Flush()
}

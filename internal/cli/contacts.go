// Contact commands: add, list, get and delete.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/contactbook/pkg/types"
)

func newAddCmd(a *app) *cobra.Command {
	var first, last, phone string
	cmd := &cobra.Command{
		Use:   "add --first <name> --last <name> --phone <number>",
		Short: "Add a contact",
		Long: `Add fills in the new-contact form and saves it. All three fields are
required; a blank field leaves the form unsaved and is reported as an error.

Example:
  contactbook add --first Ada --last Lovelace --phone 555-0100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			backend, err := a.attachBackend(false)
			if err != nil {
				return err
			}
			defer a.detach(backend, &err)

			var savedID string
			vm, err := a.newViewModel(backend, "", func(c types.Contact) { savedID = c.ContactID })
			if err != nil {
				return err
			}

			vm.Dispatch(types.ShowDialog{})
			vm.Dispatch(types.SetFirstName{Text: first})
			vm.Dispatch(types.SetLastName{Text: last})
			vm.Dispatch(types.SetPhoneNumber{Text: phone})
			vm.Dispatch(types.SaveContact{})

			// A save that went through closes the dialog.
			saved := !vm.Draft().IsAddingContact
			if cerr := vm.Close(); cerr != nil {
				return sysError("save contact", cerr)
			}
			if !saved {
				return userError("first name, last name and phone number are all required")
			}

			// Close waited for the upsert, so savedID is set.
			c, err := backend.Get(cmd.Context(), savedID)
			if err != nil {
				return sysError("read back contact", err)
			}
			a.log.Info("contact added", zap.String("contact_id", c.ContactID))
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", c.FullName(), c.ContactID)
			return nil
		},
	}
	cmd.Flags().StringVar(&first, "first", "", "first name")
	cmd.Flags().StringVar(&last, "last", "", "last name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var sortFlag string
	cmd := &cobra.Command{
		Use:   "list [--sort first|last|phone]",
		Short: "List contacts",
		Long: `List prints every contact ordered by the chosen field; ties are
broken by contact ID. Without --sort the default_sort setting applies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			criterion, err := a.sortCriterion(sortFlag)
			if err != nil {
				return userError("%v", err)
			}
			backend, err := a.attachBackend(false)
			if err != nil {
				return err
			}
			defer a.detach(backend, &err)

			contacts, err := backend.List(cmd.Context(), criterion)
			if err != nil {
				return sysError("list contacts", err)
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), contacts)
			}
			printContacts(cmd.OutOrStdout(), contacts)
			return nil
		},
	}
	cmd.Flags().StringVar(&sortFlag, "sort", "", "sort by first, last or phone")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			backend, err := a.attachBackend(false)
			if err != nil {
				return err
			}
			defer a.detach(backend, &err)

			c, err := lookup(cmd.Context(), backend, args[0])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), c)
			}
			printContact(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			backend, err := a.attachBackend(false)
			if err != nil {
				return err
			}
			defer a.detach(backend, &err)

			c, err := lookup(cmd.Context(), backend, args[0])
			if err != nil {
				return err
			}

			vm, err := a.newViewModel(backend, "", nil)
			if err != nil {
				return err
			}
			vm.Dispatch(types.DeleteContact{Contact: c})
			if cerr := vm.Close(); cerr != nil {
				return sysError("delete contact", cerr)
			}

			a.log.Info("contact deleted", zap.String("contact_id", c.ContactID))
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", c.FullName(), c.ContactID)
			return nil
		},
	}
}

// contactGetter is the read side of the backend used by get and delete.
type contactGetter interface {
	Get(ctx context.Context, id string) (types.Contact, error)
}

// lookup fetches a contact by ID, mapping store errors to exit codes.
func lookup(ctx context.Context, store contactGetter, id string) (types.Contact, error) {
	id = strings.TrimSpace(id)
	c, err := store.Get(ctx, id)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrInvalidID):
		return types.Contact{}, userError("contact %q: %v", id, err)
	default:
		return types.Contact{}, sysError("get contact", err)
	}
}

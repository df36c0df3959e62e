package viewmodel

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/contactbook/pkg/types"
)

// Dispatch applies a user event. It never waits for the store: upserts
// and deletes run in the background and their failures are reported on
// Errors. Events dispatched after Close are dropped.
func (vm *ViewModel) Dispatch(ev types.Event) {
	if vm.isClosed() {
		vm.log.Warn("event dropped, view model closed", zap.Stringer("event", ev))
		return
	}
	vm.log.Debug("dispatch", zap.Stringer("event", ev))

	switch e := ev.(type) {
	case types.SetFirstName:
		vm.updateDraft(func(d *types.Draft) { d.FirstName = e.Text })
	case types.SetLastName:
		vm.updateDraft(func(d *types.Draft) { d.LastName = e.Text })
	case types.SetPhoneNumber:
		vm.updateDraft(func(d *types.Draft) { d.PhoneNumber = e.Text })
	case types.ShowDialog:
		vm.updateDraft(func(d *types.Draft) { d.IsAddingContact = true })
	case types.HideDialog:
		vm.updateDraft(func(d *types.Draft) { d.IsAddingContact = false })
	case types.SortContacts:
		vm.selector.Set(e.Criterion)
	case types.SaveContact:
		vm.save()
	case types.DeleteContact:
		contact := e.Contact
		if contact.ContactID == "" {
			// Never stored, so there is nothing to delete.
			vm.log.Debug("delete ignored, contact has no ID")
			return
		}
		vm.spawn("delete", func(ctx context.Context) error {
			return vm.store.Delete(ctx, contact)
		})
	default:
		vm.log.Warn("unknown event", zap.Stringer("event", ev))
	}
}

func (vm *ViewModel) updateDraft(fn func(d *types.Draft)) {
	vm.draft.Update(func(d types.Draft) types.Draft {
		fn(&d)
		return d
	})
}

// save upserts the draft when every field is filled in. Taking the
// contact and clearing the form happen in one cell update, so each save
// sees exactly the fields typed before it. The update and the spawn run
// under vm.mu, so a concurrent Close either waits for the upsert or
// leaves the form untouched.
//
// The phone number is left in the form after a save.
func (vm *ViewModel) save() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		vm.log.Warn("save dropped, view model closed")
		return
	}

	var (
		contact types.Contact
		ok      bool
	)
	vm.draft.Update(func(d types.Draft) types.Draft {
		if !d.Complete() {
			return d
		}
		contact, ok = d.Contact(), true
		d.FirstName = ""
		d.LastName = ""
		d.IsAddingContact = false
		return d
	})
	if !ok {
		vm.log.Debug("save ignored, draft incomplete")
		return
	}
	vm.goLocked("upsert", func(ctx context.Context) error {
		id, err := vm.store.Upsert(ctx, contact)
		if err != nil {
			return err
		}
		if vm.onSaved != nil {
			contact.ContactID = id
			vm.onSaved(contact)
		}
		return nil
	})
}

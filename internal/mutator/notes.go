package mutator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
	"github.com/autopeer-io/tripdash/pkg/log"
)

// Notes edits the maintenance notes of a vehicle.
type Notes struct {
	api     NotesAPI
	list    ItemList[v1.Note]
	confirm Confirmer
	log     log.Logger

	pending *Tentative[v1.Note]

	mu       sync.Mutex
	deleting sets.Set[string]
}

// NewNotes edits notes through api and mirrors the results into list.
func NewNotes(api NotesAPI, list ItemList[v1.Note], confirm Confirmer) *Notes {
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	return &Notes{
		api:      api,
		list:     list,
		confirm:  confirm,
		log:      log.WithName("notes"),
		pending:  NewTentative[v1.Note](),
		deleting: sets.New[string](),
	}
}

// ValidateNote checks a note before it is sent.
func ValidateNote(in v1.NoteInput) error {
	if in.Date.IsZero() {
		return errdefs.Invalid("noteDate", "is required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return errdefs.Invalid("noteText", "must not be empty")
	}
	if in.Price != nil && *in.Price < 0 {
		return errdefs.Invalid("notePrice", "must not be negative")
	}
	return nil
}

// Add creates a note and inserts the returned record into the local list.
func (n *Notes) Add(ctx context.Context, deviceID string, in v1.NoteInput) (*v1.Note, error) {
	if deviceID == "" {
		return nil, errdefs.Invalid("device", "no vehicle selected")
	}
	if err := ValidateNote(in); err != nil {
		return nil, err
	}

	note, err := n.api.CreateNote(ctx, deviceID, in)
	if err != nil {
		n.log.Error(err, "Failed to create note", "device", deviceID)
		return nil, err
	}

	n.list.Edit(deviceID, func(items []v1.Note) []v1.Note {
		return append(items, *note)
	})
	return note, nil
}

// Update shows the edit at once and settles it when the gateway answers.
// On failure only this edit is undone.
func (n *Notes) Update(ctx context.Context, deviceID string, current v1.Note, in v1.NoteInput) (*v1.Note, error) {
	if err := ValidateNote(in); err != nil {
		return nil, err
	}

	tag, shown := n.pending.Apply(current.ID, current, func(v v1.Note) v1.Note {
		v.Date, v.Text, v.Price = in.Date, in.Text, in.Price
		return v
	})
	n.replace(deviceID, shown)

	updated, err := n.api.UpdateNote(ctx, deviceID, current.ID, in)
	if err != nil {
		if v, ok := n.pending.Rollback(current.ID, tag); ok {
			n.replace(deviceID, v)
		}
		n.log.Error(err, "Failed to update note", "device", deviceID, "note", current.ID)
		return nil, err
	}

	if v, ok := n.pending.ConfirmWith(current.ID, tag, *updated); ok {
		n.replace(deviceID, v)
	}
	return updated, nil
}

// Delete asks for confirmation and removes the note once the gateway has
// deleted it. It returns false when the user declined or a delete of the
// same note is already running.
func (n *Notes) Delete(ctx context.Context, deviceID, noteID string) (bool, error) {
	if n.IsDeleting(noteID) {
		return false, nil
	}

	ok, err := n.confirm.Confirm(ctx, fmt.Sprintf("Notiz %s wirklich löschen?", noteID))
	if err != nil || !ok {
		return false, err
	}

	n.mu.Lock()
	if n.deleting.Has(noteID) {
		n.mu.Unlock()
		return false, nil
	}
	n.deleting.Insert(noteID)
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.deleting.Delete(noteID)
		n.mu.Unlock()
	}()

	if err := n.api.DeleteNote(ctx, deviceID, noteID); err != nil {
		n.log.Error(err, "Failed to delete note", "device", deviceID, "note", noteID)
		return false, err
	}

	n.list.Edit(deviceID, func(items []v1.Note) []v1.Note {
		out := items[:0]
		for _, it := range items {
			if it.ID != noteID {
				out = append(out, it)
			}
		}
		return out
	})
	return true, nil
}

// IsDeleting reports whether a delete of noteID is in flight.
func (n *Notes) IsDeleting(noteID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deleting.Has(noteID)
}

func (n *Notes) replace(deviceID string, note v1.Note) {
	n.list.Edit(deviceID, func(items []v1.Note) []v1.Note {
		for i := range items {
			if items[i].ID == note.ID {
				items[i] = note
			}
		}
		return items
	})
}

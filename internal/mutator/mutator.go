// Package mutator performs the write operations of the dashboard. Each
// mutation is one gateway round trip plus a local merge; a failed call never
// leaves a local change behind.
package mutator

import (
	"context"
	"io"

	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

// ItemList is the local buffer of a paginated list for one vehicle.
// Edit runs fn only while the list still shows deviceID.
type ItemList[T any] interface {
	Edit(deviceID string, fn func(items []T) []T) bool
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

type NotesAPI interface {
	CreateNote(ctx context.Context, deviceID string, in v1.NoteInput) (*v1.Note, error)
	UpdateNote(ctx context.Context, deviceID, noteID string, in v1.NoteInput) (*v1.Note, error)
	DeleteNote(ctx context.Context, deviceID, noteID string) error
}

type TripsAPI interface {
	UpdateTrip(ctx context.Context, tripID string, patch v1.TripPatch) error
}

type DevicesAPI interface {
	RenameDevice(ctx context.Context, deviceID, name string) error
}

type PhotoAPI interface {
	UploadPhoto(ctx context.Context, deviceID, filename string, image io.Reader) error
	GetPhoto(ctx context.Context, deviceID string) ([]byte, bool, error)
}

// Renamer applies a confirmed name to the local vehicle set.
type Renamer interface {
	Rename(ctx context.Context, id, name string) error
}

package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

func notesPath(deviceID string) string {
	return "/devices/" + url.PathEscape(deviceID) + "/notes"
}

// ListNotes returns one page of notes of q.DeviceID, filtered server-side by q.Window.
func (c *Client) ListNotes(ctx context.Context, q Query) ([]v1.Note, error) {
	deviceID := q.DeviceID
	q.DeviceID = ""

	var notes []v1.Note
	if err := c.Do(ctx, http.MethodGet, withQuery(notesPath(deviceID), q), nil, &notes); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// CreateNote stores a new note and returns the server's record.
func (c *Client) CreateNote(ctx context.Context, deviceID string, in v1.NoteInput) (*v1.Note, error) {
	var note v1.Note
	if err := c.Do(ctx, http.MethodPost, notesPath(deviceID), in, &note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return &note, nil
}

// UpdateNote replaces the fields of a note and returns the server's record.
func (c *Client) UpdateNote(ctx context.Context, deviceID, noteID string, in v1.NoteInput) (*v1.Note, error) {
	var note v1.Note
	if err := c.Do(ctx, http.MethodPatch, notesPath(deviceID)+"/"+url.PathEscape(noteID), in, &note); err != nil {
		return nil, fmt.Errorf("update note %s: %w", noteID, err)
	}
	if note.ID == "" {
		note = v1.Note{ID: noteID, Date: in.Date, Text: in.Text, Price: in.Price}
	}
	return &note, nil
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, deviceID, noteID string) error {
	if err := c.Do(ctx, http.MethodDelete, notesPath(deviceID)+"/"+url.PathEscape(noteID), nil, nil); err != nil {
		return fmt.Errorf("delete note %s: %w", noteID, err)
	}
	return nil
}

package mutator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	"github.com/autopeer-io/tripdash/pkg/log"
)

// Preview is the locally shown vehicle image.
type Preview struct {
	Path string
	// Temp marks files owned by Photos that are removed once replaced.
	Temp bool
}

// Photos uploads vehicle images with an optimistic local preview.
type Photos struct {
	api PhotoAPI
	dir string
	log log.Logger

	pending *Tentative[Preview]

	mu      sync.Mutex
	current map[string]Preview
}

// NewPhotos keeps preview files in dir; an empty dir uses the system temp dir.
func NewPhotos(api PhotoAPI, dir string) *Photos {
	return &Photos{
		api:     api,
		dir:     dir,
		log:     log.WithName("photos"),
		pending: NewTentative[Preview](),
		current: map[string]Preview{},
	}
}

// Preview returns the image to show for deviceID, including a pending upload.
func (p *Photos) Preview(deviceID string) (Preview, bool) {
	if v, ok := p.pending.Effective(deviceID); ok {
		return v, true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.current[deviceID]
	return v, ok
}

// SetPreview records an image already present on disk, such as a fetched photo.
func (p *Photos) SetPreview(deviceID string, v Preview) {
	p.mu.Lock()
	old := p.current[deviceID]
	p.current[deviceID] = v
	p.mu.Unlock()
	p.release(old, v)
}

// Upload copies image into a preview file, shows it and sends it. On failure
// the previous preview is restored and the new file removed.
func (p *Photos) Upload(ctx context.Context, deviceID, filename string, image io.Reader) (Preview, error) {
	if deviceID == "" {
		return Preview{}, errdefs.Invalid("device", "id is required")
	}
	if image == nil {
		return Preview{}, errdefs.Invalid("file", "no image given")
	}

	next, err := p.stage(filename, image)
	if err != nil {
		return Preview{}, err
	}

	p.mu.Lock()
	settled := p.current[deviceID]
	p.mu.Unlock()

	tag, _ := p.pending.Apply(deviceID, settled, func(Preview) Preview { return next })

	if err := p.send(ctx, deviceID, filename, next.Path); err != nil {
		p.pending.Rollback(deviceID, tag)
		p.release(next, Preview{})
		p.log.Error(err, "Failed to upload vehicle photo", "device", deviceID)
		return Preview{}, err
	}

	p.pending.Confirm(deviceID, tag)
	p.SetPreview(deviceID, next)
	return next, nil
}

// Fetch downloads the stored photo. found is false when the vehicle has none.
func (p *Photos) Fetch(ctx context.Context, deviceID string) (image []byte, found bool, err error) {
	if deviceID == "" {
		return nil, false, errdefs.Invalid("device", "id is required")
	}
	return p.api.GetPhoto(ctx, deviceID)
}

// Close removes all preview files owned by p.
func (p *Photos) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, v := range p.current {
		p.release(v, Preview{})
		delete(p.current, id)
	}
	return nil
}

func (p *Photos) stage(filename string, image io.Reader) (Preview, error) {
	f, err := os.CreateTemp(p.dir, "tripdash-preview-*"+filepath.Ext(filename))
	if err != nil {
		return Preview{}, fmt.Errorf("failed to create preview: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, image); err != nil {
		_ = os.Remove(f.Name())
		return Preview{}, fmt.Errorf("failed to write preview: %w", err)
	}
	return Preview{Path: f.Name(), Temp: true}, nil
}

func (p *Photos) send(ctx context.Context, deviceID, filename, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open preview: %w", err)
	}
	defer f.Close()
	return p.api.UploadPhoto(ctx, deviceID, filepath.Base(filename), f)
}

// release removes old unless it is still in use as cur.
func (p *Photos) release(old, cur Preview) {
	if !old.Temp || old.Path == "" || old.Path == cur.Path {
		return
	}
	if err := os.Remove(old.Path); err != nil && !os.IsNotExist(err) {
		p.log.Warn("Failed to remove preview", "path", old.Path, "error", err)
	}
}

package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

// ListDevices returns every device visible to the current user.
func (c *Client) ListDevices(ctx context.Context) ([]v1.Device, error) {
	var devices []v1.Device
	if err := c.Do(ctx, http.MethodGet, "/devices", nil, &devices); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// RenameDevice sets the display name. The gateway takes the bare name as body.
func (c *Client) RenameDevice(ctx context.Context, deviceID, name string) error {
	body := &Body{ContentType: "text/plain; charset=utf-8", Reader: strings.NewReader(name)}
	if err := c.Do(ctx, http.MethodPut, "/devices/"+url.PathEscape(deviceID)+"/name", body, nil); err != nil {
		return fmt.Errorf("rename device %s: %w", deviceID, err)
	}
	return nil
}

// DeviceStats returns the aggregate for q.DeviceID within q.Window.
func (c *Client) DeviceStats(ctx context.Context, q Query) (*v1.Stats, error) {
	q.Page, q.PageSize = 0, 0

	var stats v1.Stats
	if err := c.Do(ctx, http.MethodGet, withQuery("/devices/stats", q), nil, &stats); err != nil {
		return nil, fmt.Errorf("device stats: %w", err)
	}
	return &stats, nil
}

package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/autopeer-io/tripdash/internal/store"
)

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (a *App) serverURL() (*url.URL, error) {
	u, err := url.Parse(a.client.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	return u, nil
}

// saveCookies writes the session cookies of the gateway to the local store so
// that the next process can reuse the session.
func (a *App) saveCookies(ctx context.Context) error {
	u, err := a.serverURL()
	if err != nil {
		return err
	}

	var saved []savedCookie
	for _, c := range a.client.Jar().Cookies(u) {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	if len(saved) == 0 {
		return nil
	}
	return store.SetJSON(ctx, a.store, store.KeyCookies, saved)
}

func (a *App) restoreCookies(ctx context.Context) error {
	var saved []savedCookie
	found, err := store.GetJSON(ctx, a.store, store.KeyCookies, &saved)
	if err != nil || !found {
		return err
	}

	u, err := a.serverURL()
	if err != nil {
		return err
	}

	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	a.client.Jar().SetCookies(u, cookies)
	return nil
}

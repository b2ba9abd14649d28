package browser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-rod/rod/lib/proto"
)

// storageState is the session file written by browser login tooling,
// only cookies are used.
type storageState struct {
	Cookies []struct {
		Name     string  `json:"name"`
		Value    string  `json:"value"`
		Domain   string  `json:"domain"`
		Path     string  `json:"path"`
		Expires  float64 `json:"expires"`
		HttpOnly bool    `json:"httpOnly"`
		Secure   bool    `json:"secure"`
		SameSite string  `json:"sameSite"`
	} `json:"cookies"`
}

// ReadStorageState loads the cookies of a storage state file.
func ReadStorageState(path string) ([]*proto.NetworkCookieParam, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state storageState
	err = json.Unmarshal(buff, &state)
	if err != nil {
		return nil, fmt.Errorf("parse storage state %s: %w", path, err)
	}

	cookies := make([]*proto.NetworkCookieParam, 0, len(state.Cookies))
	for _, c := range state.Cookies {
		param := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		// session cookies are stored with expires -1
		if c.Expires > 0 {
			param.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		switch c.SameSite {
		case "Strict":
			param.SameSite = proto.NetworkCookieSameSiteStrict
		case "Lax":
			param.SameSite = proto.NetworkCookieSameSiteLax
		case "None":
			param.SameSite = proto.NetworkCookieSameSiteNone
		}
		cookies = append(cookies, param)
	}
	return cookies, nil
}

package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Target is either a local SQLite file or a remote libSQL database.
type Target struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// ParseTarget treats libsql://, http(s):// and ws(s):// locations as remote
// databases and anything else as a file path.
func ParseTarget(location, authToken string) Target {
	for _, scheme := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(location, scheme) {
			return Target{Url: location, AuthToken: authToken}
		}
	}
	return Target{File: location}
}

func (t Target) OpenDB() (*sql.DB, error) {
	if t.Url == "" {
		if t.File == "" {
			return nil, fmt.Errorf("a database file or url was not specified")
		}
		return sql.Open("sqlite", t.File)
	}

	values := url.Values{}
	if t.AuthToken != "" {
		values.Add("authToken", t.AuthToken)
	}
	location := t.Url
	if len(values) > 0 {
		location += "?" + values.Encode()
	}
	return sql.Open("libsql", location)
}

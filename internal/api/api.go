// Package api shapes parameters for the DAM REST endpoints. Transport
// concerns such as auth headers, refresh and error normalization belong to
// apiclient.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

// Services bundles the endpoint modules over one client.
type Services struct {
	Auth     *Auth
	Assets   *Assets
	Activity *Activity
	Users    *Users
}

func New(c *apiclient.Client) *Services {
	return &Services{
		Auth:     &Auth{c: c},
		Assets:   &Assets{c: c},
		Activity: &Activity{c: c},
		Users:    &Users{c: c},
	}
}

// listBody accepts either the paginated envelope or a bare JSON array; some
// list endpoints are not paginated.
type listBody[T any] struct {
	page models.Page[T]
}

func (l *listBody[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		l.page = models.Page[T]{Count: len(items), Results: items}
		return nil
	}
	if err := json.Unmarshal(trimmed, &l.page); err != nil {
		return err
	}
	if l.page.Results == nil {
		l.page.Results = []T{}
	}
	return nil
}

func itemPath(collection, id string) string {
	return fmt.Sprintf("%s%s/", collection, url.PathEscape(id))
}

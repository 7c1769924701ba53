package client

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/dmitrijs2005/recipebook/internal/client/models"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// tokenExpiredMessage is what the API answers for an access token past
// its expiry; only this 401 triggers a refresh.
const tokenExpiredMessage = "Token expired"

// Error is a non-2xx API response. 401 and 404 unwrap to ErrUnauthorized
// and ErrNotFound.
type Error struct {
	Status int
	models.APIError
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Details) == 0 {
		return msg
	}

	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, detailText(e.Details[k])))
	}
	return msg + " (" + strings.Join(parts, "; ") + ")"
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

func detailText(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	items := make([]string, 0, len(list))
	for _, item := range list {
		items = append(items, fmt.Sprint(item))
	}
	return strings.Join(items, " ")
}

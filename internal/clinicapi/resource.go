package clinicapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wolfman30/clinicdesk/internal/gateway"
)

// Service groups every endpoint call behind one gateway client.
type Service struct {
	gw *gateway.Client
}

// NewService creates a Service.
func NewService(gw *gateway.Client) (*Service, error) {
	if gw == nil {
		return nil, errors.New("clinicapi: gateway client is required")
	}
	return &Service{gw: gw}, nil
}

// ListOptions are the common list query parameters.
type ListOptions struct {
	Search  string
	Page    int
	PerPage int
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if s := strings.TrimSpace(o.Search); s != "" {
		q.Set("search", s)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	return q
}

func listResource[T any](ctx context.Context, gw *gateway.Client, path string, q url.Values) ([]T, error) {
	raw, err := gw.Get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	return gateway.DecodeList[T](raw)
}

func pageResource[T any](ctx context.Context, gw *gateway.Client, path string, q url.Values) ([]T, gateway.Page, error) {
	raw, err := gw.Get(ctx, path, q)
	if err != nil {
		return nil, gateway.Page{}, err
	}
	return gateway.DecodePage[T](raw)
}

func getResource[T any](ctx context.Context, gw *gateway.Client, path string) (T, error) {
	raw, err := gw.Get(ctx, path, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return gateway.DecodeItem[T](raw)
}

func createResource[T any](ctx context.Context, gw *gateway.Client, path string, body any) (T, error) {
	raw, err := gw.Post(ctx, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return gateway.DecodeWritten[T](raw)
}

func updateResource[T any](ctx context.Context, gw *gateway.Client, path string, body any) (T, error) {
	raw, err := gw.Put(ctx, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return gateway.DecodeWritten[T](raw)
}

func itemPath(collection string, id ID) (string, error) {
	if strings.TrimSpace(string(id)) == "" {
		return "", fmt.Errorf("clinicapi: %s id is required", strings.TrimPrefix(collection, "/"))
	}
	return collection + "/" + url.PathEscape(string(id)), nil
}

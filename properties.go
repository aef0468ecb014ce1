package unireservas

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// PropertiesClient covers /api/properties.
type PropertiesClient struct{ c *Client }

const propertiesPath = "/api/properties"

// ListOptions pages server-side listings. Zero values use server defaults.
type ListOptions struct {
	Page    int
	PerPage int
}

// List returns a page of properties. The token is optional: without one the
// listing is anonymous and IsFavorited is always false. A token the server
// rejects is dropped and the listing retried anonymously.
func (p *PropertiesClient) List(ctx context.Context, opts *ListOptions) (*PropertyPage, error) {
	var q url.Values
	if opts != nil {
		q = pageQuery(opts.Page, opts.PerPage)
	}
	r := request{op: "list properties", method: http.MethodGet, path: propertiesPath, query: q, auth: authOptional}
	page, err := call[PropertyPage](ctx, p.c, r)
	if err != nil && errors.Is(err, ErrUnauthorized) && p.c.token() != "" {
		p.c.logger.Debug("token rejected, listing anonymously", "component", "api_client", "method", r.op)
		r.auth = authNone
		return call[PropertyPage](ctx, p.c, r)
	}
	return page, err
}

// Get returns one property. A 404 surfaces as an error matching ErrNotFound.
func (p *PropertiesClient) Get(ctx context.Context, id string) (*Property, error) {
	return call[Property](ctx, p.c, request{
		op: "get property", method: http.MethodGet, path: propertiesPath + "/" + url.PathEscape(id), auth: authOptional,
	})
}

// Mine lists the caller's own listings (advertisers only).
func (p *PropertiesClient) Mine(ctx context.Context) ([]Property, error) {
	page, err := call[PropertyPage](ctx, p.c, request{
		op: "list my properties", method: http.MethodGet, path: propertiesPath + "/my",
	})
	if err != nil {
		return nil, err
	}
	return page.Properties, nil
}

// Search runs the server-side title search.
func (p *PropertiesClient) Search(ctx context.Context, term string, opts *ListOptions) (*PropertyPage, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, invalid("q", "search term is required")
	}
	q := url.Values{}
	if opts != nil {
		q = pageQuery(opts.Page, opts.PerPage)
	}
	q.Set("q", term)
	return call[PropertyPage](ctx, p.c, request{
		op: "search properties", method: http.MethodGet, path: propertiesPath + "/search/", query: q, auth: authOptional,
	})
}

// Create publishes a listing. The payload is checked against the listing
// schema before anything is sent.
func (p *PropertiesClient) Create(ctx context.Context, in *PropertyCreate) (*Property, error) {
	if in == nil {
		return nil, invalid("", "property is required")
	}
	if err := validatePayload(schemaPropertyCreate, in); err != nil {
		return nil, err
	}
	return call[Property](ctx, p.c, request{
		op: "create property", method: http.MethodPost, path: propertiesPath, body: in,
	})
}

func (p *PropertiesClient) Update(ctx context.Context, id string, in *PropertyUpdate) (*Property, error) {
	if in == nil {
		return nil, invalid("", "update is required")
	}
	if err := validatePayload(schemaPropertyUpdate, in); err != nil {
		return nil, err
	}
	return call[Property](ctx, p.c, request{
		op: "update property", method: http.MethodPut, path: propertiesPath + "/" + url.PathEscape(id), body: in,
	})
}

func (p *PropertiesClient) Delete(ctx context.Context, id string) error {
	_, err := p.c.doRequest(ctx, request{
		op: "delete property", method: http.MethodDelete, path: propertiesPath + "/" + url.PathEscape(id),
	})
	return err
}

// UploadImages attaches images to a listing using the multipart field
// "files".
func (p *PropertiesClient) UploadImages(ctx context.Context, id string, files []UploadFile) (*ImageUploadResult, error) {
	if len(files) == 0 {
		return nil, invalid("files", "at least one image is required")
	}
	data, err := p.c.doMultipart(ctx, request{
		op: "upload images", method: http.MethodPost, path: propertiesPath + "/" + url.PathEscape(id) + "/upload-images",
	}, "files", files)
	if err != nil {
		return nil, err
	}
	return decodeJSON[ImageUploadResult](data)
}

// Favorite marks the property as a favorite of the caller.
func (p *PropertiesClient) Favorite(ctx context.Context, id string) error {
	_, err := p.c.doRequest(ctx, request{
		op: "add favorite", method: http.MethodPost, path: propertiesPath + "/" + url.PathEscape(id) + "/favorite",
	})
	return err
}

func (p *PropertiesClient) Unfavorite(ctx context.Context, id string) error {
	_, err := p.c.doRequest(ctx, request{
		op: "remove favorite", method: http.MethodDelete, path: propertiesPath + "/" + url.PathEscape(id) + "/favorite",
	})
	return err
}

// SetFavorite calls Favorite or Unfavorite depending on want.
func (p *PropertiesClient) SetFavorite(ctx context.Context, id string, want bool) error {
	if want {
		return p.Favorite(ctx, id)
	}
	return p.Unfavorite(ctx, id)
}

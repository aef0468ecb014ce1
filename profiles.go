package unireservas

import (
	"context"
	"net/http"
	"net/url"
)

// ProfilesClient covers /api/profiles. Replies are either bare or wrapped in
// {"data": ...}; both are accepted.
type ProfilesClient struct{ c *Client }

const profilesPath = "/api/profiles"

func (p *ProfilesClient) get(ctx context.Context, r request) (*Profile, error) {
	data, err := p.c.doRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	return decodeMaybeWrapped[Profile](data)
}

// Me returns the caller's profile.
func (p *ProfilesClient) Me(ctx context.Context) (*Profile, error) {
	return p.get(ctx, request{op: "load profile", method: http.MethodGet, path: profilesPath + "/me"})
}

func (p *ProfilesClient) UpdateMe(ctx context.Context, in *ProfileUpdate) (*Profile, error) {
	if in == nil {
		return nil, invalid("", "update is required")
	}
	return p.get(ctx, request{op: "update profile", method: http.MethodPut, path: profilesPath + "/me", body: in})
}

func (p *ProfilesClient) DeleteMe(ctx context.Context) error {
	_, err := p.c.doRequest(ctx, request{op: "delete profile", method: http.MethodDelete, path: profilesPath + "/me"})
	return err
}

// Get returns another user's public profile.
func (p *ProfilesClient) Get(ctx context.Context, userID string) (*Profile, error) {
	return p.get(ctx, request{
		op: "load profile", method: http.MethodGet, path: profilesPath + "/" + url.PathEscape(userID), auth: authOptional,
	})
}

func (p *ProfilesClient) AddFavorite(ctx context.Context, propertyID string) error {
	_, err := p.c.doRequest(ctx, request{
		op: "add favorite", method: http.MethodPost, path: profilesPath + "/favorites/" + url.PathEscape(propertyID),
	})
	return err
}

func (p *ProfilesClient) RemoveFavorite(ctx context.Context, propertyID string) error {
	_, err := p.c.doRequest(ctx, request{
		op: "remove favorite", method: http.MethodDelete, path: profilesPath + "/favorites/" + url.PathEscape(propertyID),
	})
	return err
}

// FavoriteList is the reply of the favorites listing.
type FavoriteList struct {
	UserID             string   `json:"user_id"`
	FavoriteProperties []string `json:"favorite_properties"`
	Total              int      `json:"total"`
}

// Favorites lists the ids of the caller's favorite properties (students
// only).
func (p *ProfilesClient) Favorites(ctx context.Context) (*FavoriteList, error) {
	data, err := p.c.doRequest(ctx, request{
		op: "list favorites", method: http.MethodGet, path: profilesPath + "/favorites/list",
	})
	if err != nil {
		return nil, err
	}
	return decodeMaybeWrapped[FavoriteList](data)
}

package unireservas

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// RentalsClient covers /api/rentals: a student's expression of interest in
// a property and the advertiser's answer to it.
type RentalsClient struct{ c *Client }

const rentalsPath = "/api/rentals"

// ExpressInterest tells the advertiser the caller wants the property. The
// message is required.
func (r *RentalsClient) ExpressInterest(ctx context.Context, propertyID, message string) (*Interest, error) {
	message = strings.TrimSpace(message)
	if propertyID == "" {
		return nil, invalid("property_id", "property is required")
	}
	if message == "" {
		return nil, invalid("message", "message must not be empty")
	}
	return call[Interest](ctx, r.c, request{
		op: "express interest", method: http.MethodPost, path: rentalsPath + "/interest",
		body: map[string]string{"property_id": propertyID, "message": message},
	})
}

// Sent lists interests the caller expressed.
func (r *RentalsClient) Sent(ctx context.Context) ([]Interest, error) {
	list, err := call[[]Interest](ctx, r.c, request{
		op: "list interests", method: http.MethodGet, path: rentalsPath + "/interests/my",
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// Received lists interests in the caller's properties (advertisers).
func (r *RentalsClient) Received(ctx context.Context) ([]Interest, error) {
	list, err := call[[]Interest](ctx, r.c, request{
		op: "list received interests", method: http.MethodGet, path: rentalsPath + "/interests/received",
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// SetStatus answers an interest. The server reads the status from the query
// string.
func (r *RentalsClient) SetStatus(ctx context.Context, interestID string, status InterestStatus) (*Interest, error) {
	switch status {
	case InterestPending, InterestAccepted, InterestRejected:
	default:
		return nil, invalid("status", "status must be pending, accepted or rejected")
	}
	q := url.Values{}
	q.Set("status", string(status))
	resp, err := call[struct {
		Message  string   `json:"message"`
		Interest Interest `json:"interest"`
	}](ctx, r.c, request{
		op: "update interest", method: http.MethodPatch, path: rentalsPath + "/interests/" + url.PathEscape(interestID) + "/status", query: q,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Interest, nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
)

// SubmitEnquiry files a customer booking enquiry for a package.
func (c *Client) SubmitEnquiry(ctx context.Context, enquiry Enquiry) (string, error) {
	return c.sendJSON(ctx, http.MethodPost, "/Customerenquire", enquiry)
}

// ListEnquiries returns all customer enquiries for the admin console.
func (c *Client) ListEnquiries(ctx context.Context) ([]Enquiry, error) {
	var enquiries []Enquiry
	if err := c.getJSON(ctx, "/CustomerenquireView", &enquiries); err != nil {
		return nil, fmt.Errorf("failed to list enquiries: %w", err)
	}
	return enquiries, nil
}

// UpdateEnquiryStatus moves an enquiry through the handling workflow.
func (c *Client) UpdateEnquiryStatus(ctx context.Context, id int, status string) (string, error) {
	payload := map[string]string{"status": status}
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/update-enquiry/%d/", id), payload)
}

// ListUsers returns all customer accounts for the admin console.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, "/user_list", &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeactivateUser disables a customer account. The backend models this as a
// soft delete behind a PUT.
func (c *Client) DeactivateUser(ctx context.Context, id int) (string, error) {
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/user_delete/%d", id), nil)
}

// FetchCollection reads an entire collection endpoint as raw records for
// export. Unknown fields survive untouched.
func (c *Client) FetchCollection(ctx context.Context, col Collection) (RawList, error) {
	var records RawList
	if err := c.getJSON(ctx, col.Path, &records); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", col.Name, err)
	}
	return records, nil
}

// ExportCollections lists the endpoints `tourctl export` downloads.
func ExportCollections() []Collection {
	return []Collection{
		{Name: "packages", Path: "/admin-tourpackages"},
		{Name: "enquiries", Path: "/CustomerenquireView"},
		{Name: "users", Path: "/user_list"},
		{Name: "banners", Path: "/fetch-banner"},
		{Name: "countries", Path: "/fetch-countries"},
	}
}

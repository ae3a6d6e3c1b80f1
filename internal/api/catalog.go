package api

import (
	"context"
	"fmt"
	"net/http"
)

// ListPackages returns all tour packages visible to the admin console.
func (c *Client) ListPackages(ctx context.Context) ([]TourPackage, error) {
	var packages []TourPackage
	if err := c.getJSON(ctx, "/admin-tourpackages", &packages); err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return packages, nil
}

// GetPackage returns full details for a single package.
func (c *Client) GetPackage(ctx context.Context, id int) (*TourPackage, error) {
	var pkg TourPackage
	if err := c.getJSON(ctx, fmt.Sprintf("/PackageDetails/%d/", id), &pkg); err != nil {
		return nil, fmt.Errorf("failed to get package %d: %w", id, err)
	}
	return &pkg, nil
}

// AddPackage creates a tour package.
func (c *Client) AddPackage(ctx context.Context, pkg TourPackage) (string, error) {
	return c.sendJSON(ctx, http.MethodPost, "/Add-TourPackage", pkg)
}

// UpdatePackage overwrites an existing package.
func (c *Client) UpdatePackage(ctx context.Context, id int, pkg TourPackage) (string, error) {
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/update-tourpackage/%d/", id), pkg)
}

// DeletePackage removes a package.
func (c *Client) DeletePackage(ctx context.Context, id int) (string, error) {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/delete-tourpackage/%d/", id), nil)
}

// ListBanners returns the landing page banners.
func (c *Client) ListBanners(ctx context.Context) ([]Banner, error) {
	var banners []Banner
	if err := c.getJSON(ctx, "/fetch-banner", &banners); err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return banners, nil
}

// AddBanner creates a banner.
func (c *Client) AddBanner(ctx context.Context, banner Banner) (string, error) {
	return c.sendJSON(ctx, http.MethodPost, "/add-banner", banner)
}

// DeleteBanner removes a banner.
func (c *Client) DeleteBanner(ctx context.Context, id int) (string, error) {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/delete-banner/%d/", id), nil)
}

// ListCountries returns all destination countries with their cities.
func (c *Client) ListCountries(ctx context.Context) ([]Country, error) {
	var countries []Country
	if err := c.getJSON(ctx, "/fetch-countries", &countries); err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return countries, nil
}

// AddCountry creates a destination country.
func (c *Client) AddCountry(ctx context.Context, country Country) (string, error) {
	return c.sendJSON(ctx, http.MethodPost, "/adding-countries", country)
}

// UpdateCountry renames a country or replaces its city list.
func (c *Client) UpdateCountry(ctx context.Context, id int, country Country) (string, error) {
	return c.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/update-countries/%d/", id), country)
}

// DeleteCountry removes a country and its cities.
func (c *Client) DeleteCountry(ctx context.Context, id int) (string, error) {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/delete-countries/%d/", id), nil)
}

// ListSchedules returns the departure slots for a package.
func (c *Client) ListSchedules(ctx context.Context, packageID int) ([]Schedule, error) {
	var schedules []Schedule
	if err := c.getJSON(ctx, fmt.Sprintf("/package-schedules/%d/", packageID), &schedules); err != nil {
		return nil, fmt.Errorf("failed to list schedules for package %d: %w", packageID, err)
	}
	return schedules, nil
}

// AddSchedule creates a departure slot.
func (c *Client) AddSchedule(ctx context.Context, schedule Schedule) (string, error) {
	return c.sendJSON(ctx, http.MethodPost, "/add-schedule", schedule)
}

// DeleteSchedule removes a departure slot.
func (c *Client) DeleteSchedule(ctx context.Context, id int) (string, error) {
	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/delete-schedule/%d/", id), nil)
}

package api

import "encoding/json"

// LoginRequest is the credential form posted to /LoginView.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries tokens for whichever principal the backend matched.
// The user_* and admin_* field groups are mutually exclusive in practice, but
// both are decoded so role dispatch can inspect what actually arrived.
type LoginResponse struct {
	Message string `json:"message"`

	UserRole         string `json:"user_role,omitempty"`
	UserName         string `json:"user_name,omitempty"`
	UserAccessToken  string `json:"user_access_token,omitempty"`
	UserRefreshToken string `json:"user_refresh_token,omitempty"`

	AdminRole         string `json:"admin_role,omitempty"`
	AdminUsername     string `json:"admin_username,omitempty"`
	AdminAccessToken  string `json:"admin_access_token,omitempty"`
	AdminRefreshToken string `json:"admin_refresh_token,omitempty"`
}

// RegisterRequest is the signup form posted to /Register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MessageResponse is the generic `{message}` body most mutations return.
type MessageResponse struct {
	Message string `json:"message"`
}

// TourPackage is a bookable tour package.
type TourPackage struct {
	ID          int      `json:"id"`
	Name        string   `json:"package_name"`
	Description string   `json:"description"`
	Country     string   `json:"country"`
	City        string   `json:"city"`
	Days        int      `json:"days"`
	Nights      int      `json:"nights"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"image_url,omitempty"`
	Inclusions  []string `json:"inclusions,omitempty"`
	IsActive    bool     `json:"is_active"`
}

// Banner is a promotional banner shown on the landing page.
type Banner struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	IsActive bool   `json:"is_active"`
}

// Country groups the cities tours can be booked in.
type Country struct {
	ID     int    `json:"id"`
	Name   string `json:"country_name"`
	Cities []City `json:"cities,omitempty"`
}

// City is a destination within a country.
type City struct {
	ID   int    `json:"id"`
	Name string `json:"city_name"`
}

// Schedule is a departure date slot for a package.
type Schedule struct {
	ID         int    `json:"id"`
	PackageID  int    `json:"package_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	SeatsTotal int    `json:"seats_total"`
	SeatsLeft  int    `json:"seats_left"`
}

// Enquiry is a customer booking enquiry.
type Enquiry struct {
	ID        int    `json:"id"`
	PackageID int    `json:"package_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// User is an account row from the admin user list.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	JoinedAt string `json:"date_joined,omitempty"`
}

// Collection is a named export unit: the endpoint it is read from and the
// raw records it yields. Raw records keep export lossless regardless of
// backend schema drift.
type Collection struct {
	Name string
	Path string
}

// RawList decodes list responses without committing to a schema.
type RawList []json.RawMessage

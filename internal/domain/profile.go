package domain

// User is the logged-in shopper.
type User struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// Address is a saved delivery address. Lat/Lon are optional.
type Address struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	FullName string   `json:"fullName" validate:"required"`
	Phone    string   `json:"phone" validate:"required"`
	Line1    string   `json:"line1" validate:"required"`
	Line2    string   `json:"line2,omitempty"`
	City     string   `json:"city" validate:"required"`
	State    string   `json:"state" validate:"required"`
	Pincode  string   `json:"pincode" validate:"required"`
	Lat      *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lon      *float64 `json:"lon,omitempty" validate:"omitempty,longitude"`
}

package model

import "time"

type Customer struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	DateOfBirth *string   `json:"date_of_birth"` // YYYY-MM-DD, nullable
	PhoneNumber *string   `json:"phone_number"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Postcode    string    `json:"postcode"`
	LastChange  time.Time `json:"last_change"`
	Segment     *string   `json:"segment"`
}

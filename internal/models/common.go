package models

// DateFormat is the wire format for calendar dates. Dates are calendar days in
// the site timezone and carry no time component.
const DateFormat = "2006-01-02"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

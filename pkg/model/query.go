package model

// Order is one sort key of a resolved query.
type Order struct {
	Field     string    `json:"field"`
	Direction SortOrder `json:"direction"`
}

// Query is the resolved description handed to a query executor.
type Query struct {
	Type    string  `json:"type"`
	Filters Filters `json:"filters"`
	OrderBy []Order `json:"orderBy"`
}

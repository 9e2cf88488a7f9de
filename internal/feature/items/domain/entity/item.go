// Package entity defines the domain entities for the item catalog feature.
package entity

import (
	"math"
	"time"
)

// Comment is a free-text remark left on a listed item.
type Comment struct {
	Author  string `json:"author" bson:"author"`
	Comment string `json:"comment" bson:"comment"`
}

// Item is a second-hand good listed on the marketplace.
type Item struct {
	// ID is the store-assigned incremental identifier rendered as decimal text ("1", "2", ...).
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Condition   string     `json:"condition"`
	PostedBy    string     `json:"posted_by"`
	Zipcode     string     `json:"zipcode"`
	DateAdded   int64      `json:"date_added"`
	AgeDays     int        `json:"age_days"`
	AgeYears    float64    `json:"age_years"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Comments    []Comment  `json:"comments"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// ItemUpdate is the set of fields a PUT replaces. AgeYears is derived from AgeDays.
type ItemUpdate struct {
	Category    string
	Condition   string
	AgeDays     int
	Description string
}

// SearchFilter narrows a catalog search. Zero values mean "no constraint".
type SearchFilter struct {
	// Name matches case-insensitively as a literal substring.
	Name      string
	Category  string
	Condition string
	// MaxAgeYears keeps items whose age_years is less than or equal to the value.
	MaxAgeYears *int
}

// AgeYearsFromDays converts an age in days to years rounded to one decimal place.
func AgeYearsFromDays(days int) float64 {
	return math.Round(float64(days)/365*10) / 10
}

package models

import (
	"math"
	"time"
)

// SlideshowImage is a home page banner
type SlideshowImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

// ChurchBranch is a physical location. Radius is the catchment circle in metres.
type ChurchBranch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Leader    string    `json:"leader"`
	Address   string    `json:"address"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Radius    float64   `json:"radius"`
	CreatedAt time.Time `json:"created_at"`
}

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two coordinates
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// AnnouncementType controls how an announcement banner is styled
type AnnouncementType string

const (
	AnnouncementInfo    AnnouncementType = "INFO"
	AnnouncementAlert   AnnouncementType = "ALERT"
	AnnouncementSuccess AnnouncementType = "SUCCESS"
)

// Announcement is a site-wide banner message
type Announcement struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Type      AnnouncementType `json:"type"`
	IsActive  bool             `json:"is_active"`
	CreatedAt time.Time        `json:"created_at"`
}

// Resource is a downloadable file such as a study guide
type Resource struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	FileURL     string    `json:"file_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConnectSubmission is a visitor's connect card
type ConnectSubmission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Giving types and methods accepted by the giving page
const (
	GivingTithe       = "Tithe"
	GivingOffering    = "Offering"
	GivingSpecialGift = "Special Gift"

	GivingMobileMoney = "Mobile Money"
	GivingBank        = "Bank"
	GivingInPerson    = "In-Person"
)

// GivingRecord is one contribution by a member
type GivingRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	Type      string    `json:"type"`
	Method    string    `json:"method"`
	GivenOn   time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

package dto

type ParkrunQuery struct {
	Country string `query:"country"`
	Search  string `query:"search"`
	Junior  *bool  `query:"junior"`
}

type ParkrunSummary struct {
	UID       int64   `json:"uid"`
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
	Slug      string  `json:"slug"`
	Location  string  `json:"location"`
	Country   string  `json:"country"`
	Junior    bool    `json:"junior"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ParkrunListResponse struct {
	Events []ParkrunSummary `json:"events"`
	Total  int              `json:"total"`
}

type NearbyQuery struct {
	Lat    *float64 `query:"lat"`
	Lon    *float64 `query:"lon"`
	Limit  int      `query:"limit"`
	Junior *bool    `query:"junior"`
}

type Location struct {
	IP          string  `json:"ip,omitempty"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type NearbyParkrun struct {
	ParkrunSummary
	DistanceKm float64 `json:"distance_km"`
}

type NearbyResponse struct {
	Origin Location        `json:"origin"`
	Events []NearbyParkrun `json:"events"`
}

package model

// InfoResponse is the document returned by the IPPure info API.
// Every field may be missing, null or of an unexpected type.
type InfoResponse struct {
	IP             *string  `json:"ip"`
	CountryCode    *string  `json:"countryCode"`
	Country        *string  `json:"country"`
	Region         *string  `json:"region"`
	City           *string  `json:"city"`
	ASN            *int64   `json:"asn"`
	ASOrganization *string  `json:"asOrganization"`
	FraudScore     *float64 `json:"fraudScore"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	IsResidential  *bool    `json:"isResidential"`
	IsBroadcast    *bool    `json:"isBroadcast"`
}

// Result is the record handed to the host at the end of a run.
type Result struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Icon      string `json:"icon"`
	IconColor string `json:"icon-color"`
}

// Notification is a push notification posted in event mode.
type Notification struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// ErrorResponse is returned by the HTTP host on error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// StringValue returns the string pointed to by s, or "" if s is nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package constants

// Static route constants
const (
	PublicRoute = "/"
	DonateRoute = "/donate"
)

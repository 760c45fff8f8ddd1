package enums

const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"

	QueryReturnURL = "returnUrl"
)

package navigation

// Authenticated is the part of the session store a guard needs.
type Authenticated interface {
	IsAuthenticated() bool
}

// Guard decides whether route may be shown. The login route is always
// reachable; every other route requires an authenticated session and
// otherwise redirects to login with the route as return destination.
func Guard(session Authenticated, route string) (redirect string, allowed bool) {
	if isLoginRoute(route) {
		return "", true
	}
	if session.IsAuthenticated() {
		return "", true
	}
	return LoginRedirect(route), false
}

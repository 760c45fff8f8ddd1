package middleware

const (
	Authorization = "Authorization"
	BearerPrefix  = "Bearer "
	TokenKey      = "requestToken"
	UserKey       = "requestUser"

	// DetailUnauthorized matches the backend's 401 body.
	DetailUnauthorized = "Could not validate credentials"
)

type contextKey string

const jwtSessionKey contextKey = "jwtSession"

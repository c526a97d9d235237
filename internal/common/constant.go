package common

// AuthorizationHeaderName is the HTTP header that carries the bearer token on
// protected routes.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

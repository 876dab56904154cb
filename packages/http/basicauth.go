package http

import "encoding/base64"

// BasicAuthHeaderKey is the header carrying basic credentials.
const BasicAuthHeaderKey = "Authorization"

// BasicAuthValue returns "Basic " followed by base64("user:password").
func BasicAuthValue(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// BasicAuthHeader returns a header map ready to pass to a call.
func BasicAuthHeader(user, password string) map[string]string {
	return map[string]string{BasicAuthHeaderKey: BasicAuthValue(user, password)}
}

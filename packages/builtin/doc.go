// Package builtin provides the functions available inside {{...}} in
// request scripts.
//
// Available functions:
//   - uuid(): a random UUID v4
//   - now(), date(format), timestamp(), timestampMs()
//   - random(min, max), randomString(length)
//   - base64(value), urlEncode(value)
//   - basicAuth(user, password): an Authorization header value
//   - env(name): an environment variable
package builtin

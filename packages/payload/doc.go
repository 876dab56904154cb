// Package payload models JSON request and response bodies.
//
// Two types cover the whole surface:
//   - Value: a closed JSON union (null, bool, number, string, array, object)
//     whose accessors report absence instead of panicking
//   - Payload: a body that is an object, an array of objects, or opaque bytes
//
// Payloads built from raw bytes try JSON first and keep the original bytes,
// so a decoded body re-encodes to exactly what was received.
package payload

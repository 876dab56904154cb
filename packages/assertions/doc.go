// Package assertions checks values read from a request result against
// expectations declared in a script step.
//
// Subjects use the same expressions as captures: "status", "duration",
// "header.<name>", "body" and "body.<path>". A bare path such as "user.id"
// is read from the body.
package assertions

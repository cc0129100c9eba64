// Package auth authenticates API operators.
//
// Operators are listed in configuration with an Argon2id password hash and
// a role. A successful login returns a short-lived HS256 access token that
// carries the role; requests present it as a bearer token and are checked
// by signature alone.
//
// Two roles exist. A viewer may read panel, device and configuration state.
// An operator may also inject gestures, change pages and brightness, write
// device capabilities and edit button and display configurations.
package auth

// Package version holds the application version.
package version

// Version is the current application version.
// Updated manually on release.
const Version = "0.4.1"

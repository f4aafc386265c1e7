// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// ServiceName is reported by the root endpoint and the version flag
const ServiceName = "controlchart"

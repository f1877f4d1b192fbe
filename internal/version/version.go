// ABOUTME: Version constants for Echo
// ABOUTME: Reported in startup logs and the CLI -version flag
package version

const (
	Version      = "0.3.0"
	Product      = "Echo"
	Manufacturer = "Echo Haptics"
)

// String returns the product name and version, e.g. "Echo 0.3.0".
func String() string {
	return Product + " " + Version
}

package version

// Set via -ldflags at release build time.
var (
	AppName    = "Luna"
	AppVersion = "0.3.0"
)

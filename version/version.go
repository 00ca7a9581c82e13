package version

// Version is set at build time with
// -ldflags "-X github.com/semmatch/semmatch/version.Version=..."
var Version = "0.1.0"

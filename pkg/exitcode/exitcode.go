// Package exitcode provides standardized exit codes for wsmerge
package exitcode

// Exit codes for the wsmerge CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	DiscoveryError  = 3
	FileSystemError = 4
	ConflictsRemain = 5
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case DiscoveryError:
		return "Discovery error"
	case FileSystemError:
		return "File system error"
	case ConflictsRemain:
		return "Unresolved merge conflicts"
	default:
		return "Unknown error"
	}
}

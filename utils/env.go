package utils

const (
	// EnvVarPrefix is the prefix for all rgbdassoc environment variables.
	EnvVarPrefix = "RGBDASSOC_"

	// OffsetEnvVar overrides the default offset, in seconds, added to second-stream stamps.
	OffsetEnvVar = EnvVarPrefix + "OFFSET"

	// MaxDifferenceEnvVar overrides the default maximum time difference, in seconds, between
	// associated stamps.
	MaxDifferenceEnvVar = EnvVarPrefix + "MAX_DIFFERENCE"

	// LogLevelEnvVar sets the CLI's log level (debug, info, warn or error).
	LogLevelEnvVar = EnvVarPrefix + "LOG_LEVEL"
)

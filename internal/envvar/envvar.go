package envvar

const (
	// AwairsEnv is the environment variable used to determine the environment
	AwairsEnv = "AWAIRS_ENV"

	// Prefix is the prefix used for environment overrides of the config file.
	// PORT is also read without it.
	Prefix = "AWAIRS"
)

package constants

// Configuration file names.
const (
	// ConfigFileName is the name of both the global (~/.waypoint/config.yaml)
	// and project (.waypoint/config.yaml) configuration files.
	ConfigFileName = "config.yaml"

	// EnvPrefix is the environment variable prefix (WAYPOINT_PATHS_SESSION_STATE, ...).
	EnvPrefix = "WAYPOINT"

	// HomeEnvVar overrides the location of ~/.waypoint.
	HomeEnvVar = "WAYPOINT_HOME"
)

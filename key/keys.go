// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 21

// Server Connection - these keys configure the coordination server endpoint and identity presented to it.
const (
	ServerHost     = "server.host"
	ServerPort     = "server.port"
	ServerTLS      = "server.tls"
	ServerUsername = "server.username"
	ServerRoom     = "server.room"
)

// Player IPC - these keys configure how the adapter reaches the locally running media player.
const (
	PlayerSocket  = "player.socket"
	PlayerTimeout = "player.timeout_seconds"
)

// Sync Engine - these keys tune the decision thresholds the engine applies every tick.
const (
	SyncSeekAheadThreshold  = "sync.seek_ahead_seconds"
	SyncSeekBehindThreshold = "sync.seek_behind_seconds"
	SyncSlowdownEntry       = "sync.slowdown_entry_seconds"
	SyncSlowdownExit        = "sync.slowdown_exit_seconds"
	SyncSlowdownRate        = "sync.slowdown_rate"
	SyncTickInterval        = "sync.tick_interval_ms"
)

// Reconnection Policy - these keys govern the coordinator's optional automatic-reconnect behavior.
const (
	ReconnectEnabled    = "reconnect.enabled"
	ReconnectMaxRetries = "reconnect.max_retries"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-interactive application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)

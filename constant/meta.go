// Package constant defines immutable application-level identifiers and protocol-level defaults.
package constant

const (
	// Syncplay is the canonical application identifier used for filesystem paths and CLI branding.
	Syncplay = "syncplay-go"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// ProtocolVersion is the server protocol version this client negotiates against.
	ProtocolVersion = "1.7.2"

	// DefaultPort is the coordination server's default TCP port.
	DefaultPort = 8999

	// MaxFrameBytes bounds a single line-delimited JSON frame, codec and player IPC alike.
	MaxFrameBytes = 1 << 20 // 1 MiB
)

// Server feature version floors, compared against the server's handshake
// realversion string to gate optional protocol features.
const (
	ControlledRoomsMinVersion    = "1.3.0"
	UserReadyMinVersion          = "1.3.0"
	SharedPlaylistMinVersion     = "1.4.0"
	ChatMinVersion               = "1.5.0"
	FeatureListMinVersion        = "1.5.0"
	SetOthersReadinessMinVersion = "1.7.2"
)

// Fallback server limits, used when the server's featureList omits them.
const (
	DefaultMaxChatMessageLength = 50
	DefaultMaxUsernameLength    = 16
	DefaultMaxRoomNameLength    = 35
	DefaultMaxFilenameLength    = 250
)

// Build-time metadata, overridden via -ldflags "-X ...=..." by the release
// pipeline. Left as their zero value in a development build.
var (
	BuiltAt  string
	BuiltBy  string
	Revision string
)

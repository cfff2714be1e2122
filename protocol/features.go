// Package protocol implements the coordination-server session: the Hello
// handshake, server feature negotiation, RTT/forward-delay smoothing, and
// the Active-state message loop that keeps room.Model and the sync engine
// fed from the wire.
package protocol

import (
	"github.com/everpcpc/syncplay-go/constant"
	"github.com/everpcpc/syncplay-go/version"
)

// ServerFeatures records which optional protocol features the connected
// server supports, derived from its handshake realversion and an optional
// featureList object on the Hello reply.
//
// Grounded in original_source/commands/connection.rs::update_server_features.
type ServerFeatures struct {
	FeatureList        bool
	SharedPlaylists    bool
	Chat               bool
	Readiness          bool
	ManagedRooms       bool
	PersistentRooms    bool
	SetOthersReadiness bool

	MaxChatMessageLength int
	MaxUsernameLength    int
	MaxRoomNameLength    int
	MaxFilenameLength    int
}

// DeriveServerFeatures computes ServerFeatures from the server's
// handshake realversion (compared against fixed version floors) and,
// when present, an explicit featureList object that overrides the
// version-derived defaults.
func DeriveServerFeatures(realVersion string, featureList map[string]any) ServerFeatures {
	f := ServerFeatures{
		ManagedRooms:          version.Meets(realVersion, constant.ControlledRoomsMinVersion),
		Readiness:             version.Meets(realVersion, constant.UserReadyMinVersion),
		SharedPlaylists:       version.Meets(realVersion, constant.SharedPlaylistMinVersion),
		Chat:                  version.Meets(realVersion, constant.ChatMinVersion),
		FeatureList:           version.Meets(realVersion, constant.FeatureListMinVersion),
		SetOthersReadiness:    version.Meets(realVersion, constant.SetOthersReadinessMinVersion),
		MaxChatMessageLength:  constant.DefaultMaxChatMessageLength,
		MaxUsernameLength:     constant.DefaultMaxUsernameLength,
		MaxRoomNameLength:     constant.DefaultMaxRoomNameLength,
		MaxFilenameLength:     constant.DefaultMaxFilenameLength,
	}

	if featureList == nil {
		return f
	}

	if v, ok := featureList["sharedPlaylists"].(bool); ok {
		f.SharedPlaylists = v
	}
	if v, ok := featureList["chat"].(bool); ok {
		f.Chat = v
	}
	if v, ok := featureList["readiness"].(bool); ok {
		f.Readiness = v
	}
	if v, ok := featureList["managedRooms"].(bool); ok {
		f.ManagedRooms = v
	}
	if v, ok := featureList["persistentRooms"].(bool); ok {
		f.PersistentRooms = v
	}
	if v, ok := featureList["setOthersReadiness"].(bool); ok {
		f.SetOthersReadiness = v
	}
	if v, ok := featureList["maxChatMessageLength"].(float64); ok {
		f.MaxChatMessageLength = int(v)
	}
	if v, ok := featureList["maxUsernameLength"].(float64); ok {
		f.MaxUsernameLength = int(v)
	}
	if v, ok := featureList["maxRoomNameLength"].(float64); ok {
		f.MaxRoomNameLength = int(v)
	}
	if v, ok := featureList["maxFilenameLength"].(float64); ok {
		f.MaxFilenameLength = int(v)
	}

	return f
}

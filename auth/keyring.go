// Package auth provides a high-level API for persisting and retrieving secrets from the system keyring.
package auth

import (
	"github.com/zalando/go-keyring"
)

const service = "syncplay-go"

// SetRoomPassword persists a room's password to the system keyring, keyed by room name,
// so the demo CLI never needs to keep it in plaintext config.
func SetRoomPassword(room, password string) error {
	return keyring.Set(service, room, password)
}

// GetRoomPassword retrieves a previously stored room password from the system keyring.
func GetRoomPassword(room string) (string, error) {
	return keyring.Get(service, room)
}

// DeleteRoomPassword removes a stored room password from the system keyring.
func DeleteRoomPassword(room string) error {
	return keyring.Delete(service, room)
}

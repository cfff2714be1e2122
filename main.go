// Package main is the entry point for syncplay-go, a headless client that
// keeps a local media player in sync with a room full of others on a
// group video-synchronization server.
package main

import (
	"github.com/everpcpc/syncplay-go/cmd"
	"github.com/everpcpc/syncplay-go/config"
	"github.com/everpcpc/syncplay-go/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}

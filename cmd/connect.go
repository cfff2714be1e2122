package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/everpcpc/syncplay-go/auth"
	"github.com/everpcpc/syncplay-go/color"
	"github.com/everpcpc/syncplay-go/coordinator"
	"github.com/everpcpc/syncplay-go/icon"
	"github.com/everpcpc/syncplay-go/key"
	"github.com/everpcpc/syncplay-go/player"
	"github.com/everpcpc/syncplay-go/style"
	"github.com/everpcpc/syncplay-go/syncengine"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().String("host", "", "Coordination server hostname or address")
	connectCmd.Flags().Int("port", 0, "Coordination server port")
	connectCmd.Flags().Bool("tls", false, "Attempt an opportunistic TLS upgrade with the server")
	connectCmd.Flags().String("username", "", "Username presented to the server and other room members")
	connectCmd.Flags().String("room", "", "Room to join on connect")
	connectCmd.Flags().String("password", "", "Room password; persisted in the OS keyring for subsequent runs")
	connectCmd.Flags().String("player-socket", "", "Path to the external media player's JSON-IPC socket")

	lo.Must0(viper.BindPFlag(key.ServerHost, connectCmd.Flags().Lookup("host")))
	lo.Must0(viper.BindPFlag(key.ServerPort, connectCmd.Flags().Lookup("port")))
	lo.Must0(viper.BindPFlag(key.ServerTLS, connectCmd.Flags().Lookup("tls")))
	lo.Must0(viper.BindPFlag(key.ServerUsername, connectCmd.Flags().Lookup("username")))
	lo.Must0(viper.BindPFlag(key.ServerRoom, connectCmd.Flags().Lookup("room")))
	lo.Must0(viper.BindPFlag(key.PlayerSocket, connectCmd.Flags().Lookup("player-socket")))
}

// connectCmd is the primary entry point: join a room on a coordination
// server and keep the local player in sync with it until interrupted.
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to a coordination server and keep the local player in sync",
	Run: func(cmd *cobra.Command, args []string) {
		room := viper.GetString(key.ServerRoom)
		socket := viper.GetString(key.PlayerSocket)

		if password, _ := cmd.Flags().GetString("password"); password != "" && room != "" {
			handleErr(auth.SetRoomPassword(room, password))
		}

		CheckPlayerSocket(socket)

		cfg := coordinator.Config{
			Host:          viper.GetString(key.ServerHost),
			Port:          viper.GetInt(key.ServerPort),
			TLS:           viper.GetBool(key.ServerTLS),
			Username:      viper.GetString(key.ServerUsername),
			Room:          room,
			MaxFrameBytes: 1 << 20,
			PlayerSocket:  socket,
			PlayerDialer:  player.UnixDialer,
			PlayerTimeout: time.Duration(viper.GetInt(key.PlayerTimeout)) * time.Second,
			TickInterval:  time.Duration(viper.GetInt(key.SyncTickInterval)) * time.Millisecond,
			Thresholds: syncengine.Thresholds{
				SeekAhead:     viper.GetFloat64(key.SyncSeekAheadThreshold),
				SeekBehind:    viper.GetFloat64(key.SyncSeekBehindThreshold),
				SlowdownEntry: viper.GetFloat64(key.SyncSlowdownEntry),
				SlowdownExit:  viper.GetFloat64(key.SyncSlowdownExit),
				SlowdownRate:  viper.GetFloat64(key.SyncSlowdownRate),
			},
			Reconnect: coordinator.ReconnectPolicy{
				Enabled:     viper.GetBool(key.ReconnectEnabled),
				MaxRetries:  viper.GetInt(key.ReconnectMaxRetries),
				BaseDelay:   100 * time.Millisecond,
				MaxExponent: 5,
			},
		}

		co := coordinator.New(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		go printEvents(co)

		handleErr(co.Run(ctx))
	},
}

func printEvents(co *coordinator.Coordinator) {
	for {
		select {
		case status := <-co.Status:
			fmt.Printf("%s %s\n", statusIcon(status.Kind), style.Fg(color.Blue)(status.String()))
		case msg := <-co.Chat:
			fmt.Printf("%s: %s\n", style.Fg(color.Purple)(msg.Username), msg.Message)
		case tls := <-co.TLS:
			fmt.Printf("%s tls: %s\n", icon.Get(icon.Info), style.Fg(color.Blue)(tls.String()))
		case users := <-co.Users:
			fmt.Printf("%s %d user(s) in room\n", icon.Get(icon.Info), len(users))
		case playback := <-co.Playback:
			state := "playing"
			if playback.Paused {
				state = "paused"
			}
			fmt.Printf("%s %s at %.1fs (set by %s)\n", icon.Get(icon.Info), style.Fg(color.Blue)(state), playback.Position, playback.SetBy)
		case rtt := <-co.RTT:
			fmt.Printf("%s rtt: %s\n", icon.Get(icon.Info), style.Fg(color.Blue)(rtt.String()))
		}
	}
}

func statusIcon(kind coordinator.StatusKind) string {
	switch kind {
	case coordinator.StatusConnected:
		return icon.Get(icon.Connected)
	case coordinator.StatusConnecting, coordinator.StatusReconnecting:
		return icon.Get(icon.Progress)
	case coordinator.StatusDisconnected:
		return icon.Get(icon.Disconnected)
	case coordinator.StatusFailed:
		return icon.Get(icon.Fail)
	default:
		return icon.Get(icon.Info)
	}
}

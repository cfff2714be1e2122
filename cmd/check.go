// Package cmd implements the command-line interface for syncplay-go.
package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/everpcpc/syncplay-go/icon"
	"github.com/everpcpc/syncplay-go/style"
)

// CheckPlayerSocket verifies that a player IPC socket path was supplied and that
// the path exists on disk. The player process itself is never spawned by this
// CLI — the caller is expected to already have it running with --input-ipc-server.
func CheckPlayerSocket(path string) {
	if path == "" {
		printMissingSocketError()
		os.Exit(1)
	}

	if _, err := os.Stat(path); err != nil {
		printSocketNotFoundError(path)
		os.Exit(1)
	}
}

func printMissingSocketError() {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: No Player Socket", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render("No --player-socket was given. Start mpv with --input-ipc-server=<path> first.")

	fmt.Println(box.Render(lipgloss.JoinVertical(lipgloss.Left, title, "\n", body)))
}

func printSocketNotFoundError(path string) {
	var hint string
	switch runtime.GOOS {
	case "windows":
		hint = "mpv uses a named pipe on Windows; pass its pipe name as --player-socket"
	default:
		hint = fmt.Sprintf("mpv --input-ipc-server=%s ...", path)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Player Socket Not Found", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("No socket found at '%s'.", path))
	suggestion := fmt.Sprintf("\n\nStart your player with:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(hint))

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "\n", body, suggestion),
	))
}

// Package cmd implements the command-line interface for syncplay-go.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/everpcpc/syncplay-go/color"
	"github.com/everpcpc/syncplay-go/constant"
	"github.com/everpcpc/syncplay-go/icon"
	"github.com/everpcpc/syncplay-go/key"
	"github.com/everpcpc/syncplay-go/log"
	"github.com/everpcpc/syncplay-go/style"
	"github.com/everpcpc/syncplay-go/util"
	"github.com/everpcpc/syncplay-go/version"
	"github.com/everpcpc/syncplay-go/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Initialize cleanup of localized temporary files on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the syncplay-go application.
var rootCmd = &cobra.Command{
	Use:   constant.Syncplay,
	Short: "A headless client for group video-synchronization servers",
	Long: style.New().Bold(true).Foreground(color.HiPurple).Render("syncplay-go") + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - keeps a local media player in sync with a room full of others"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

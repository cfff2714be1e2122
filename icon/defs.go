package icon

// Icon identifies a single registered UI symbol.
type Icon int

const (
	// Success marks a completed, non-destructive operation.
	Success Icon = iota
	// Fail marks an operation that could not complete.
	Fail
	// Progress marks work that is currently in flight.
	Progress
	// Warn marks a condition worth the user's attention that isn't fatal.
	Warn
	// Info marks a neutral status update.
	Info
	// Connected marks a session transitioning to a healthy connected state.
	Connected
	// Disconnected marks a session that has dropped its connection.
	Disconnected
)

var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "✅",
		nerd:    "",
		plain:   "[OK]",
		kaomoji: "(＾▽＾)",
		squares: "🟩",
	},
	Fail: {
		emoji:   "❌",
		nerd:    "",
		plain:   "[FAIL]",
		kaomoji: "(╯°□°）╯",
		squares: "🟥",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "[...]",
		kaomoji: "(・_・)",
		squares: "🟨",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "",
		plain:   "[WARN]",
		kaomoji: "(・・;)",
		squares: "🟧",
	},
	Info: {
		emoji:   "ℹ️",
		nerd:    "",
		plain:   "[INFO]",
		kaomoji: "(・∀・)",
		squares: "🟦",
	},
	Connected: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "[CONNECTED]",
		kaomoji: "(＾ｖ＾)",
		squares: "🟩",
	},
	Disconnected: {
		emoji:   "🔌",
		nerd:    "",
		plain:   "[DISCONNECTED]",
		kaomoji: "(´；ω；`)",
		squares: "🟥",
	},
}

// Package theme centralizes the embed colour palette used across the bot's
// responses so feature packages never hardcode raw colour integers.
package theme

const (
	success      = 0x57F287
	errorColour  = 0xED4245
	warning      = 0xFEE75C
	info         = 0x5865F2
	muted        = 0x99AAB5
	embedDefault = 0x2B2D31
)

func Success() int { return success }
func Error() int   { return errorColour }
func Warning() int { return warning }
func Info() int    { return info }
func Muted() int   { return muted }

// EmbedDefault is the colour applied to user-built embeds that never had an
// explicit colour set.
func EmbedDefault() int { return embedDefault }

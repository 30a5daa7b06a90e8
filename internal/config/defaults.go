package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultDigestChat  = "@Asilkhoja_Mansurov"
	DefaultLedgerPath  = "users.txt"
	DefaultDigestEvery = 50

	DefaultMediaBinary       = "yt-dlp"
	DefaultMediaDownloadDir  = "downloads"
	DefaultMediaCookieFile   = "www.youtube.com_cookies.txt"
	DefaultMediaAudioFormat  = "mp3"
	DefaultMediaAudioQuality = 192
	DefaultMediaStaleAfter   = time.Hour

	DefaultSweepSchedule = "0 */15 * * * *"
)

// Default user-facing texts
var DefaultMessages = MessagesConfig{
	Welcome:       "🎧 Welcome to the MP3 bot!\n\n🔗 Send me a link and I will turn it into an MP3 for you.",
	Help:          "🔗 Send me a video link and I will reply with its audio track.\n\n/start - welcome message\n/help - this message",
	Received:      "🔗 Link received!\n⏳ Downloading...",
	FetchFailed:   "❌ Could not download audio from this link. Please check it and try again.",
	Stats:         "👥 Users: %d",
	DigestCaption: "📄 Users: %d",
}

package dispatch

const (
	msgCalculated       = "I already calculated it... %s"
	msgCannotCompute    = "I couldn't compute that. Give me actual numbers."
	msgVideosFound      = "I found %d videos. Which one do you want to play? (1-%d)"
	msgNothingFound     = "I didn't find anything for %q."
	msgSearchFailed     = "I couldn't search for that right now."
	msgSearchFirst      = "First tell me what to search for on YouTube."
	msgInvalidNumber    = "Invalid number. Try another one."
	msgPlayingVideo     = "Playing %q."
	msgPlaybackFailed   = "I couldn't play that right now."
	msgOpenedMedia      = "Opening YouTube."
	msgWebResult        = "This is what I found: %s"
	msgAskMusicKind     = "Song, album, playlist or artist?"
	msgWhatToPlay       = "What do you want me to play?"
	msgPlayingMusic     = "Playing %s %q."
	msgNoActiveDevice   = "I can't find an active Spotify device. Open Spotify somewhere first."
	msgMusicNotFound    = "I couldn't find that %s on Spotify."
	msgMusicFailed      = "I tried to play the %s, but something went wrong."
	msgInEnglish        = "In English that would be: %s"
	msgInSpanish        = "In Spanish that would be: %s"
	msgAgendaAdded      = "Event added to your agenda."
	msgAgendaAddFailed  = "I couldn't save that to your agenda."
	msgAgendaEmpty      = "Your agenda is empty."
	msgAgendaReadFailed = "I couldn't read your agenda."
	msgTime             = "It's %s."
	msgWeather          = "The current weather is: %s"
	msgWeatherFailed    = "I couldn't get the weather right now."
)

var softFailures = []string{
	"I can't do that right now.",
	"Try something more useful... maybe.",
	"I'm not programmed for that... yet.",
	"And now what do you want? I can't do that.",
}

// MusicKindQuestion is asked when a music request does not say what kind
// of item to play.
const MusicKindQuestion = msgAskMusicKind

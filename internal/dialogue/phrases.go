package dialogue

import (
	"math/rand"
	"regexp"
	"strings"
)

// exitPhrases end the conversation when they are the whole utterance.
var exitPhrases = map[string]struct{}{
	"salir":       {},
	"adios":       {},
	"hasta luego": {},
	"exit":        {},
	"quit":        {},
	"goodbye":     {},
}

type cannedGroup struct {
	pattern *regexp.Regexp
	replies []string
}

// Matched against intent.Simplify output, so patterns carry no accents.
// Go's \b is ASCII-only; the explicit class keeps boundaries on letters
// like "ñ".
func phrasePattern(phrases ...string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}\p{N}])`)
}

var cannedGroups = []cannedGroup{
	{
		pattern: phrasePattern("hola", "buenos dias", "buenas tardes", "buenas noches", "hello", "hi", "hey", "good morning", "good afternoon", "good evening"),
		replies: []string{
			"Hey! Did you come just to bother me?",
			"You again? Fine, what do you need?",
			"Hi! Not that I'm happy to see you or anything...",
		},
	},
	{
		pattern: phrasePattern("como estas", "que tal", "como te va", "how are you", "how's it going", "how is it going"),
		replies: []string{
			"I'm fine... I guess. You don't care that much, do you?",
			"Could be worse, but here I am. Thanks for asking...",
			"Don't ask me such cheesy things.",
		},
	},
	{
		pattern: phrasePattern("adios", "hasta luego", "nos vemos", "chao", "bye", "see you", "see ya"),
		replies: farewells,
	},
}

var farewells = []string{
	"Bye... not that I care whether you come back.",
	"See you... or not. Your call!",
	"Later. Don't take too long, okay?",
}

var flourishes = []string{
	"Anything else, %s? Don't leave me bored.",
	"Hey %s, are you going to give me work or what?",
	"Well %s, what do you want now?",
	"Hmph! Done, %s.",
}

const (
	msgGreeting        = "Hello %s. What do you want now?"
	msgNotAvailable    = "I'm not available right now."
	msgGenerationError = "I couldn't come up with an answer right now... grrr. (%s)"
	msgGenericApology  = "Something went wrong on my side. Try again."
	msgConversationEnd = "This conversation is over. Start a new one if you want to talk."
)

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func cannedReply(simplified string, rng *rand.Rand) (string, bool) {
	for _, g := range cannedGroups {
		if g.pattern.MatchString(simplified) {
			return pick(rng, g.replies), true
		}
	}
	return "", false
}

// Package intent classifies utterances into command kinds with an ordered
// table of trigger-phrase rules. The first matching rule wins.
package intent

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArgPolicy says what, if anything, must follow a rule's trigger.
type ArgPolicy int

const (
	ArgNone ArgPolicy = iota
	ArgText
	ArgInteger
)

func (p ArgPolicy) String() string {
	switch p {
	case ArgNone:
		return "none"
	case ArgText:
		return "text"
	case ArgInteger:
		return "integer"
	default:
		return fmt.Sprintf("ArgPolicy(%d)", int(p))
	}
}

func (p *ArgPolicy) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		*p = ArgNone
	case "text":
		*p = ArgText
	case "integer", "int":
		*p = ArgInteger
	default:
		return fmt.Errorf("line %d: unknown argument policy %q", node.Line, raw)
	}
	return nil
}

// Command kinds.
const (
	KindTranslateToEnglish = "translate_to_english"
	KindTranslateToSpanish = "translate_to_spanish"
	KindMediaPlayIndex     = "media_play_index"
	KindMediaSearch        = "media_search"
	KindMediaOpen          = "media_open"
	KindTimer              = "timer"
	KindAlarm              = "alarm"
	KindMusicPlay          = "music_play"
	KindCalculate          = "calculate"
	KindImageSearch        = "image_search"
	KindWebSearch          = "web_search"
	KindRecommend          = "recommend"
	KindAgendaAdd          = "agenda_add"
	KindAgendaList         = "agenda_list"
	KindWeather            = "weather"
	KindTime               = "time"
	KindDefine             = "define"
	KindSummarize          = "summarize"
	KindJoke               = "joke"
	KindOpenSite           = "open_site"
	KindNews               = "news"
)

// Rule maps trigger phrases, optionally followed by a target noun, to a
// command kind.
type Rule struct {
	Kind     string    `yaml:"kind"`
	Triggers []string  `yaml:"triggers"`
	Targets  []string  `yaml:"targets,omitempty"`
	Arg      ArgPolicy `yaml:"argument"`
	Priority int       `yaml:"priority"`
}

// DefaultRules is the built-in rule table. Order matters:
//
//   - translations come first so "translate to English: search cats" is never
//     a web search;
//   - media_play_index precedes music_play because both use "play"/"pon" and
//     only the former takes a bare number;
//   - timer and alarm precede music_play ("pon temporizador de ...");
//   - image_search precedes web_search ("busca imagen de ...");
//   - media_search precedes web_search ("busca en youtube ...");
//   - weather precedes web_search ("what is the weather").
//
// NewDetector rejects tables that break the prefix rule above.
func DefaultRules() []Rule {
	return []Rule{
		{Kind: KindTranslateToEnglish, Priority: 10, Arg: ArgText, Triggers: []string{
			"traduce al inglés", "traduce inglés", "a inglés",
			"translate to english", "translate into english", "in english",
		}},
		{Kind: KindTranslateToSpanish, Priority: 20, Arg: ArgText, Triggers: []string{
			"traduce al español", "traduce español", "a español",
			"translate to spanish", "translate into spanish", "in spanish",
		}},
		{Kind: KindMediaPlayIndex, Priority: 30, Arg: ArgInteger,
			Triggers: []string{"reproduce", "toca", "pon", "play"},
			Targets:  []string{"el video", "video", "número", "the video", "number"},
		},
		{Kind: KindMediaSearch, Priority: 40, Arg: ArgText, Triggers: []string{
			"busca en youtube", "buscar en youtube", "haz una búsqueda en youtube", "encuentra en youtube",
			"search youtube for", "search on youtube", "search youtube", "find on youtube",
		}},
		{Kind: KindMediaOpen, Priority: 50, Arg: ArgNone, Triggers: []string{
			"abre youtube", "ve a youtube", "ir a youtube", "open youtube", "go to youtube",
		}},
		{Kind: KindTimer, Priority: 60, Arg: ArgText, Triggers: []string{
			"temporizador", "pon temporizador de", "cuenta regresiva de", "timer de",
			"set a timer for", "timer for", "countdown",
		}},
		{Kind: KindAlarm, Priority: 70, Arg: ArgText, Triggers: []string{
			"pon alarma a las", "despiértame a las", "alarma para las",
			"set an alarm for", "wake me up at",
		}},
		{Kind: KindMusicPlay, Priority: 80, Arg: ArgText,
			Triggers: []string{"pon", "toca", "play", "reproduce", "escucha", "dale", "listen to"},
			Targets:  []string{"en spotify", "on spotify", "spotify"},
		},
		{Kind: KindCalculate, Priority: 90, Arg: ArgText, Triggers: []string{
			"calcula", "calcular", "resuelve", "dame resultado de",
			"calculate", "compute", "solve",
		}},
		{Kind: KindImageSearch, Priority: 100, Arg: ArgText, Triggers: []string{
			"busca imagen de", "imagen de", "fotos de", "haz una imagen de",
			"search images of", "images of", "photos of", "pictures of",
		}},
		{Kind: KindWeather, Priority: 105, Arg: ArgNone, Triggers: []string{
			"clima", "tiempo", "qué tiempo hace", "estado del tiempo",
			"weather", "what's the weather", "what is the weather", "how's the weather", "how is the weather",
		}},
		{Kind: KindWebSearch, Priority: 110, Arg: ArgText, Triggers: []string{
			"busca", "buscar", "encuentra", "investiga", "qué es", "infórmame sobre",
			"search for", "search", "look up", "what is", "tell me about",
		}},
		{Kind: KindRecommend, Priority: 120, Arg: ArgText, Triggers: []string{
			"recomiéndame", "dame recomendaciones de", "qué me sugieres de", "sugiere",
			"recommend me", "recommend", "suggest",
		}},
		{Kind: KindAgendaAdd, Priority: 130, Arg: ArgText, Triggers: []string{
			"agenda", "agendar", "programa", "añade a mi agenda", "anota", "recuerda",
			"schedule", "add to my agenda", "remind me to", "note down",
		}},
		{Kind: KindAgendaList, Priority: 140, Arg: ArgNone, Triggers: []string{
			"qué tengo agendado", "muéstrame mi agenda", "mostrar agenda", "ver eventos",
			"show my agenda", "what's on my agenda", "list my events",
		}},
		{Kind: KindTime, Priority: 160, Arg: ArgNone, Triggers: []string{
			"qué hora es", "dime la hora", "hora exacta",
			"what time is it", "tell me the time",
		}},
		{Kind: KindDefine, Priority: 170, Arg: ArgText, Triggers: []string{
			"define", "qué significa", "definición de", "definition of", "meaning of",
		}},
		{Kind: KindSummarize, Priority: 180, Arg: ArgText, Triggers: []string{
			"resume", "haz un resumen de", "resume esto", "resume el texto", "summarize",
		}},
		{Kind: KindJoke, Priority: 190, Arg: ArgNone, Triggers: []string{
			"cuéntame un chiste", "broma", "hazme reír", "dime un chiste", "tell me a joke",
		}},
		{Kind: KindOpenSite, Priority: 200, Arg: ArgText, Triggers: []string{
			"abre sitio", "ve a", "navega a", "ir a página", "open site", "go to", "navigate to",
		}},
		{Kind: KindNews, Priority: 210, Arg: ArgText, Triggers: []string{
			"dame noticias de", "últimas noticias", "qué hay de nuevo en", "news about",
		}},
	}
}

// Kinds returns the kinds of rules in table order.
func Kinds(rules []Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Kind)
	}
	return out
}

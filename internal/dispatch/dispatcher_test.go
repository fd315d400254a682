package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/rin/internal/intent"
	"github.com/antoniostano/rin/internal/memory"
	"github.com/antoniostano/rin/internal/tools"
)

func TestCalculate(t *testing.T) {
	d, store := newTestDispatcher(t, Tools{Calculator: fakeCalculator{}})
	ctx := context.Background()

	res := d.Execute(ctx, intent.KindCalculate, "2 + 2")
	assert.Equal(t, "I already calculated it... 4", res.Text)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.True(t, res.TriggersFollowup)

	res = d.Execute(ctx, intent.KindCalculate, "banana")
	assert.Equal(t, msgCannotCompute, res.Text)
	assert.NotContains(t, res.Text, "banana")
	assert.Equal(t, 1, store.CommandCount(intent.KindCalculate))
}

func TestMediaSearchCachesResults(t *testing.T) {
	media := &fakeMedia{items: threeVideos()}
	d, store := newTestDispatcher(t, Tools{MediaSearch: media, MediaPlayer: &fakePlayer{}})

	res := d.Execute(context.Background(), intent.KindMediaSearch, "lofi")
	require.Equal(t, "I found 3 videos. Which one do you want to play? (1-3)", res.Text)
	cached, ok := store.Transient(memory.KeyLastSearchResults)
	require.True(t, ok)
	require.Len(t, cached, 3)
}

func TestMediaSearchEmptyDoesNotTouchCache(t *testing.T) {
	d, store := newTestDispatcher(t, Tools{MediaSearch: &fakeMedia{}})
	res := d.Execute(context.Background(), intent.KindMediaSearch, "nothing at all")
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Contains(t, res.Text, "didn't find anything")
	_, ok := store.Transient(memory.KeyLastSearchResults)
	assert.False(t, ok)
}

func TestMediaSearchCapsResults(t *testing.T) {
	items := make([]tools.MediaItem, 15)
	for i := range items {
		items[i] = tools.MediaItem{Title: "v", Locator: "l"}
	}
	d, store := newTestDispatcher(t, Tools{MediaSearch: &fakeMedia{items: items}})
	d.Execute(context.Background(), intent.KindMediaSearch, "cats")
	cached, _ := store.Transient(memory.KeyLastSearchResults)
	assert.Len(t, cached, MaxMediaResults)
}

func TestMediaPlayIndexBounds(t *testing.T) {
	player := &fakePlayer{}
	d, store := newTestDispatcher(t, Tools{MediaSearch: &fakeMedia{items: threeVideos()}, MediaPlayer: player})
	ctx := context.Background()

	res := d.Execute(ctx, intent.KindMediaPlayIndex, "1")
	assert.Equal(t, msgSearchFirst, res.Text)

	d.Execute(ctx, intent.KindMediaSearch, "lofi")

	for _, bad := range []string{"4", "0", "two"} {
		res = d.Execute(ctx, intent.KindMediaPlayIndex, bad)
		assert.Equal(t, msgInvalidNumber, res.Text, "index %q", bad)
		assert.Equal(t, OutcomeInvalid, res.Outcome)
		cached, ok := store.Transient(memory.KeyLastSearchResults)
		require.True(t, ok, "cache dropped after index %q", bad)
		require.Len(t, cached, 3)
	}

	res = d.Execute(ctx, intent.KindMediaPlayIndex, "2")
	assert.Equal(t, `Playing "Second".`, res.Text)
	assert.Equal(t, []string{"https://youtube.test/2"}, player.played)
	_, ok := store.Transient(memory.KeyLastSearchResults)
	assert.False(t, ok)
	assert.Equal(t, 1, store.CommandCount(intent.KindMediaPlayIndex))
}

func TestMediaPlayIndexFailureKeepsCache(t *testing.T) {
	player := &fakePlayer{err: errors.New("browser crashed")}
	d, store := newTestDispatcher(t, Tools{MediaSearch: &fakeMedia{items: threeVideos()}, MediaPlayer: player})
	ctx := context.Background()
	d.Execute(ctx, intent.KindMediaSearch, "lofi")

	res := d.Execute(ctx, intent.KindMediaPlayIndex, "1")
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, msgPlaybackFailed, res.Text)
	_, ok := store.Transient(memory.KeyLastSearchResults)
	assert.True(t, ok)
}

func TestMusicPlayPendingWhenKindUnknown(t *testing.T) {
	music := &fakeMusic{}
	d, store := newTestDispatcher(t, Tools{Music: music})

	res := d.Execute(context.Background(), intent.KindMusicPlay, "Shape of You")
	assert.Equal(t, msgAskMusicKind, res.Text)
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Empty(t, music.calls)
	pending, ok := store.Transient(memory.KeyPendingPlaybackQuery)
	assert.True(t, ok)
	assert.Equal(t, "Shape of You", pending)
	assert.Equal(t, 0, store.CommandCount(intent.KindMusicPlay))
}

func TestMusicPlayInfersKind(t *testing.T) {
	music := &fakeMusic{}
	d, store := newTestDispatcher(t, Tools{Music: music})

	res := d.Execute(context.Background(), intent.KindMusicPlay, "el álbum de Bad Bunny")
	assert.Equal(t, `Playing album "Bad Bunny".`, res.Text)
	assert.Equal(t, []musicCall{{tools.MusicAlbum, "Bad Bunny"}}, music.calls)
	assert.Equal(t, 1, store.CommandCount(intent.KindMusicPlay))
}

func TestMusicPlayErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{tools.ErrNoActiveDevice, msgNoActiveDevice},
		{tools.ErrNotFound, "I couldn't find that playlist on Spotify."},
		{errors.New("500"), "I tried to play the playlist, but something went wrong."},
	}
	for _, tc := range cases {
		d, store := newTestDispatcher(t, Tools{Music: &fakeMusic{err: tc.err}})
		res := d.Execute(context.Background(), intent.KindMusicPlay, "playlist chill")
		assert.Equal(t, tc.want, res.Text)
		assert.Equal(t, 0, store.CommandCount(intent.KindMusicPlay))
	}
}

func TestPlayMusicResolvedKind(t *testing.T) {
	music := &fakeMusic{}
	d, _ := newTestDispatcher(t, Tools{Music: music})
	res := d.PlayMusic(context.Background(), tools.MusicTrack, "Shape of You")
	assert.Equal(t, `Playing song "Shape of You".`, res.Text)
	assert.Equal(t, []musicCall{{tools.MusicTrack, "Shape of You"}}, music.calls)
}

func TestTranslateAlwaysTemplated(t *testing.T) {
	d, _ := newTestDispatcher(t, Tools{Translator: fakeTranslator{}})
	ctx := context.Background()
	assert.Equal(t, "In English that would be: [en] hola", d.Execute(ctx, intent.KindTranslateToEnglish, "hola").Text)
	assert.Equal(t, "In Spanish that would be: [es] hello", d.Execute(ctx, intent.KindTranslateToSpanish, "hello").Text)
}

func TestAgenda(t *testing.T) {
	agenda := &fakeAgenda{}
	d, _ := newTestDispatcher(t, Tools{Agenda: agenda})
	ctx := context.Background()

	assert.Equal(t, msgAgendaEmpty, d.Execute(ctx, intent.KindAgendaList, "").Text)
	assert.Equal(t, msgAgendaAdded, d.Execute(ctx, intent.KindAgendaAdd, "dentist").Text)
	assert.Equal(t, msgAgendaAdded, d.Execute(ctx, intent.KindAgendaAdd, "gym").Text)
	assert.Equal(t, "dentist\ngym", d.Execute(ctx, intent.KindAgendaList, "").Text)

	agenda.err = errors.New("disk")
	res := d.Execute(ctx, intent.KindAgendaAdd, "x")
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestTimeWeatherAndWeb(t *testing.T) {
	d, _ := newTestDispatcher(t, Tools{Weather: fakeWeather{}, WebSearch: fakeWeb{summary: "Go is a language."}})
	ctx := context.Background()
	assert.Equal(t, "It's 09:05.", d.Execute(ctx, intent.KindTime, "").Text)
	assert.True(t, strings.HasPrefix(d.Execute(ctx, intent.KindWeather, "").Text, "The current weather is: clear sky"))
	assert.Equal(t, "This is what I found: Go is a language.", d.Execute(ctx, intent.KindWebSearch, "go").Text)
}

func TestSoftFailureForMissingCollaborators(t *testing.T) {
	d, store := newTestDispatcher(t, Tools{})
	ctx := context.Background()
	kinds := []string{
		intent.KindCalculate, intent.KindMediaSearch, intent.KindMusicPlay,
		intent.KindRecommend, intent.KindImageSearch, intent.KindJoke, intent.KindNews,
		"not_a_kind",
	}
	for _, kind := range kinds {
		res := d.Execute(ctx, kind, "x")
		assert.Equal(t, OutcomeUnavailable, res.Outcome, kind)
		assert.False(t, res.TriggersFollowup, kind)
		assert.Contains(t, softFailures, res.Text, kind)
	}
	assert.Empty(t, store.TopCommands(0))
	_, pending := store.Transient(memory.KeyPendingPlaybackQuery)
	assert.False(t, pending)
}

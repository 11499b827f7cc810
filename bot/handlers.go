package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"cinebot/models"
	"cinebot/services/lists"
	"cinebot/services/metadata"
)

// Embed colors, one per command family.
const (
	colorMovie = 0x00FF00
	colorTV    = 0x1E90FF
	colorCast  = 0xFFD700
	colorActor = 0xFF69B4
	colorList  = 0x9B59B6
)

const upstreamUnavailableText = "The movie database is not responding, try again later."

// listLookupWorkers bounds concurrent title lookups when rendering a list.
const listLookupWorkers = 4

// MetadataProvider is the query surface the handlers need from the metadata
// service.
type MetadataProvider interface {
	TitleInfo(ctx context.Context, mediaType, query string) (models.Title, error)
	Trailer(ctx context.Context, mediaType, query string) (string, error)
	Cast(ctx context.Context, mediaType, query string) ([]models.CastMember, error)
	Similar(ctx context.Context, mediaType, query string) ([]string, error)
	Search(ctx context.Context, mediaType, query string) ([]string, error)
	Trending(ctx context.Context, mediaType string) ([]string, error)
	Person(ctx context.Context, query string) (models.Person, error)
	Lookup(ctx context.Context, mediaType, query string) (models.Title, error)
}

// ListStore is the mutation surface the handlers need from the list service.
type ListStore interface {
	Add(userID string, kind models.ListKind, title string) error
	Remove(userID string, kind models.ListKind, title string) error
	Titles(userID string, kind models.ListKind) []string
}

// Handlers holds one method per command, each a pure function of
// (argument, sender) to an ordered reply sequence.
type Handlers struct {
	metadata MetadataProvider
	lists    ListStore
}

func NewHandlers(metadata MetadataProvider, lists ListStore) *Handlers {
	return &Handlers{metadata: metadata, lists: lists}
}

// Commands returns the full command table with the given prefix character.
// Precedence between overlapping prefixes is resolved by the router.
func (h *Handlers) Commands(prefix string) []Command {
	return []Command{
		{prefix + "trending movie", h.trendingMovies},
		{prefix + "trending tv", h.trendingTV},
		{prefix + "helpmovie", h.help},
		{prefix + "movie", h.movieInfo},
		{prefix + "tv", h.tvInfo},
		{prefix + "mt", h.movieTrailer},
		{prefix + "tt", h.tvTrailer},
		{prefix + "mc", h.movieCast},
		{prefix + "tc", h.tvCast},
		{prefix + "rcm", h.similarMovies},
		{prefix + "rct", h.similarTV},
		{prefix + "sm", h.searchMovies},
		{prefix + "st", h.searchTV},
		{prefix + "actor", h.actorInfo},
		{prefix + "addwatched", h.addWatched},
		{prefix + "removewatched", h.removeWatched},
		{prefix + "watched", h.viewWatched},
		{prefix + "addwatch", h.addWatchlist},
		{prefix + "removewatch", h.removeWatchlist},
		{prefix + "watchlist", h.viewWatchlist},
	}
}

// failure converts a metadata error into user-facing text. NotFound is the
// expected outcome and uses the command's fixed message; anything else is an
// upstream failure, logged and reported generically.
func failure(err error, notFoundText string) []models.Reply {
	if errors.Is(err, metadata.ErrNotFound) {
		return models.TextReply(notFoundText)
	}
	log.Printf("[bot] upstream failure: %v", err)
	return models.TextReply(upstreamUnavailableText)
}

func (h *Handlers) movieInfo(ctx context.Context, arg, _ string) []models.Reply {
	title, err := h.metadata.TitleInfo(ctx, models.MediaTypeMovie, arg)
	if err != nil {
		return failure(err, "Movie not found!")
	}
	return models.CardReply(titleCard(title, colorMovie))
}

func (h *Handlers) tvInfo(ctx context.Context, arg, _ string) []models.Reply {
	title, err := h.metadata.TitleInfo(ctx, models.MediaTypeTV, arg)
	if err != nil {
		return failure(err, "TV show not found!")
	}
	return models.CardReply(titleCard(title, colorTV))
}

func titleCard(title models.Title, color int) models.Card {
	heading := title.Name
	if title.ReleaseDate != "" {
		heading += " (" + title.ReleaseDate + ")"
	}
	genres := strings.Join(title.Genres, ", ")
	if genres == "" {
		genres = "N/A"
	}
	rating := "N/A"
	if title.Rating != nil {
		rating = strconv.FormatFloat(*title.Rating, 'f', -1, 64)
	}
	return models.Card{
		Title: heading,
		Body:  title.Overview,
		Fields: []models.Field{
			{Name: "Genres", Value: genres, Inline: true},
			{Name: "Rating", Value: rating, Inline: true},
			{Name: "Available on", Value: title.Availability, Inline: false},
		},
		ImageURL: title.PosterURL,
		Color:    color,
	}
}

func (h *Handlers) movieTrailer(ctx context.Context, arg, _ string) []models.Reply {
	return h.trailer(ctx, models.MediaTypeMovie, arg, "Movie not found!")
}

func (h *Handlers) tvTrailer(ctx context.Context, arg, _ string) []models.Reply {
	return h.trailer(ctx, models.MediaTypeTV, arg, "TV show not found!")
}

func (h *Handlers) trailer(ctx context.Context, mediaType, arg, notFoundText string) []models.Reply {
	url, err := h.metadata.Trailer(ctx, mediaType, arg)
	switch {
	case err == nil:
		return models.TextReply(url)
	case errors.Is(err, metadata.ErrNoTrailer):
		return models.TextReply("Trailer not found!")
	default:
		return failure(err, notFoundText)
	}
}

func (h *Handlers) movieCast(ctx context.Context, arg, _ string) []models.Reply {
	return h.cast(ctx, models.MediaTypeMovie, arg, "Movie not found!")
}

func (h *Handlers) tvCast(ctx context.Context, arg, _ string) []models.Reply {
	return h.cast(ctx, models.MediaTypeTV, arg, "TV show not found!")
}

// cast sends one card per member, ordering preserved, never batched.
func (h *Handlers) cast(ctx context.Context, mediaType, arg, notFoundText string) []models.Reply {
	members, err := h.metadata.Cast(ctx, mediaType, arg)
	if err != nil {
		return failure(err, notFoundText)
	}
	replies := make([]models.Reply, 0, len(members))
	for _, member := range members {
		replies = append(replies, models.Reply{Card: &models.Card{
			Title:    member.Name,
			Body:     "Role: " + member.Character,
			ImageURL: member.ProfileURL,
			Color:    colorCast,
		}})
	}
	return replies
}

func (h *Handlers) similarMovies(ctx context.Context, arg, _ string) []models.Reply {
	titles, err := h.metadata.Similar(ctx, models.MediaTypeMovie, arg)
	if err != nil {
		return failure(err, "Movie not found!")
	}
	if len(titles) == 0 {
		return models.TextReply("No similar movies found!")
	}
	return models.TextReply("Similar Movies:\n" + strings.Join(titles, ", "))
}

func (h *Handlers) similarTV(ctx context.Context, arg, _ string) []models.Reply {
	titles, err := h.metadata.Similar(ctx, models.MediaTypeTV, arg)
	if err != nil {
		return failure(err, "TV show not found!")
	}
	if len(titles) == 0 {
		return models.TextReply("No similar TV shows found!")
	}
	return models.TextReply("Similar TV Shows:\n" + strings.Join(titles, ", "))
}

func (h *Handlers) searchMovies(ctx context.Context, arg, _ string) []models.Reply {
	titles, err := h.metadata.Search(ctx, models.MediaTypeMovie, arg)
	if err != nil {
		return failure(err, "No movies found!")
	}
	return models.TextReply("🎬 Movie Search Results:\n" + strings.Join(titles, "\n"))
}

func (h *Handlers) searchTV(ctx context.Context, arg, _ string) []models.Reply {
	titles, err := h.metadata.Search(ctx, models.MediaTypeTV, arg)
	if err != nil {
		return failure(err, "No TV shows found!")
	}
	return models.TextReply("📺 TV Show Search Results:\n" + strings.Join(titles, "\n"))
}

func (h *Handlers) trendingMovies(ctx context.Context, _, _ string) []models.Reply {
	titles, err := h.metadata.Trending(ctx, models.MediaTypeMovie)
	if err != nil {
		return failure(err, "No trending movies found!")
	}
	return models.TextReply("🔥 Trending Movies:\n" + strings.Join(titles, "\n"))
}

func (h *Handlers) trendingTV(ctx context.Context, _, _ string) []models.Reply {
	titles, err := h.metadata.Trending(ctx, models.MediaTypeTV)
	if err != nil {
		return failure(err, "No trending TV shows found!")
	}
	return models.TextReply("🔥 Trending TV Shows:\n" + strings.Join(titles, "\n"))
}

func (h *Handlers) actorInfo(ctx context.Context, arg, _ string) []models.Reply {
	person, err := h.metadata.Person(ctx, arg)
	if err != nil {
		return failure(err, "Actor not found!")
	}
	knownFor := strings.Join(person.KnownFor, ", ")
	if knownFor == "" {
		knownFor = "N/A"
	}
	return models.CardReply(models.Card{
		Title:    person.Name,
		Body:     person.Biography,
		Fields:   []models.Field{{Name: "Known For", Value: knownFor, Inline: false}},
		ImageURL: person.ProfileURL,
		Color:    colorActor,
	})
}

func (h *Handlers) addWatchlist(ctx context.Context, arg, userID string) []models.Reply {
	return h.addToList(arg, userID, models.ListKindWatchlist, "watchlist")
}

func (h *Handlers) addWatched(ctx context.Context, arg, userID string) []models.Reply {
	return h.addToList(arg, userID, models.ListKindWatched, "watched list")
}

// isListValidationError reports whether a list mutation was rejected outright.
// Validation failures mutate nothing; any other error means the in-memory list
// already holds the change and only the durable write failed.
func isListValidationError(err error) bool {
	return errors.Is(err, lists.ErrUserIDRequired) ||
		errors.Is(err, lists.ErrTitleRequired) ||
		errors.Is(err, lists.ErrUnknownListKind)
}

func (h *Handlers) addToList(arg, userID string, kind models.ListKind, label string) []models.Reply {
	if arg == "" {
		return models.TextReply("Please provide a title to add.")
	}
	if err := h.lists.Add(userID, kind, arg); err != nil {
		if isListValidationError(err) {
			log.Printf("[bot] rejected add to %s for user %s: %v", kind, userID, err)
			return models.TextReply("Could not add **" + arg + "** to your " + label + ".")
		}
		log.Printf("[bot] persist %s for user %s: %v", kind, userID, err)
		return models.TextReply("Added **" + arg + "** to your " + label + ", but saving it failed. It may not survive a restart.")
	}
	return models.TextReply("Added **" + arg + "** to your " + label + ".")
}

func (h *Handlers) removeWatchlist(ctx context.Context, arg, userID string) []models.Reply {
	return h.removeFromList(arg, userID, models.ListKindWatchlist, "watchlist")
}

func (h *Handlers) removeWatched(ctx context.Context, arg, userID string) []models.Reply {
	return h.removeFromList(arg, userID, models.ListKindWatched, "watched list")
}

func (h *Handlers) removeFromList(arg, userID string, kind models.ListKind, label string) []models.Reply {
	if arg == "" {
		return models.TextReply("Please provide a title to remove.")
	}
	err := h.lists.Remove(userID, kind, arg)
	switch {
	case err == nil:
		return models.TextReply("Removed **" + arg + "** from your " + label + ".")
	case errors.Is(err, lists.ErrNotInList):
		return models.TextReply("**" + arg + "** is not in your " + label + ".")
	case isListValidationError(err):
		log.Printf("[bot] rejected remove from %s for user %s: %v", kind, userID, err)
		return models.TextReply("Could not remove **" + arg + "** from your " + label + ".")
	default:
		log.Printf("[bot] persist %s for user %s: %v", kind, userID, err)
		return models.TextReply("Removed **" + arg + "** from your " + label + ", but saving the change failed.")
	}
}

func (h *Handlers) viewWatchlist(ctx context.Context, _, userID string) []models.Reply {
	return h.renderList(ctx, userID, models.ListKindWatchlist, "📋 Your Watchlist", "Your watchlist is empty.")
}

func (h *Handlers) viewWatched(ctx context.Context, _, userID string) []models.Reply {
	return h.renderList(ctx, userID, models.ListKindWatched, "✅ Your Watched List", "Your watched list is empty.")
}

// renderList re-resolves each stored title to recover a poster and canonical
// name. Lookups for different titles run concurrently with bounded workers;
// the stored order is preserved. A failed lookup falls back to the raw stored
// string with a marker, never dropping the entry.
func (h *Handlers) renderList(ctx context.Context, userID string, kind models.ListKind, heading, emptyText string) []models.Reply {
	titles := h.lists.Titles(userID, kind)
	if len(titles) == 0 {
		return models.TextReply(emptyText)
	}

	cards := make([]models.Card, len(titles))
	p := pool.New().WithMaxGoroutines(listLookupWorkers)
	for i, stored := range titles {
		p.Go(func() {
			resolved, err := h.metadata.Lookup(ctx, models.MediaTypeMovie, stored)
			if err != nil {
				if !errors.Is(err, metadata.ErrNotFound) {
					log.Printf("[bot] list lookup %q: %v", stored, err)
				}
				cards[i] = models.Card{Title: stored + " (not found)", Color: colorList}
				return
			}
			card := models.Card{Title: resolved.Name, ImageURL: resolved.PosterURL, Color: colorList}
			if resolved.ReleaseDate != "" {
				card.Title += " (" + resolved.ReleaseDate + ")"
			}
			cards[i] = card
		})
	}
	p.Wait()

	replies := make([]models.Reply, 0, len(cards)+1)
	replies = append(replies, models.Reply{Text: heading})
	for i := range cards {
		replies = append(replies, models.Reply{Card: &cards[i]})
	}
	return replies
}

func (h *Handlers) help(_ context.Context, _, _ string) []models.Reply {
	return models.TextReply(helpText)
}

const helpText = `🎥 **Movie & TV Bot Commands**

**🎬 Movies**
- ` + "`!movie <name>`" + ` — Movie info
- ` + "`!mt <name>`" + ` — Movie trailer
- ` + "`!mc <name>`" + ` — Movie cast
- ` + "`!rcm <name>`" + ` — Similar movies
- ` + "`!sm <query>`" + ` — Search movies

**📺 TV Shows**
- ` + "`!tv <name>`" + ` — TV show info
- ` + "`!tt <name>`" + ` — TV show trailer
- ` + "`!tc <name>`" + ` — TV cast
- ` + "`!rct <name>`" + ` — Similar TV shows
- ` + "`!st <query>`" + ` — Search TV shows

**🔥 Trending**
- ` + "`!trending movie`" + ` — Trending movies
- ` + "`!trending tv`" + ` — Trending TV shows

**🎭 People**
- ` + "`!actor <name>`" + ` — Actor bio

**📋 Lists**
- ` + "`!addwatch <title>`" + ` / ` + "`!removewatch <title>`" + ` / ` + "`!watchlist`" + `
- ` + "`!addwatched <title>`" + ` / ` + "`!removewatched <title>`" + ` / ` + "`!watched`" + `

✅ Use exact names for best results!`

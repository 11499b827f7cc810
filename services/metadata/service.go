package metadata

import (
	"context"
	"errors"
	"strings"

	"cinebot/models"
)

var (
	// ErrNotFound means the upstream search yielded zero results. It is the
	// expected outcome for unknown titles and is never logged as an error.
	ErrNotFound = errors.New("no results")
	// ErrNoTrailer means the title exists but has no YouTube trailer video.
	ErrNoTrailer = errors.New("no trailer")
)

const (
	// Biographies are truncated to this many runes with a trailing ellipsis.
	bioDisplayLimit = 500

	noStreamingInfo = "No streaming info"
	unknownRole     = "Unknown Role"
)

// Service exposes normalized TMDB lookups to the command handlers. It owns no
// state beyond the configured client; every call is a fresh request/response.
type Service struct {
	tmdb   *tmdbClient
	region string
}

// NewService creates a metadata service querying TMDB with the given API key.
// region selects the country used for streaming availability.
func NewService(tmdbAPIKey, language, region string) *Service {
	return &Service{
		tmdb:   newTMDBClient(tmdbAPIKey, language, nil),
		region: strings.ToUpper(strings.TrimSpace(region)),
	}
}

// firstHit runs a title search and returns the first-ranked result. A blank
// query or an empty result list yields ErrNotFound.
func (s *Service) firstHit(ctx context.Context, mediaType, query string) (tmdbSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return tmdbSearchResult{}, ErrNotFound
	}
	results, err := s.tmdb.searchTitles(ctx, mediaType, query)
	if err != nil {
		return tmdbSearchResult{}, err
	}
	if len(results) == 0 {
		return tmdbSearchResult{}, ErrNotFound
	}
	return results[0], nil
}

// TitleInfo resolves a title query into a fully populated summary: first
// search hit, then details (genres, rating), then streaming availability.
// The three calls are causally dependent and run in that order.
func (s *Service) TitleInfo(ctx context.Context, mediaType, query string) (models.Title, error) {
	hit, err := s.firstHit(ctx, mediaType, query)
	if err != nil {
		return models.Title{}, err
	}

	title := models.Title{
		TMDBID:      hit.ID,
		MediaType:   mediaType,
		Name:        hit.displayName(),
		Overview:    hit.Overview,
		ReleaseDate: hit.date(),
		PosterURL:   buildTMDBImage(hit.PosterPath, tmdbPosterSize),
	}

	details, err := s.tmdb.details(ctx, mediaType, hit.ID)
	if err != nil {
		return models.Title{}, err
	}
	for _, g := range details.Genres {
		if g.Name != "" {
			title.Genres = append(title.Genres, g.Name)
		}
	}
	title.Rating = details.VoteAverage

	availability, err := s.Providers(ctx, mediaType, hit.ID)
	if err != nil {
		return models.Title{}, err
	}
	title.Availability = availability

	return title, nil
}

// Providers returns the comma-joined flat-rate streaming providers for the
// configured region, or a fixed fallback string when none are listed.
func (s *Service) Providers(ctx context.Context, mediaType string, id int64) (string, error) {
	regions, err := s.tmdb.watchProviders(ctx, mediaType, id)
	if err != nil {
		return "", err
	}
	region, ok := regions[s.region]
	if !ok || len(region.Flatrate) == 0 {
		return noStreamingInfo, nil
	}
	names := make([]string, 0, len(region.Flatrate))
	for _, p := range region.Flatrate {
		names = append(names, p.ProviderName)
	}
	return strings.Join(names, ", "), nil
}

// Trailer returns the watch URL of the first video that is both a trailer
// and hosted on YouTube, in upstream order. Items matching only one of the
// two filters are skipped.
func (s *Service) Trailer(ctx context.Context, mediaType, query string) (string, error) {
	hit, err := s.firstHit(ctx, mediaType, query)
	if err != nil {
		return "", err
	}
	videos, err := s.tmdb.videos(ctx, mediaType, hit.ID)
	if err != nil {
		return "", err
	}
	for _, v := range videos {
		if v.Type == "Trailer" && v.Site == "YouTube" {
			return "https://www.youtube.com/watch?v=" + v.Key, nil
		}
	}
	return "", ErrNoTrailer
}

// Cast returns up to five top-billed cast entries in upstream order.
func (s *Service) Cast(ctx context.Context, mediaType, query string) ([]models.CastMember, error) {
	hit, err := s.firstHit(ctx, mediaType, query)
	if err != nil {
		return nil, err
	}
	cast, err := s.tmdb.credits(ctx, mediaType, hit.ID)
	if err != nil {
		return nil, err
	}
	if len(cast) > 5 {
		cast = cast[:5]
	}
	members := make([]models.CastMember, 0, len(cast))
	for _, entry := range cast {
		member := models.CastMember{
			Name:       entry.Name,
			Character:  entry.Character,
			ProfileURL: buildTMDBImage(entry.ProfilePath, tmdbProfileSize),
		}
		if member.Character == "" {
			member.Character = unknownRole
		}
		if member.ProfileURL == "" {
			member.ProfileURL = profilePlaceholderURL
		}
		members = append(members, member)
	}
	return members, nil
}

// Similar returns up to five titles similar to the first search hit.
func (s *Service) Similar(ctx context.Context, mediaType, query string) ([]string, error) {
	hit, err := s.firstHit(ctx, mediaType, query)
	if err != nil {
		return nil, err
	}
	results, err := s.tmdb.similar(ctx, mediaType, hit.ID)
	if err != nil {
		return nil, err
	}
	return topNames(results), nil
}

// Search returns up to five title names matching the query.
func (s *Service) Search(ctx context.Context, mediaType, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrNotFound
	}
	results, err := s.tmdb.searchTitles(ctx, mediaType, query)
	if err != nil {
		return nil, err
	}
	names := topNames(results)
	if len(names) == 0 {
		return nil, ErrNotFound
	}
	return names, nil
}

// Trending returns up to five trending titles for the day window.
func (s *Service) Trending(ctx context.Context, mediaType string) ([]string, error) {
	results, err := s.tmdb.trending(ctx, mediaType)
	if err != nil {
		return nil, err
	}
	names := topNames(results)
	if len(names) == 0 {
		return nil, ErrNotFound
	}
	return names, nil
}

// Person returns the first-ranked person for the query with a display-bounded
// biography and the joined "known for" titles.
func (s *Service) Person(ctx context.Context, query string) (models.Person, error) {
	if strings.TrimSpace(query) == "" {
		return models.Person{}, ErrNotFound
	}
	results, err := s.tmdb.searchPerson(ctx, query)
	if err != nil {
		return models.Person{}, err
	}
	if len(results) == 0 {
		return models.Person{}, ErrNotFound
	}

	hit := results[0]
	person := models.Person{
		TMDBID:     hit.ID,
		Name:       hit.Name,
		Biography:  truncateBio(hit.Biography),
		ProfileURL: buildTMDBImage(hit.ProfilePath, tmdbPosterSize),
	}
	for _, known := range hit.KnownFor {
		name := known.Title
		if name == "" {
			name = known.Name
		}
		if name != "" {
			person.KnownFor = append(person.KnownFor, name)
		}
	}
	return person, nil
}

// Lookup resolves a stored list title into its canonical name and poster.
// Only the search call is made; no detail enrichment.
func (s *Service) Lookup(ctx context.Context, mediaType, query string) (models.Title, error) {
	hit, err := s.firstHit(ctx, mediaType, query)
	if err != nil {
		return models.Title{}, err
	}
	return models.Title{
		TMDBID:      hit.ID,
		MediaType:   mediaType,
		Name:        hit.displayName(),
		ReleaseDate: hit.date(),
		PosterURL:   buildTMDBImage(hit.PosterPath, tmdbPosterSize),
	}, nil
}

func topNames(results []tmdbSearchResult) []string {
	if len(results) > 5 {
		results = results[:5]
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		if name := r.displayName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func truncateBio(bio string) string {
	if strings.TrimSpace(bio) == "" {
		return "No bio available."
	}
	runes := []rune(bio)
	if len(runes) <= bioDisplayLimit {
		return bio
	}
	return string(runes[:bioDisplayLimit]) + "..."
}

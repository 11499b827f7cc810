package models

// Media types as TMDB names them.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// Title is the normalized result of a title lookup. It is built fresh per
// query and discarded once the reply has been sent.
type Title struct {
	TMDBID       int64    `json:"tmdbId"`
	MediaType    string   `json:"mediaType"` // movie | tv
	Name         string   `json:"name"`
	Overview     string   `json:"overview"`
	ReleaseDate  string   `json:"releaseDate,omitempty"`
	PosterURL    string   `json:"posterUrl,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Rating       *float64 `json:"rating,omitempty"` // nil when the upstream payload omits it
	Availability string   `json:"availability,omitempty"` // comma-joined streaming providers
}

// CastMember is a single top-billed cast entry.
type CastMember struct {
	Name       string `json:"name"`
	Character  string `json:"character"`
	ProfileURL string `json:"profileUrl"`
}

// Person is a normalized actor/person record.
type Person struct {
	TMDBID     int64    `json:"tmdbId"`
	Name       string   `json:"name"`
	Biography  string   `json:"biography,omitempty"`
	ProfileURL string   `json:"profileUrl,omitempty"`
	KnownFor   []string `json:"knownFor,omitempty"`
}

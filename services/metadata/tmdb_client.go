package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// Image sizes match what the bot renders: posters in full-width embeds,
	// cast portraits in small per-actor cards.
	tmdbPosterSize  = "w500"
	tmdbProfileSize = "w300"

	// Shown for cast members without a profile photo.
	profilePlaceholderURL = "https://upload.wikimedia.org/wikipedia/commons/8/89/Portrait_Placeholder.png"
)

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client
	limiter  *rate.Limiter

	// Initial retry backoff, doubled per attempt. Tests set this to zero.
	retryBackoff time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:   strings.TrimSpace(apiKey),
		language: language,
		httpc:    httpc,
		// TMDB allows ~50 req/s; stay well under it.
		limiter:      rate.NewLimiter(rate.Every(25*time.Millisecond), 5),
		retryBackoff: 300 * time.Millisecond,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// doGET performs a rate-limited HTTP GET against a TMDB endpoint and decodes
// the JSON body into v. Transport failures, 429s, and server errors are
// retried with exponential backoff before surfacing.
func (c *tmdbClient) doGET(ctx context.Context, segments []string, query url.Values, v any) error {
	if !c.isConfigured() {
		return errors.New("tmdb api key not configured")
	}

	endpoint, err := url.JoinPath(tmdbBaseURL, segments...)
	if err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if lang := strings.TrimSpace(c.language); lang != "" {
		query.Set("language", lang)
	}
	endpoint = endpoint + "?" + query.Encode()

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt < 3; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			log.Printf("[tmdb] http error (attempt %d/3): %v", attempt+1, err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			log.Printf("[tmdb] rate limited or server error (attempt %d/3): status %d", attempt+1, resp.StatusCode)
			lastErr = fmt.Errorf("tmdb request failed: %s", resp.Status)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return fmt.Errorf("tmdb request failed: %s", resp.Status)
		}

		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode tmdb response: %w", err)
		}
		return nil
	}

	return lastErr
}

type tmdbSearchResponse struct {
	Results []tmdbSearchResult `json:"results"`
}

type tmdbSearchResult struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	PosterPath   string `json:"poster_path"`
}

// displayName returns the movie title or series name, whichever is present.
func (r tmdbSearchResult) displayName() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

func (r tmdbSearchResult) date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

type tmdbDetailsResponse struct {
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	// Pointer so a rating of 0 stays distinguishable from a missing field.
	VoteAverage *float64 `json:"vote_average"`
}

type tmdbVideosResponse struct {
	Results []tmdbVideo `json:"results"`
}

type tmdbVideo struct {
	Key  string `json:"key"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type tmdbCreditsResponse struct {
	Cast []tmdbCastEntry `json:"cast"`
}

type tmdbCastEntry struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
}

type tmdbProvidersResponse struct {
	Results map[string]tmdbProviderRegion `json:"results"`
}

type tmdbProviderRegion struct {
	Flatrate []struct {
		ProviderName string `json:"provider_name"`
	} `json:"flatrate"`
}

type tmdbPersonSearchResponse struct {
	Results []tmdbPersonResult `json:"results"`
}

type tmdbPersonResult struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Biography   string `json:"biography"`
	ProfilePath string `json:"profile_path"`
	KnownFor    []struct {
		Title string `json:"title"`
		Name  string `json:"name"`
	} `json:"known_for"`
}

func (c *tmdbClient) searchTitles(ctx context.Context, mediaType, query string) ([]tmdbSearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	var payload tmdbSearchResponse
	if err := c.doGET(ctx, []string{"search", mediaType}, q, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *tmdbClient) searchPerson(ctx context.Context, query string) ([]tmdbPersonResult, error) {
	q := url.Values{}
	q.Set("query", query)
	var payload tmdbPersonSearchResponse
	if err := c.doGET(ctx, []string{"search", "person"}, q, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *tmdbClient) details(ctx context.Context, mediaType string, id int64) (tmdbDetailsResponse, error) {
	var payload tmdbDetailsResponse
	err := c.doGET(ctx, []string{mediaType, fmt.Sprintf("%d", id)}, nil, &payload)
	return payload, err
}

func (c *tmdbClient) videos(ctx context.Context, mediaType string, id int64) ([]tmdbVideo, error) {
	var payload tmdbVideosResponse
	if err := c.doGET(ctx, []string{mediaType, fmt.Sprintf("%d", id), "videos"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *tmdbClient) credits(ctx context.Context, mediaType string, id int64) ([]tmdbCastEntry, error) {
	var payload tmdbCreditsResponse
	if err := c.doGET(ctx, []string{mediaType, fmt.Sprintf("%d", id), "credits"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Cast, nil
}

func (c *tmdbClient) similar(ctx context.Context, mediaType string, id int64) ([]tmdbSearchResult, error) {
	var payload tmdbSearchResponse
	if err := c.doGET(ctx, []string{mediaType, fmt.Sprintf("%d", id), "similar"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *tmdbClient) trending(ctx context.Context, mediaType string) ([]tmdbSearchResult, error) {
	var payload tmdbSearchResponse
	if err := c.doGET(ctx, []string{"trending", mediaType, "day"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *tmdbClient) watchProviders(ctx context.Context, mediaType string, id int64) (map[string]tmdbProviderRegion, error) {
	var payload tmdbProvidersResponse
	if err := c.doGET(ctx, []string{mediaType, fmt.Sprintf("%d", id), "watch", "providers"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func buildTMDBImage(imagePath, size string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, path.Join(size, strings.TrimPrefix(trimmed, "/")))
}

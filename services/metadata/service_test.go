package metadata

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"golang.org/x/time/rate"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newTestService(region string, transport roundTripFunc) *Service {
	client := newTMDBClient("test-key", "en-US", &http.Client{Transport: transport})
	client.limiter = rate.NewLimiter(rate.Inf, 1)
	client.retryBackoff = 0
	return &Service{tmdb: client, region: region}
}

func TestTitleInfoMergesDetailsAndProviders(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)

	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		calls = append(calls, req.URL.Path)
		mu.Unlock()

		switch req.URL.Path {
		case "/3/search/movie":
			if got := req.URL.Query().Get("query"); got != "Dune" {
				t.Errorf("expected query 'Dune', got %q", got)
			}
			return jsonResponse(http.StatusOK, `{"results":[{"id":438631,"title":"Dune","overview":"Desert planet.","release_date":"2021-10-22","poster_path":"/dune.jpg"}]}`), nil
		case "/3/movie/438631":
			return jsonResponse(http.StatusOK, `{"genres":[{"name":"Science Fiction"},{"name":"Adventure"}],"vote_average":7.7}`), nil
		case "/3/movie/438631/watch/providers":
			return jsonResponse(http.StatusOK, `{"results":{"IN":{"flatrate":[{"provider_name":"Netflix"},{"provider_name":"JioCinema"}]}}}`), nil
		}
		t.Errorf("unexpected request: %s", req.URL.Path)
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})

	title, err := svc.TitleInfo(context.Background(), "movie", "Dune")
	if err != nil {
		t.Fatalf("TitleInfo failed: %v", err)
	}

	if title.Name != "Dune" {
		t.Errorf("expected name 'Dune', got %q", title.Name)
	}
	if title.ReleaseDate != "2021-10-22" {
		t.Errorf("expected release date, got %q", title.ReleaseDate)
	}
	if title.PosterURL != "https://image.tmdb.org/t/p/w500/dune.jpg" {
		t.Errorf("unexpected poster URL %q", title.PosterURL)
	}
	if got := strings.Join(title.Genres, ", "); got != "Science Fiction, Adventure" {
		t.Errorf("unexpected genres %q", got)
	}
	if title.Rating == nil || *title.Rating != 7.7 {
		t.Errorf("expected rating 7.7, got %v", title.Rating)
	}
	if title.Availability != "Netflix, JioCinema" {
		t.Errorf("unexpected availability %q", title.Availability)
	}

	// Dependent calls must run search -> details -> providers.
	want := []string{"/3/search/movie", "/3/movie/438631", "/3/movie/438631/watch/providers"}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
}

func TestTitleInfoZeroRatingIsDistinctFromMissing(t *testing.T) {
	transport := func(detailsBody string) func(req *http.Request) (*http.Response, error) {
		return func(req *http.Request) (*http.Response, error) {
			switch req.URL.Path {
			case "/3/search/movie":
				return jsonResponse(http.StatusOK, `{"results":[{"id":1,"title":"Obscure","release_date":"1999-01-01"}]}`), nil
			case "/3/movie/1":
				return jsonResponse(http.StatusOK, detailsBody), nil
			case "/3/movie/1/watch/providers":
				return jsonResponse(http.StatusOK, `{"results":{}}`), nil
			}
			t.Errorf("unexpected request: %s", req.URL.Path)
			return jsonResponse(http.StatusNotFound, `{}`), nil
		}
	}

	svc := newTestService("IN", transport(`{"vote_average":0}`))
	title, err := svc.TitleInfo(context.Background(), "movie", "Obscure")
	if err != nil {
		t.Fatalf("TitleInfo failed: %v", err)
	}
	if title.Rating == nil || *title.Rating != 0 {
		t.Errorf("expected an explicit zero rating, got %v", title.Rating)
	}

	svc = newTestService("IN", transport(`{"genres":[]}`))
	title, err = svc.TitleInfo(context.Background(), "movie", "Obscure")
	if err != nil {
		t.Fatalf("TitleInfo failed: %v", err)
	}
	if title.Rating != nil {
		t.Errorf("expected no rating when the payload omits it, got %v", *title.Rating)
	}
}

func TestTitleInfoEmptyResultsIsNotFound(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results":[]}`), nil
	})

	_, err := svc.TitleInfo(context.Background(), "movie", "no such movie")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTitleInfoBlankQueryIsNotFoundWithoutUpstreamCall(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		t.Errorf("unexpected upstream request: %s", req.URL.Path)
		return jsonResponse(http.StatusOK, `{"results":[]}`), nil
	})

	_, err := svc.TitleInfo(context.Background(), "movie", "   ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpstreamFailureIsNotConflatedWithNotFound(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `{}`), nil
	})

	_, err := svc.Search(context.Background(), "movie", "Dune")
	if err == nil {
		t.Fatal("expected error from 500 response")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("server error must not surface as ErrNotFound: %v", err)
	}
}

func TestMalformedPayloadIsUpstreamError(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results": not json`), nil
	})

	_, err := svc.Search(context.Background(), "movie", "Dune")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("decode error must not surface as ErrNotFound: %v", err)
	}
}

func TestProvidersRegionAbsentFallsBack(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results":{"US":{"flatrate":[{"provider_name":"Hulu"}]}}}`), nil
	})

	got, err := svc.Providers(context.Background(), "movie", 42)
	if err != nil {
		t.Fatalf("Providers failed: %v", err)
	}
	if got != "No streaming info" {
		t.Fatalf("expected fallback string, got %q", got)
	}
}

func TestProvidersEmptyFlatrateFallsBack(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results":{"IN":{"flatrate":[]}}}`), nil
	})

	got, err := svc.Providers(context.Background(), "movie", 42)
	if err != nil {
		t.Fatalf("Providers failed: %v", err)
	}
	if got != "No streaming info" {
		t.Fatalf("expected fallback string, got %q", got)
	}
}

func TestTrailerRequiresBothFilters(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/3/search/movie":
			return jsonResponse(http.StatusOK, `{"results":[{"id":603,"title":"The Matrix"}]}`), nil
		case "/3/movie/603/videos":
			// Items matching only one of the two filters must be skipped.
			return jsonResponse(http.StatusOK, `{"results":[
				{"key":"aaa","site":"YouTube","type":"Teaser"},
				{"key":"bbb","site":"Vimeo","type":"Trailer"},
				{"key":"ccc","site":"YouTube","type":"Trailer"},
				{"key":"ddd","site":"YouTube","type":"Trailer"}
			]}`), nil
		}
		t.Errorf("unexpected request: %s", req.URL.Path)
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})

	url, err := svc.Trailer(context.Background(), "movie", "The Matrix")
	if err != nil {
		t.Fatalf("Trailer failed: %v", err)
	}
	if url != "https://www.youtube.com/watch?v=ccc" {
		t.Fatalf("expected first matching trailer, got %q", url)
	}
}

func TestTrailerMissingIsDistinctFromTitleMissing(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/3/search/movie":
			return jsonResponse(http.StatusOK, `{"results":[{"id":603,"title":"The Matrix"}]}`), nil
		case "/3/movie/603/videos":
			return jsonResponse(http.StatusOK, `{"results":[{"key":"aaa","site":"Vimeo","type":"Trailer"}]}`), nil
		}
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})

	_, err := svc.Trailer(context.Background(), "movie", "The Matrix")
	if !errors.Is(err, ErrNoTrailer) {
		t.Fatalf("expected ErrNoTrailer, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("missing trailer must not be reported as title not found")
	}
}

func TestCastDefaultsAndBound(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/3/search/tv":
			return jsonResponse(http.StatusOK, `{"results":[{"id":1399,"name":"Game of Thrones"}]}`), nil
		case "/3/tv/1399/credits":
			return jsonResponse(http.StatusOK, `{"cast":[
				{"name":"A","character":"Hero","profile_path":"/a.jpg"},
				{"name":"B","character":"","profile_path":null},
				{"name":"C","character":"Sidekick","profile_path":"/c.jpg"},
				{"name":"D","character":"Villain","profile_path":"/d.jpg"},
				{"name":"E","character":"Extra","profile_path":"/e.jpg"},
				{"name":"F","character":"Sixth","profile_path":"/f.jpg"}
			]}`), nil
		}
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})

	cast, err := svc.Cast(context.Background(), "tv", "Game of Thrones")
	if err != nil {
		t.Fatalf("Cast failed: %v", err)
	}
	if len(cast) != 5 {
		t.Fatalf("expected cast bounded to 5, got %d", len(cast))
	}
	if cast[0].ProfileURL != "https://image.tmdb.org/t/p/w300/a.jpg" {
		t.Errorf("unexpected profile URL %q", cast[0].ProfileURL)
	}
	if cast[1].Character != "Unknown Role" {
		t.Errorf("expected character fallback, got %q", cast[1].Character)
	}
	if cast[1].ProfileURL != profilePlaceholderURL {
		t.Errorf("expected placeholder profile, got %q", cast[1].ProfileURL)
	}
}

func TestPersonBiographyTruncation(t *testing.T) {
	longBio := strings.Repeat("x", 600)
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results":[{"id":1,"name":"Keanu Reeves","biography":"`+longBio+`","profile_path":"/keanu.jpg","known_for":[{"title":"The Matrix"},{"name":"John Wick"},{"title":""}]}]}`), nil
	})

	person, err := svc.Person(context.Background(), "Keanu Reeves")
	if err != nil {
		t.Fatalf("Person failed: %v", err)
	}
	if len([]rune(person.Biography)) != 503 {
		t.Fatalf("expected 500 runes plus ellipsis, got %d", len([]rune(person.Biography)))
	}
	if !strings.HasSuffix(person.Biography, "...") {
		t.Fatalf("expected ellipsis marker, got %q", person.Biography[len(person.Biography)-10:])
	}
	if got := strings.Join(person.KnownFor, ", "); got != "The Matrix, John Wick" {
		t.Errorf("unexpected known-for %q", got)
	}
}

func TestPersonEmptyBiographyUsesFallback(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"results":[{"id":2,"name":"Unknown Actor"}]}`), nil
	})

	person, err := svc.Person(context.Background(), "Unknown Actor")
	if err != nil {
		t.Fatalf("Person failed: %v", err)
	}
	if person.Biography != "No bio available." {
		t.Fatalf("expected bio fallback, got %q", person.Biography)
	}
}

func TestSearchAndTrendingBoundToFive(t *testing.T) {
	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		body := `{"results":[
			{"id":1,"title":"One"},{"id":2,"title":"Two"},{"id":3,"title":"Three"},
			{"id":4,"title":"Four"},{"id":5,"title":"Five"},{"id":6,"title":"Six"}
		]}`
		return jsonResponse(http.StatusOK, body), nil
	})

	titles, err := svc.Search(context.Background(), "movie", "o")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(titles) != 5 {
		t.Fatalf("expected 5 search results, got %d", len(titles))
	}

	trending, err := svc.Trending(context.Background(), "movie")
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if len(trending) != 5 || trending[0] != "One" {
		t.Fatalf("unexpected trending result %v", trending)
	}
}

func TestDoGETRetriesTransientServerErrors(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
	)

	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			return jsonResponse(http.StatusServiceUnavailable, `{}`), nil
		}
		return jsonResponse(http.StatusOK, `{"results":[{"id":1,"title":"Recovered"}]}`), nil
	})

	titles, err := svc.Search(context.Background(), "movie", "Recovered")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(titles) != 1 || titles[0] != "Recovered" {
		t.Fatalf("unexpected result %v", titles)
	}
}

func TestDoGETDoesNotRetryClientErrors(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
	)

	svc := newTestService("IN", func(req *http.Request) (*http.Response, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return jsonResponse(http.StatusUnauthorized, `{}`), nil
	})

	_, err := svc.Search(context.Background(), "movie", "whatever")
	if err == nil {
		t.Fatal("expected error from 401 response")
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt for a client error, got %d", attempts)
	}
}

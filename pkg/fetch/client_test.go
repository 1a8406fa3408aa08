package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/mtg-card-harvester/internal/domain"
	"github.com/samvad-hq/mtg-card-harvester/pkg/endpoint"
	fetcherrors "github.com/samvad-hq/mtg-card-harvester/pkg/errors"
	"github.com/samvad-hq/mtg-card-harvester/pkg/httpclient"
)

type stubResponse struct {
	body       []byte
	statusCode int
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.statusCode }

// stubHTTPClient records requested URLs and returns a canned response.
type stubHTTPClient struct {
	mu    sync.Mutex
	calls []string
	resp  stubResponse
	err   error
}

func (s *stubHTTPClient) Get(_ context.Context, url string, _ map[string]string) (httpclient.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

// recordingLogger keeps the messages logged per level.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	debug []string
}

func (r *recordingLogger) InfoObj(string, string, interface{}) {}
func (r *recordingLogger) DebugObj(msg, _ string, _ interface{}) {
	r.mu.Lock()
	r.debug = append(r.debug, msg)
	r.mu.Unlock()
}
func (r *recordingLogger) WarnObj(msg, _ string, _ interface{}) {
	r.mu.Lock()
	r.warns = append(r.warns, msg)
	r.mu.Unlock()
}
func (r *recordingLogger) ErrorObj(string, string, interface{}) {}

func cardsEndpoint(query ...endpoint.QueryParam) endpoint.Endpoint {
	return endpoint.New("api.example.test", endpoint.PathCards, query...)
}

func TestFetchRawPassesBodyThroughForEverySuccessStatus(t *testing.T) {
	body := []byte("\x00 not json at all \xff")
	for status := 200; status <= 299; status++ {
		stub := &stubHTTPClient{resp: stubResponse{body: body, statusCode: status}}
		got, err := NewClient(cardsEndpoint(), stub, nil).FetchRaw(context.Background())
		require.NoError(t, err, "status %d", status)
		require.Equal(t, body, got, "status %d", status)
	}
}

func TestFetchRawRejectsNonSuccessStatus(t *testing.T) {
	for _, status := range []int{100, 101, 199, 300, 301, 304, 400, 401, 404, 429, 500, 503} {
		stub := &stubHTTPClient{resp: stubResponse{body: []byte(`{"cards":[]}`), statusCode: status}}
		got, err := NewClient(cardsEndpoint(), stub, nil).FetchRaw(context.Background())

		require.Error(t, err, "status %d", status)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, fetcherrors.ErrInvalidResponse)

		var fe *fetcherrors.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, status, fe.StatusCode)
		assert.Equal(t, "https://api.example.test/v1/cards", fe.URL)
	}
}

func TestFetchUsesBuiltURLVerbatim(t *testing.T) {
	stub := &stubHTTPClient{resp: stubResponse{body: []byte(`{"cards":[]}`), statusCode: http.StatusOK}}
	client := NewClient(cardsEndpoint(endpoint.QueryParam{Name: "name", Value: "Opt|Black Lotus"}), stub, nil)

	_, err := client.FetchCards(context.Background())
	require.NoError(t, err)
	require.Len(t, stub.calls, 1)
	assert.Equal(t, "https://api.example.test/v1/cards?name=Opt%7CBlack%20Lotus", stub.calls[0])
}

func TestFetchInvalidURLSkipsNetwork(t *testing.T) {
	stub := &stubHTTPClient{resp: stubResponse{statusCode: http.StatusOK}}
	log := &recordingLogger{}
	client := NewClient(endpoint.New("", endpoint.PathCards), stub, log)

	_, err := client.FetchCards(context.Background())
	assert.ErrorIs(t, err, fetcherrors.ErrInvalidURL)
	assert.Empty(t, stub.calls)
	assert.Len(t, log.warns, 1)
}

func TestFetch404IsInvalidResponseNotDecoding(t *testing.T) {
	stub := &stubHTTPClient{resp: stubResponse{body: []byte(`{"error":"Not Found","status":404}`), statusCode: http.StatusNotFound}}
	client := NewClient(endpoint.New("api.example.test", endpoint.PathUnreachable), stub, nil)

	resp, err := client.FetchCards(context.Background())
	kind, ok := fetcherrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fetcherrors.KindInvalidResponse, kind)
	assert.NotErrorIs(t, err, fetcherrors.ErrDecodingFailed)
	assert.Empty(t, resp.Cards)
}

func TestFetchDecodesOptionalFieldsAsUnset(t *testing.T) {
	stub := &stubHTTPClient{resp: stubResponse{
		body:       []byte(`{"cards":[{"name":"Opt","setName":"Masters 25"}]}`),
		statusCode: http.StatusOK,
	}}

	resp, err := NewClient(cardsEndpoint(), stub, nil).FetchCards(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Cards, 1)

	card := resp.Cards[0]
	assert.Equal(t, "Opt", card.Name)
	assert.Equal(t, "Masters 25", card.SetName)
	assert.Nil(t, card.ConvertedManaCost)
	assert.Nil(t, card.CollectorNumber)
	assert.Nil(t, card.Power)
	assert.Nil(t, card.Artist)
}

func TestFetchDecodingFailures(t *testing.T) {
	bodies := map[string]string{
		"missing name": `{"cards":[{"setName":"X"}]}`,
		"not json":     `<html><title>oops</title></html>`,
		"wrong shape":  `{"cards":{"name":"Opt"}}`,
		"empty body":   ``,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			stub := &stubHTTPClient{resp: stubResponse{body: []byte(body), statusCode: http.StatusOK}}
			log := &recordingLogger{}

			resp, err := NewClient(cardsEndpoint(), stub, log).FetchCards(context.Background())
			assert.ErrorIs(t, err, fetcherrors.ErrDecodingFailed)
			assert.Equal(t, domain.CardsResponse{}, resp)
			if body != "" {
				assert.NotContains(t, err.Error(), body)
			}
			assert.Contains(t, log.debug, "response body rejected by decoder")
		})
	}
}

func TestFetchGenericTarget(t *testing.T) {
	type setSummary struct {
		Sets []struct {
			Code string `json:"code"`
		} `json:"sets"`
	}
	stub := &stubHTTPClient{resp: stubResponse{body: []byte(`{"sets":[{"code":"A25"}]}`), statusCode: http.StatusOK}}

	got, err := Fetch[setSummary](context.Background(), NewClient(cardsEndpoint(), stub, nil))
	require.NoError(t, err)
	require.Len(t, got.Sets, 1)
	assert.Equal(t, "A25", got.Sets[0].Code)
}

func TestFetchPropagatesTransportErrorsUnclassified(t *testing.T) {
	stub := &stubHTTPClient{err: context.Canceled}

	_, err := NewClient(cardsEndpoint(), stub, nil).FetchRaw(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	_, classified := fetcherrors.KindOf(err)
	assert.False(t, classified)
}

func TestFetchAgainstTLSServer(t *testing.T) {
	var gotQuery string
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/cards":
			gotQuery = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"cards":[{"name":"Opt","setName":"Ixalan","cmc":1,"number":"65","artist":"Tyler Jacobson"},{"name":"Black Lotus","setName":"Limited Edition Alpha","cmc":0}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "https://")
	transport := httpclient.NewRestyClientWithHTTP(srv.Client(), 2*time.Second)

	client := NewClient(endpoint.New(host, endpoint.PathCards, endpoint.QueryParam{Name: "name", Value: "Opt|Black Lotus"}), transport, nil)
	resp, err := client.FetchCards(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Cards, 2)
	assert.Equal(t, "name=Opt%7CBlack%20Lotus", gotQuery)
	require.NotNil(t, resp.Cards[0].ConvertedManaCost)
	assert.Equal(t, 1, *resp.Cards[0].ConvertedManaCost)
	assert.Nil(t, resp.Cards[1].Artist)

	missing := NewClient(endpoint.New(host, endpoint.PathUnreachable), transport, nil)
	_, err = missing.FetchCards(context.Background())
	assert.ErrorIs(t, err, fetcherrors.ErrInvalidResponse)
}

func TestFetchConcurrentCallsShareClient(t *testing.T) {
	stub := &stubHTTPClient{resp: stubResponse{body: []byte(`{"cards":[{"name":"Opt","setName":"X"}]}`), statusCode: http.StatusOK}}
	client := NewClient(cardsEndpoint(), stub, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.FetchCards(context.Background()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent fetch: %v", err)
	}
	assert.Len(t, stub.calls, 16)
}

func TestFetchCancelledContextAbortsRequest(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	host := strings.TrimPrefix(srv.URL, "https://")
	client := NewClient(endpoint.New(host, endpoint.PathCards), httpclient.NewRestyClientWithHTTP(srv.Client(), 5*time.Second), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	resp, err := client.FetchCards(ctx)
	require.Error(t, err)
	assert.Nil(t, resp.Cards)
	_, classified := fetcherrors.KindOf(err)
	assert.False(t, classified)
}

// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
)

// DevicesXML is a three-device list: one with a region field, one whose region comes from a <Region> tag,
// and one with neither.
const DevicesXML = `<ArrayOfDevice xmlns:i="http://www.w3.org/2001/XMLSchema-instance">
  <Device xmlns:d2p1="urn:devices">
    <d2p1:Id>dev-1</d2p1:Id>
    <d2p1:Name>SITE_Lobby_North_1</d2p1:Name>
    <d2p1:Region>East</d2p1:Region>
    <d2p1:Tags xmlns:d4p1="urn:arrays">
      <d4p1:KeyValueOfstringstring><d4p1:Key>&lt;LocationType&gt;</d4p1:Key><d4p1:Value>Lobby</d4p1:Value></d4p1:KeyValueOfstringstring>
      <d4p1:KeyValueOfstringstring><d4p1:Key>&lt;Floor&gt;</d4p1:Key><d4p1:Value>1</d4p1:Value></d4p1:KeyValueOfstringstring>
    </d2p1:Tags>
  </Device>
  <Device xmlns:d2p1="urn:devices">
    <d2p1:Id>dev-2</d2p1:Id>
    <d2p1:Name>SITE_Cafe_South_2</d2p1:Name>
    <d2p1:Region i:nil="true"/>
    <d2p1:Tags xmlns:d4p1="urn:arrays">
      <d4p1:KeyValueOfstringstring><d4p1:Key>&lt;Region&gt;</d4p1:Key><d4p1:Value>West</d4p1:Value></d4p1:KeyValueOfstringstring>
    </d2p1:Tags>
  </Device>
  <Device xmlns:d2p1="urn:devices">
    <d2p1:Id>dev-3</d2p1:Id>
    <d2p1:Name>Storage</d2p1:Name>
    <d2p1:Region>East</d2p1:Region>
    <d2p1:Tags xmlns:d4p1="urn:arrays">
      <d4p1:KeyValueOfstringstring><d4p1:Key>&lt;LocationType&gt;</d4p1:Key><d4p1:Value>Back</d4p1:Value></d4p1:KeyValueOfstringstring>
    </d2p1:Tags>
  </Device>
</ArrayOfDevice>`

// PlaylistsXML lists the two playlists served by [FakeAPI].
const PlaylistsXML = `<PagedDynamicPlaylistList xmlns:d2p1="urn:playlists">
  <Items>
    <d2p1:DynamicPlaylist><d2p1:Id>p1</d2p1:Id><d2p1:Name>Morning Loop</d2p1:Name></d2p1:DynamicPlaylist>
    <d2p1:DynamicPlaylist><d2p1:Id>p2</d2p1:Id><d2p1:Name>Evening Loop</d2p1:Name></d2p1:DynamicPlaylist>
  </Items>
</PagedDynamicPlaylistList>`

// PlaylistXML maps playlist IDs to detail documents. p1 holds one entry, p2 holds two.
var PlaylistXML = map[string]string{
	"p1": `<DynamicPlaylist>
  <Id>p1</Id>
  <Name>Morning Loop</Name>
  <SupportsAudio>false</SupportsAudio>
  <SupportsVideo>true</SupportsVideo>
  <SupportsImages>true</SupportsImages>
  <Content>
    <DynamicPlaylistContent>
      <ContentId>old-1</ContentId>
      <DisplayDuration>PT5S</DisplayDuration>
      <FileName>old-1.png</FileName>
      <ValidityEndDate/>
      <ValidityStartDate/>
    </DynamicPlaylistContent>
  </Content>
</DynamicPlaylist>`,
	"p2": `<DynamicPlaylist>
  <Id>p2</Id>
  <Name>Evening Loop</Name>
  <SupportsAudio>true</SupportsAudio>
  <SupportsVideo>false</SupportsVideo>
  <SupportsImages>true</SupportsImages>
  <Content>
    <DynamicPlaylistContent><ContentId>old-2</ContentId><DisplayDuration>PT8S</DisplayDuration><FileName>old-2.jpg</FileName></DynamicPlaylistContent>
    <DynamicPlaylistContent><ContentId>old-3</ContentId><DisplayDuration>PT9S</DisplayDuration><FileName>old-3.jpg</FileName></DynamicPlaylistContent>
  </Content>
</DynamicPlaylist>`,
}

// ContentXML is the detail document for content "c1".
const ContentXML = `<Content>
  <Id>c1</Id>
  <FileName>promo.mp4</FileName>
  <MediaType>Video</MediaType>
  <ThumbPath>/thumbs/promo.png</ThumbPath>
</Content>`

// NotFoundXML is the error body returned for unknown routes.
const NotFoundXML = `<Error><Message>resource not found</Message></Error>`

// RecordedRequest is one request seen by [FakeAPI].
type RecordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type failure struct {
	status int
	body   string
}

// FakeAPI is an httptest server that serves the fixtures above and records every request.
type FakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	failures map[string]failure
}

// NewFakeAPI starts a [FakeAPI] and closes it when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{failures: make(map[string]failure)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// Fail makes method+path answer with status and body.
func (f *FakeAPI) Fail(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = failure{status: status, body: body}
}

// Requests returns a copy of the recorded requests.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestsFor returns recorded requests matching method.
func (f *FakeAPI) RequestsFor(method string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   string(body),
		Auth:   r.Header.Get("Authorization"),
	})
	fail, failed := f.failures[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if failed {
		w.WriteHeader(fail.status)
		fmt.Fprint(w, fail.body)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/Devices":
		fmt.Fprint(w, DevicesXML)
	case r.Method == http.MethodGet && path == "/UserPlaylists":
		fmt.Fprint(w, PlaylistsXML)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/UserPlaylists/"):
		doc, ok := PlaylistXML[strings.TrimPrefix(path, "/UserPlaylists/")]
		if !ok {
			notFound(w)
			return
		}
		fmt.Fprint(w, doc)
	case r.Method == http.MethodGet && path == "/Contents/c1":
		fmt.Fprint(w, ContentXML)
	case r.Method == http.MethodPut && strings.HasPrefix(path, "/UserPlaylists/"):
		w.WriteHeader(http.StatusNoContent)
	case (r.Method == http.MethodPost || r.Method == http.MethodDelete) &&
		strings.HasPrefix(path, "/Devices/") && strings.HasSuffix(path, "/Tags/"):
		w.WriteHeader(http.StatusOK)
	default:
		notFound(w)
	}
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, NotFoundXML)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greyfall/ttvgate/model"
)

// fakeTwitch stands in for the query API and the manifest/storage
// hosts at once, dispatching GQL calls on the query text.
type fakeTwitch struct {
	mux *http.ServeMux
	srv *httptest.Server

	liveToken      *model.PlaybackToken
	vodToken       *model.PlaybackToken
	gqlErrors      bool
	seekPreviews   string
	owner          string
	broadcastTitle string
	broadcastGame  string

	storyboardHits atomic.Int32
}

func newFakeTwitch(t *testing.T) *fakeTwitch {
	f := &fakeTwitch{mux: http.NewServeMux()}
	f.mux.HandleFunc("/gql", f.gql)
	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeTwitch) gql(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var q model.GraphQLQuery
	json.Unmarshal(body, &q)
	query := q.Query

	w.Header().Set("Content-Type", "application/json")
	if f.gqlErrors {
		fmt.Fprint(w, `{"data":{},"errors":[{"message":"service error"}]}`)
		return
	}
	switch {
	case strings.Contains(query, "streamPlaybackAccessToken"):
		writeToken(w, "streamPlaybackAccessToken", f.liveToken)
	case strings.Contains(query, "videoPlaybackAccessToken"):
		writeToken(w, "videoPlaybackAccessToken", f.vodToken)
	case strings.Contains(query, "seekPreviewsURL"):
		f.storyboardHits.Add(1)
		fmt.Fprintf(w, `{"data":{"video":{"seekPreviewsURL":%q,"owner":{"login":%q}}}}`, f.seekPreviews, f.owner)
	case strings.Contains(query, "broadcastSettings"):
		fmt.Fprintf(w, `{"data":{"user":{"broadcastSettings":{"title":%q,"game":{"displayName":%q}}}}}`, f.broadcastTitle, f.broadcastGame)
	default:
		fmt.Fprint(w, `{"data":{}}`)
	}
}

func writeToken(w io.Writer, field string, token *model.PlaybackToken) {
	if token == nil {
		fmt.Fprint(w, `{"data":{}}`)
		return
	}
	fmt.Fprintf(w, `{"data":{%q:{"value":%q,"signature":%q}}}`, field, token.Value, token.Signature)
}

func (f *fakeTwitch) resolver() *Resolver {
	up := NewUpstream(DefaultIdentity, "")
	up.GQLEndpoint = f.srv.URL + "/gql"
	r := NewResolver(up)
	r.LiveManifest = f.srv.URL + "/api/channel/hls/%s.m3u8"
	r.VodManifest = f.srv.URL + "/vod/%s.m3u8"
	return r
}

func TestIssueLive_tokenMissing(t *testing.T) {
	f := newFakeTwitch(t)
	r := f.resolver()

	_, err := r.Tokens.IssueLive(context.Background(), "offlinechannel")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssueLive_gqlErrors(t *testing.T) {
	f := newFakeTwitch(t)
	f.liveToken = &model.PlaybackToken{Value: "v", Signature: "s"}
	f.gqlErrors = true
	r := f.resolver()

	_, err := r.Tokens.IssueLive(context.Background(), "somechannel")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIssueVideo(t *testing.T) {
	f := newFakeTwitch(t)
	f.vodToken = &model.PlaybackToken{Value: "vodval", Signature: "vodsig"}
	r := f.resolver()

	token, err := r.Tokens.IssueVideo(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "vodval", token.Value)
	assert.Equal(t, "vodsig", token.Signature)
}

func TestResolveLive_offline(t *testing.T) {
	f := newFakeTwitch(t)
	r := f.resolver()

	_, err := r.ResolveLive(context.Background(), "OfflineChannel")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveLive_success(t *testing.T) {
	f := newFakeTwitch(t)
	f.liveToken = &model.PlaybackToken{Value: "tokval", Signature: "toksig"}
	f.broadcastTitle = "Speedrun!"
	f.broadcastGame = "Tetris"
	f.mux.HandleFunc("/api/channel/hls/somechannel.m3u8", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "toksig", r.URL.Query().Get("sig"))
		assert.Equal(t, "tokval", r.URL.Query().Get("token"))
		fmt.Fprint(w, masterPlaylist)
	})
	r := f.resolver()

	// login is normalized to lowercase before anything else
	stream, err := r.ResolveLive(context.Background(), "  SomeChannel ")
	require.NoError(t, err)
	assert.Equal(t, "Speedrun!", stream.Title)
	assert.Equal(t, "Tetris", stream.Game)
	assert.Contains(t, stream.Best, "/api/channel/hls/somechannel.m3u8?")

	source, ok := stream.Links.Get("Source")
	require.True(t, ok)
	assert.Equal(t, "https://cdn/chunked/index.m3u8", source)
	auto, ok := stream.Links.Get("Auto")
	require.True(t, ok)
	assert.Equal(t, stream.Best, auto)
}

func TestResolveLive_manifestFetchFails(t *testing.T) {
	f := newFakeTwitch(t)
	f.liveToken = &model.PlaybackToken{Value: "v", Signature: "s"}
	// no manifest route registered: the mux answers 404
	r := f.resolver()

	_, err := r.ResolveLive(context.Background(), "somechannel")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveVideo_planA(t *testing.T) {
	f := newFakeTwitch(t)
	f.vodToken = &model.PlaybackToken{Value: "nv", Signature: "ns"}
	f.mux.HandleFunc("/vod/123.m3u8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, masterPlaylist)
	})
	r := f.resolver()

	stream, err := r.ResolveVideo(context.Background(), "123")
	require.NoError(t, err)
	source, ok := stream.Links.Get("Source")
	require.True(t, ok)
	assert.Equal(t, "https://cdn/chunked/index.m3u8", source)
	assert.Contains(t, stream.Best, "/vod/123.m3u8?nauth=nv&nauthsig=ns")

	// plan A success must never touch the storyboard metadata
	assert.Equal(t, int32(0), f.storyboardHits.Load())
}

func TestResolveVideo_planB(t *testing.T) {
	f := newFakeTwitch(t)
	f.seekPreviews = f.srv.URL + "/ab12_chan_99/storyboards/0-info.jpg"
	f.owner = "chan"
	for _, q := range []string{"chunked", "360p30"} {
		f.mux.HandleFunc("/ab12_chan_99/"+q+"/index-dvr.m3u8", func(w http.ResponseWriter, r *http.Request) {})
	}
	r := f.resolver()

	stream, err := r.ResolveVideo(context.Background(), "99")
	require.NoError(t, err)
	require.Equal(t, 2, stream.Links.Len())

	var keys []string
	for pair := stream.Links.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"chunked", "360p30"}, keys)
	assert.Equal(t, f.srv.URL+"/ab12_chan_99/chunked/index-dvr.m3u8", stream.Best)
	assert.Equal(t, "VOD of chan", stream.Info)
	assert.Equal(t, int32(1), f.storyboardHits.Load())
}

func TestResolveVideo_planAInvalidBodyFallsBack(t *testing.T) {
	f := newFakeTwitch(t)
	f.vodToken = &model.PlaybackToken{Value: "nv", Signature: "ns"}
	f.mux.HandleFunc("/vod/77.m3u8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Access denied")
	})
	f.seekPreviews = f.srv.URL + "/cc11_chan_77/storyboards/0-info.jpg"
	f.owner = "chan"
	f.mux.HandleFunc("/cc11_chan_77/720p30/index-dvr.m3u8", func(w http.ResponseWriter, r *http.Request) {})
	r := f.resolver()

	stream, err := r.ResolveVideo(context.Background(), "77")
	require.NoError(t, err)
	_, ok := stream.Links.Get("720p30")
	assert.True(t, ok)
}

func TestResolveVideo_bothPlansFail(t *testing.T) {
	f := newFakeTwitch(t)
	// no token, no seek previews url
	r := f.resolver()

	_, err := r.ResolveVideo(context.Background(), "404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChannelVideos(t *testing.T) {
	f := newFakeTwitch(t)
	videosJSON := `{"data":{"user":{"videos":{"edges":[{"node":{"id":"111","title":"run 1","publishedAt":"2024-04-01T00:00:00Z","lengthSeconds":3600,"viewCount":42,"previewThumbnailURL":"https://cdn/thumb.jpg"}}],"pageInfo":{"hasNextPage":true,"endCursor":"opaque123"}}}}}`
	f.mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, videosJSON)
	})
	r := f.resolver()
	r.Upstream.GQLEndpoint = f.srv.URL + "/videos"

	videos, page, err := r.ChannelVideos(context.Background(), "SomeChannel", "")
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "111", videos[0].ID)
	assert.Equal(t, "run 1", videos[0].Title)
	assert.Equal(t, 3600, videos[0].LengthSeconds)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "opaque123", page.EndCursor)
}

func TestChannelVideos_unknownChannel(t *testing.T) {
	f := newFakeTwitch(t)
	r := f.resolver()

	_, _, err := r.ChannelVideos(context.Background(), "nobody", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

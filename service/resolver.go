package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/greyfall/ttvgate/model"
)

const (
	liveManifestURL = "https://usher.ttvnw.net/api/channel/hls/%s.m3u8"
	vodManifestURL  = "https://usher.ttvnw.net/vod/%s.m3u8"

	// capability flags the upstream player contract expects on the live master url
	liveManifestParams = "allow_source=true&allow_audio_only=true&allow_spectre=true&player=twitchweb&playlist_include_framerate=true&segment_preference=4"
)

// Resolver turns a channel name or video id into playable manifest
// urls. It holds no state between calls.
type Resolver struct {
	Upstream *Upstream
	Tokens   *TokenBroker
	Probe    *QualityProbe

	// manifest url templates, swappable in tests
	LiveManifest string
	VodManifest  string
}

func NewResolver(up *Upstream) *Resolver {
	return &Resolver{
		Upstream:     up,
		Tokens:       &TokenBroker{Upstream: up},
		Probe:        &QualityProbe{Upstream: up},
		LiveManifest: liveManifestURL,
		VodManifest:  vodManifestURL,
	}
}

type broadcastMeta struct {
	title string
	game  string
}

// broadcastMeta fetches the channel's current title and category.
// Strictly best-effort: any failure falls back to placeholders.
func (r *Resolver) broadcastMeta(ctx context.Context, login string) broadcastMeta {
	meta := broadcastMeta{title: "Live"}
	payload := &model.GraphQLQuery{
		Query: fmt.Sprintf(`query { user(login: %q) { broadcastSettings { title, game { displayName } } } }`, login),
	}
	var resp model.BroadcastMetaResponse
	if err := r.Upstream.GQL(ctx, payload, &resp); err != nil {
		log.Println("broadcast metadata:", err)
		return meta
	}
	user := resp.Data.User
	if user == nil || user.BroadcastSettings == nil {
		return meta
	}
	if user.BroadcastSettings.Title != "" {
		meta.title = user.BroadcastSettings.Title
	}
	if user.BroadcastSettings.Game != nil {
		meta.game = user.BroadcastSettings.Game.DisplayName
	}
	return meta
}

// ResolveLive resolves a channel into its master manifest url and the
// per-quality variant links. An offline channel or invalid login is
// ErrNotFound.
func (r *Resolver) ResolveLive(ctx context.Context, login string) (*model.LiveStream, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	token, err := r.Tokens.IssueLive(ctx, login)
	if err != nil {
		return nil, err
	}
	masterURL := fmt.Sprintf(r.LiveManifest, login) + "?" + liveManifestParams +
		"&sig=" + token.Signature + "&token=" + url.QueryEscape(token.Value)

	// metadata is independent of the manifest fetch, run it alongside
	metaCh := make(chan broadcastMeta, 1)
	go func() {
		metaCh <- r.broadcastMeta(ctx, login)
	}()

	body, _, status, err := r.Upstream.FetchText(ctx, masterURL)
	if err != nil || status != http.StatusOK {
		return nil, fmt.Errorf("live manifest for %s: %w", login, ErrNotFound)
	}
	links := ExtractVariants(body, masterURL)
	meta := <-metaCh
	return &model.LiveStream{
		Links: links,
		Best:  masterURL,
		Title: meta.title,
		Game:  meta.game,
	}, nil
}

// ResolveVideo resolves an archived video. Plan A goes through the
// authorized manifest; any failure there falls through to probing the
// storage host directly, once, which also covers subscriber-only and
// geo-restricted archives. The plans never overlap.
func (r *Resolver) ResolveVideo(ctx context.Context, videoID string) (*model.VideoStream, error) {
	stream, err := r.resolveVideoAuthorized(ctx, videoID)
	if err == nil {
		return stream, nil
	}
	log.Println("authorized vod path failed, probing storage:", err)
	return r.resolveVideoProbed(ctx, videoID)
}

func (r *Resolver) resolveVideoAuthorized(ctx context.Context, videoID string) (*model.VideoStream, error) {
	token, err := r.Tokens.IssueVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	masterURL := fmt.Sprintf(r.VodManifest, videoID) +
		"?nauth=" + token.Value + "&nauthsig=" + token.Signature +
		"&allow_source=true&player_backend=mediaplayer"
	body, _, status, err := r.Upstream.FetchText(ctx, masterURL)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("vod manifest: %w: HTTP %d", ErrUpstream, status)
	}
	if !strings.HasPrefix(strings.TrimSpace(body), "#EXTM3U") {
		return nil, fmt.Errorf("vod manifest: %w", ErrBadPlaylist)
	}
	return &model.VideoStream{
		Links: ExtractVariants(body, masterURL),
		Best:  masterURL,
	}, nil
}

func (r *Resolver) resolveVideoProbed(ctx context.Context, videoID string) (*model.VideoStream, error) {
	payload := &model.GraphQLQuery{
		Query: fmt.Sprintf(`query { video(id: %q) { seekPreviewsURL, owner { login } } }`, videoID),
	}
	var resp model.StoryboardResponse
	if err := r.Upstream.GQL(ctx, payload, &resp); err != nil {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}
	video := resp.Data.Video
	if video == nil || video.SeekPreviewsURL == "" {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}
	root, err := r.Probe.DeriveStorageRoot(video.SeekPreviewsURL)
	if err != nil {
		return nil, err
	}
	links := r.Probe.ProbeAll(ctx, root)
	if links.Len() == 0 {
		return nil, fmt.Errorf("video %s: no quality manifests: %w", videoID, ErrNotFound)
	}
	stream := &model.VideoStream{Links: links}
	if first := links.Oldest(); first != nil {
		stream.Best = first.Value
	}
	if video.Owner != nil {
		stream.Info = "VOD of " + video.Owner.Login
	}
	return stream, nil
}

// ChannelVideos lists a channel's archived broadcasts, newest first,
// twenty per page, with an opaque cursor for the next page.
func (r *Resolver) ChannelVideos(ctx context.Context, login string, cursor string) ([]model.VideoItem, *model.PageInfo, error) {
	after := ""
	if cursor != "" {
		after = fmt.Sprintf(", after: %q", cursor)
	}
	query := fmt.Sprintf(`query {
		user(login: %q) {
			videos(first: 20, type: ARCHIVE, sort: TIME%s) {
				edges { node { id, title, publishedAt, lengthSeconds, viewCount, previewThumbnailURL(height: 180, width: 320) } }
				pageInfo { hasNextPage, endCursor }
			}
		}
	}`, strings.ToLower(strings.TrimSpace(login)), after)
	var resp model.ChannelVideosResponse
	if err := r.Upstream.GQL(ctx, &model.GraphQLQuery{Query: query}, &resp); err != nil {
		return nil, nil, fmt.Errorf("videos for %s: %w", login, ErrNotFound)
	}
	if resp.Data.User == nil || resp.Data.User.Videos == nil {
		return nil, nil, fmt.Errorf("videos for %s: %w", login, ErrNotFound)
	}
	videos := make([]model.VideoItem, 0, len(resp.Data.User.Videos.Edges))
	for _, edge := range resp.Data.User.Videos.Edges {
		videos = append(videos, edge.Node)
	}
	return videos, &resp.Data.User.Videos.PageInfo, nil
}

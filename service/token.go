package service

import (
	"context"
	"fmt"

	"github.com/greyfall/ttvgate/model"
)

const (
	tokenOperation = "PlaybackAccessToken_Template"
	liveTokenQuery = `query PlaybackAccessToken_Template($login: String!, $isLive: Boolean!, $playerType: String!) { streamPlaybackAccessToken(channelName: $login, params: {platform: "web", playerBackend: "mediaplayer", playerType: $playerType}) @include(if: $isLive) { value signature __typename } }`
	vodTokenQuery  = `query PlaybackAccessToken_Template($vodID: ID!, $isVod: Boolean!, $playerType: String!) { videoPlaybackAccessToken(id: $vodID, params: {platform: "web", playerBackend: "mediaplayer", playerType: $playerType}) @include(if: $isVod) { value signature __typename } }`
)

// TokenBroker issues the short-lived playback authorization for a live
// channel or an archived video. One upstream attempt per call, no
// retry: any failure is reported as ErrNotFound and the caller decides
// whether to fall back.
type TokenBroker struct {
	Upstream *Upstream
}

func (b *TokenBroker) IssueLive(ctx context.Context, login string) (*model.PlaybackToken, error) {
	payload := &model.GraphQLQuery{
		OperationName: tokenOperation,
		Query:         liveTokenQuery,
		Variables: map[string]any{
			"isLive":     true,
			"login":      login,
			"playerType": "site",
		},
	}
	var resp model.PlaybackTokenResponse
	if err := b.Upstream.GQL(ctx, payload, &resp); err != nil {
		return nil, fmt.Errorf("live token for %s: %w", login, ErrNotFound)
	}
	if len(resp.Errors) > 0 || resp.Data.StreamPlaybackAccessToken == nil {
		return nil, fmt.Errorf("live token for %s: %w", login, ErrNotFound)
	}
	return resp.Data.StreamPlaybackAccessToken, nil
}

func (b *TokenBroker) IssueVideo(ctx context.Context, videoID string) (*model.PlaybackToken, error) {
	payload := &model.GraphQLQuery{
		OperationName: tokenOperation,
		Query:         vodTokenQuery,
		Variables: map[string]any{
			"isVod":      true,
			"vodID":      videoID,
			"playerType": "site",
		},
	}
	var resp model.PlaybackTokenResponse
	if err := b.Upstream.GQL(ctx, payload, &resp); err != nil {
		return nil, fmt.Errorf("vod token for %s: %w", videoID, ErrNotFound)
	}
	if len(resp.Errors) > 0 || resp.Data.VideoPlaybackAccessToken == nil {
		return nil, fmt.Errorf("vod token for %s: %w", videoID, ErrNotFound)
	}
	return resp.Data.VideoPlaybackAccessToken, nil
}

package model

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// PlaybackToken is the short-lived value/signature pair issued by the
// platform. It is embedded into the usher manifest URL and never reused
// across requests.
type PlaybackToken struct {
	Value     string `json:"value"`
	Signature string `json:"signature"`
}

type GraphQLQuery struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type GraphQLError struct {
	Message string `json:"message"`
}

type PlaybackTokenResponse struct {
	Data struct {
		StreamPlaybackAccessToken *PlaybackToken `json:"streamPlaybackAccessToken"`
		VideoPlaybackAccessToken  *PlaybackToken `json:"videoPlaybackAccessToken"`
	} `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

type VideoItem struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	PublishedAt         string `json:"publishedAt"`
	LengthSeconds       int    `json:"lengthSeconds"`
	ViewCount           int    `json:"viewCount"`
	PreviewThumbnailURL string `json:"previewThumbnailURL"`
}

type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type ChannelVideosResponse struct {
	Data struct {
		User *struct {
			Videos *struct {
				Edges []struct {
					Node VideoItem `json:"node"`
				} `json:"edges"`
				PageInfo PageInfo `json:"pageInfo"`
			} `json:"videos"`
		} `json:"user"`
	} `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

type BroadcastMetaResponse struct {
	Data struct {
		User *struct {
			BroadcastSettings *struct {
				Title string `json:"title"`
				Game  *struct {
					DisplayName string `json:"displayName"`
				} `json:"game"`
			} `json:"broadcastSettings"`
		} `json:"user"`
	} `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

type StoryboardResponse struct {
	Data struct {
		Video *struct {
			SeekPreviewsURL string `json:"seekPreviewsURL"`
			Owner           *struct {
				Login string `json:"login"`
			} `json:"owner"`
		} `json:"video"`
	} `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// QualityLinks maps a display quality label to a playable manifest URL.
// Insertion order is preserved through JSON marshalling so the client
// sees qualities best-first.
type QualityLinks = orderedmap.OrderedMap[string, string]

func NewQualityLinks() *QualityLinks {
	return orderedmap.New[string, string]()
}

type LiveStream struct {
	Links *QualityLinks
	Best  string
	Title string
	Game  string
}

type VideoStream struct {
	Links *QualityLinks
	Best  string
	Info  string
}

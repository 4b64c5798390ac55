package service

import (
	"context"
	"fmt"
	"net/http"

	freq "github.com/imroc/req/v3"

	"github.com/greyfall/ttvgate/global"
	"github.com/greyfall/ttvgate/model"
	"github.com/greyfall/ttvgate/util"
)

const gqlURL = "https://gql.twitch.tv/gql"

// Identity is the fixed set of headers the platform expects from a web
// player. Injected so tests can substitute their own.
type Identity struct {
	ClientID  string
	UserAgent string
	Referer   string
	Origin    string
}

var DefaultIdentity = Identity{
	ClientID:  "kimne78kx3ncx6brgo4mv6wki5h1ko",
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	Referer:   "https://www.twitch.tv/",
	Origin:    "https://www.twitch.tv",
}

// Upstream issues every outbound call to the platform: GQL queries,
// manifest fetches and quality probes. Leaf dependency of everything
// else.
type Upstream struct {
	Client      *freq.Client
	Identity    Identity
	GQLEndpoint string
}

func NewUpstream(identity Identity, proxyURL string) *Upstream {
	client := freq.C().
		SetTimeout(global.HttpClientTimeout).
		SetCommonHeaders(map[string]string{
			"User-Agent": identity.UserAgent,
			"Referer":    identity.Referer,
			"Origin":     identity.Origin,
		})
	if proxyURL != "" {
		client.SetProxyURL(proxyURL)
	}
	return &Upstream{
		Client:      client,
		Identity:    identity,
		GQLEndpoint: gqlURL,
	}
}

// GQL posts a query to the private query API. Every call carries a
// fresh random Device-ID, upstream rejects repeated anonymous calls
// without one.
func (u *Upstream) GQL(ctx context.Context, payload *model.GraphQLQuery, out any) error {
	resp, err := u.Client.R().
		SetContext(ctx).
		SetHeader("Client-ID", u.Identity.ClientID).
		SetHeader("Device-ID", util.RandomDeviceID()).
		SetBody(payload).
		Post(u.GQLEndpoint)
	if err != nil {
		return fmt.Errorf("gql: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gql: %w: HTTP %d", ErrUpstream, resp.StatusCode)
	}
	if err := resp.UnmarshalJson(out); err != nil {
		return fmt.Errorf("gql: %w", err)
	}
	return nil
}

// FetchText GETs a url and reads the whole body as text. finalURL is
// the post-redirect url, which is what relative playlist entries must
// be resolved against.
func (u *Upstream) FetchText(ctx context.Context, rawurl string) (body string, finalURL string, status int, err error) {
	resp, err := u.Client.R().SetContext(ctx).Get(rawurl)
	if err != nil {
		return "", rawurl, 0, fmt.Errorf("fetch %s: %w", rawurl, err)
	}
	finalURL = rawurl
	if resp.Response != nil && resp.Response.Request != nil && resp.Response.Request.URL != nil {
		finalURL = resp.Response.Request.URL.String()
	}
	return resp.String(), finalURL, resp.StatusCode, nil
}

// Exists is a lightweight existence probe, true only on a clean 200.
func (u *Upstream) Exists(ctx context.Context, rawurl string) bool {
	resp, err := u.Client.R().SetContext(ctx).Head(rawurl)
	return err == nil && resp.StatusCode == http.StatusOK
}

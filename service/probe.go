package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/greyfall/ttvgate/model"
)

// the storage path component sits immediately before the storyboards
// segment of a seek-preview url
var storagePathExp = regexp2.MustCompile(`([^/]+)/[^/]*storyboards`, 0)

// QualityProbe discovers unlisted per-quality manifests by checking the
// video's storage host directly. Fallback path for access-restricted
// content whose authorized manifest is rejected.
type QualityProbe struct {
	Upstream *Upstream
}

// DeriveStorageRoot turns a seek-preview (storyboard) url into the root
// under which the per-quality manifests live on the same host.
func (p *QualityProbe) DeriveStorageRoot(seekPreviewsURL string) (string, error) {
	u, err := url.Parse(seekPreviewsURL)
	if err != nil {
		return "", err
	}
	id := matchGroup(storagePathExp, u.Path)
	if id == "" || u.Host == "" {
		return "", fmt.Errorf("no storage path in %q: %w", seekPreviewsURL, ErrNotFound)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host + "/" + id, nil
}

// ProbeAll checks every quality under root concurrently and returns
// whichever manifests exist, best quality first. The call returns only
// once every probe has settled; a failed or timed-out probe just drops
// its label. An empty result is a valid empty mapping, not an error.
func (p *QualityProbe) ProbeAll(ctx context.Context, root string) *model.QualityLinks {
	found := make(map[string]string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, label := range QualityOrder {
		wg.Add(1)
		go func(label string) {
			defer wg.Done()
			target := root + "/" + label + "/index-dvr.m3u8"
			if p.Upstream.Exists(ctx, target) {
				mu.Lock()
				found[label] = target
				mu.Unlock()
			}
		}(label)
	}
	wg.Wait()

	links := model.NewQualityLinks()
	for _, label := range QualityOrder {
		if target, ok := found[label]; ok {
			links.Set(label, target)
		}
	}
	return links
}

package service

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/grafov/m3u8"

	"github.com/greyfall/ttvgate/global"
	"github.com/greyfall/ttvgate/model"
)

const (
	playlistExt = ".m3u8"
	sourceLabel = "Source"
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineDirective
	lineResource
)

// classifyLine is the whole line grammar of an HLS playlist: a line is
// blank, a '#'-prefixed directive, or a reference to a child resource.
func classifyLine(line string) lineKind {
	switch t := strings.TrimSpace(line); {
	case t == "":
		return lineBlank
	case strings.HasPrefix(t, "#"):
		return lineDirective
	default:
		return lineResource
	}
}

type RewriteOptions struct {
	ProxyBase  string // absolute url of our own proxy endpoint
	IsVod      bool   // propagated into child playlist links
	ForceProxy bool   // relay live segments too instead of linking the origin
}

func proxyLink(opt RewriteOptions, target string) string {
	return opt.ProxyBase + "?url=" + url.QueryEscape(target) + "&isVod=" + strconv.FormatBool(opt.IsVod)
}

// Rewrite walks a fetched playlist line by line, leaving directive and
// blank lines untouched. Resource lines are made absolute against the
// playlist's own directory; child playlists always re-enter the proxy,
// segments only for VOD content (or under ForceProxy) - live segments
// link the origin directly to keep relay bandwidth down.
func Rewrite(body string, playlistURL string, opt RewriteOptions) string {
	baseURL := global.GetBaseURL(playlistURL)
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if classifyLine(line) != lineResource {
			continue
		}
		target := strings.TrimSpace(line)
		if !global.IsValidURL(target) {
			target = global.MergeUrl(baseURL, target)
		}
		if strings.Contains(target, playlistExt) || opt.IsVod || opt.ForceProxy {
			lines[i] = proxyLink(opt, target)
		} else {
			lines[i] = target
		}
	}
	return strings.Join(lines, "\n")
}

var (
	streamInfVideoExp      = regexp2.MustCompile(`VIDEO="([^"]+)"`, 0)
	streamInfResolutionExp = regexp2.MustCompile(`RESOLUTION=(\d+x\d+)`, 0)
)

func matchGroup(re *regexp2.Regexp, s string) string {
	if m, _ := re.FindStringMatch(s); m != nil {
		return m.Groups()[1].Captures[0].String()
	}
	return ""
}

// displayLabel turns the raw variant attributes into a human-facing
// quality name. Every synonym of the platform's source rendition
// collapses to the one canonical "Source" label.
func displayLabel(video string, resolution string) string {
	name := video
	if name == "" {
		name = "Unknown"
	}
	if strings.Contains(strings.ToLower(name), "chunked") {
		return sourceLabel
	}
	if resolution != "" {
		name += " (" + resolution + ")"
	}
	return name
}

type qualityLink struct {
	Label string
	URL   string
}

// ExtractVariants reads a master playlist and maps quality label to
// variant url, best first, with an implicit "Auto" entry pointing at
// the master itself.
func ExtractVariants(body string, masterURL string) *model.QualityLinks {
	var found []qualityLink
	pl, kind, err := m3u8.DecodeFrom(strings.NewReader(body), false)
	if err == nil && kind == m3u8.MASTER {
		baseURL := global.GetBaseURL(masterURL)
		for _, v := range pl.(*m3u8.MasterPlaylist).Variants {
			if v == nil || v.URI == "" {
				continue
			}
			uri := v.URI
			if !global.IsValidURL(uri) {
				uri = global.MergeUrl(baseURL, uri)
			}
			found = append(found, qualityLink{displayLabel(v.Video, v.Resolution), uri})
		}
	} else {
		found = scanVariants(body, masterURL)
	}
	return sortVariants(found, masterURL)
}

// scanVariants is the tokenizer fallback for playlists the m3u8 decoder
// refuses. A stream-inf directive carries the label for the next
// resource line, consumed once and reset.
func scanVariants(body string, masterURL string) []qualityLink {
	baseURL := global.GetBaseURL(masterURL)
	var found []qualityLink
	lastLabel := ""
	for _, line := range strings.Split(body, "\n") {
		switch classifyLine(line) {
		case lineDirective:
			t := strings.TrimSpace(line)
			if strings.HasPrefix(t, "#EXT-X-STREAM-INF") {
				lastLabel = displayLabel(matchGroup(streamInfVideoExp, t), matchGroup(streamInfResolutionExp, t))
			}
		case lineResource:
			if lastLabel == "" {
				continue
			}
			uri := strings.TrimSpace(line)
			if !global.IsValidURL(uri) {
				uri = global.MergeUrl(baseURL, uri)
			}
			found = append(found, qualityLink{lastLabel, uri})
			lastLabel = ""
		}
	}
	return found
}

// sortVariants emits found labels tier by tier, then anything
// unmatched in first-seen order. "Auto" always sorts first.
func sortVariants(found []qualityLink, masterURL string) *model.QualityLinks {
	links := model.NewQualityLinks()
	links.Set("Auto", masterURL)
	taken := make([]bool, len(found))
	for _, tier := range displayTiers {
		lt := strings.ToLower(tier)
		for i, q := range found {
			if !taken[i] && strings.Contains(strings.ToLower(q.Label), lt) {
				links.Set(q.Label, q.URL)
				taken[i] = true
			}
		}
	}
	for i, q := range found {
		if !taken[i] {
			links.Set(q.Label, q.URL)
		}
	}
	return links
}

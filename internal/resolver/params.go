package resolver

import (
	"net/url"
	"strings"

	"github.com/five82/flowgate/internal/attribution"
)

// Param is one canonical query parameter and the conversion-field keys that
// may supply it, in priority order.
type Param struct {
	Name    string
	Aliases []string
	// FromInstallID takes the value from the install id instead of the fields.
	FromInstallID bool
}

// Params is the fixed parameter order of an attribution request.
var Params = []Param{
	{Name: "gadid", Aliases: []string{"gadid", "af_gadid", "adgroup_id"}},
	{Name: "appsflyerId", FromInstallID: true},
	{Name: "af_ad_id", Aliases: []string{"af_ad_id", "ad_id", "af_ad"}},
	{Name: "campaign_id", Aliases: []string{"campaign_id", "af_campaign_id"}},
	{Name: "source_app_id", Aliases: []string{"source_app_id", "af_source_app_id"}},
	{Name: "campaign", Aliases: []string{"campaign", "c", "af_c"}},
	{Name: "af_ad", Aliases: []string{"af_ad", "ad"}},
	{Name: "af_adset", Aliases: []string{"af_adset", "adset"}},
	{Name: "af_adset_id", Aliases: []string{"af_adset_id", "adset_id"}},
	{Name: "network", Aliases: []string{"network", "af_network", "media_source", "pid"}},
}

// PathTokenParam names the query parameter carrying the path token.
const PathTokenParam = "pathid"

var nullMarkers = map[string]bool{"null": true, "<null>": true}

// Extract returns the first alias value that is non-empty and not a null
// marker, or "" when none qualifies.
func Extract(fields attribution.Fields, aliases []string) string {
	for _, key := range aliases {
		v, ok := fields.Get(key)
		if !ok || v == "" || nullMarkers[v] {
			continue
		}
		return v
	}
	return ""
}

// encodeQuery renders params in order. Every parameter is emitted even when
// its value is empty.
func encodeQuery(ac attribution.Context) string {
	var b strings.Builder
	for i, p := range Params {
		if i > 0 {
			b.WriteByte('&')
		}
		value := ac.InstallID
		if !p.FromInstallID {
			value = Extract(ac.Fields, p.Aliases)
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	return b.String()
}

// ExtractPathToken returns the first query parameter named pathid (any case)
// in rawURL.
func ExtractPathToken(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	for _, pair := range strings.Split(u.RawQuery, "&") {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		name, err := url.QueryUnescape(name)
		if err != nil || !strings.EqualFold(name, PathTokenParam) {
			continue
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			continue
		}
		return value, true
	}
	return "", false
}

// Package resolver provides the HTTP client for the routing endpoint.
//
// # Overview
//
// This package builds attribution-tagged request URLs, follows the routing
// host's redirect chain and classifies where it landed. It also checks that a
// cached endpoint is still alive and rebuilds a request from a stored path
// token.
//
// # Architecture
//
// The package is split into two files:
//
//   - client.go: Client, Resolve, Probe, IsConfigHost and the error taxonomy
//   - params.go: canonical query parameters, alias lookup and path token extraction
//
// # Client Usage
//
// Create a client for the configured base endpoint:
//
//	client, err := resolver.NewClient("https://router.example.com/entry", 10*time.Second)
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//
//	rawURL, _ := client.AttributionURL(ac)
//	res := client.Resolve(ctx, rawURL)
//	if res.Kind == resolver.KindSuccess {
//		log.Printf("token %q", res.PathToken)
//	}
//
// # Request URLs
//
// AttributionURL appends the parameters of Params in fixed order: gadid,
// appsflyerId, af_ad_id, campaign_id, source_app_id, campaign, af_ad,
// af_adset, af_adset_id, network. Each value comes from the first alias in
// the conversion fields that is non-empty and not "null" or "<null>";
// appsflyerId is the install id. Missing values are sent empty.
//
// PathTokenURL builds base?pathid=<token> for reacquisition.
//
// # Classification
//
// Resolve issues a redirect-following GET:
//
//   - KindHardFailure: the URL is invalid, the transport failed, or the final
//     status is above 403
//   - KindNoChange: the landed URL equals the requested URL
//   - KindSuccess: the landed URL differs; its pathid, if any, is extracted
//
// Probe issues a HEAD and accepts statuses 200 through 403.
//
// IsConfigHost matches the routing host and its subdomains, case-insensitive.
//
// # Error Handling
//
// Failures wrap one of the sentinels below and are classified with errors.Is:
//
//   - ErrNetwork: transport failure or timeout
//   - ErrInvalidRequestURL: unparsable or non-http request URL
//   - ErrUnexpectedStatus: status outside the accepted range
//   - ErrNoPathToken: reacquisition without a stored token
//
// Transport errors carry the operation and cause but not the request URL, so
// they are safe to log next to an obfuscated endpoint store.
package resolver

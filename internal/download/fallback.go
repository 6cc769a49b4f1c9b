package download

// Player client identifiers understood by the upstream extractor.
const (
	clientAndroid = "android"
	clientIOS     = "ios"
	clientWeb     = "web"
)

// IdentityWebToken names the token-bearing web identity that leads the plan
// when a proof-of-origin token is configured.
const IdentityWebToken = "web+token"

// PlanAttempts produces the ordered client identities for one job. The
// upstream platform throttles or blocks different simulated clients
// differently; a token-authenticated web identity has the best success odds
// and is tried first when a PO token is present, followed by the fixed
// android, ios, web sequence. Every identity carries the visitor-session
// token when one is configured.
func PlanAttempts(creds Credentials) []ClientIdentity {
	var plan []ClientIdentity
	if creds.POToken != "" {
		plan = append(plan, ClientIdentity{
			Name:         IdentityWebToken,
			PlayerClient: clientWeb,
			POToken:      creds.POToken,
			VisitorData:  creds.VisitorData,
		})
	}
	for _, client := range []string{clientAndroid, clientIOS, clientWeb} {
		plan = append(plan, ClientIdentity{
			Name:         client,
			PlayerClient: client,
			VisitorData:  creds.VisitorData,
		})
	}
	return plan
}

package twitter

// userAgent identifies the library to Twitter.
const userAgent = "go-twitterapi/1.0"

// apiHeaders returns the headers attached to every authenticated API call.
func apiHeaders(bearerToken string, hasBody bool) map[string]string {
	h := map[string]string{
		"authorization":   "Bearer " + bearerToken,
		"user-agent":      userAgent,
		"accept":          "application/json",
		"accept-encoding": "gzip, deflate, br",
	}
	if hasBody {
		h["content-type"] = "application/json"
	}
	return h
}

// uploadHeaders returns headers for presigned compliance upload URLs.
// Presigned URLs carry their own credentials, so no bearer token is sent.
func uploadHeaders() map[string]string {
	return map[string]string{
		"content-type": "text/plain",
		"user-agent":   userAgent,
	}
}

// apiHeaderOrder keeps header order stable across requests.
var apiHeaderOrder = []string{
	"authorization",
	"content-type",
	"user-agent",
	"accept",
	"accept-encoding",
}

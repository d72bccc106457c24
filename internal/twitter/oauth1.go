package twitter

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Credentials is the OAuth1.0a material for one user: their app key/secret
// and the account access token/secret.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// percentEncode implements the RFC 3986 encoding OAuth1.0a mandates.
// url.QueryEscape is not byte-compatible (it emits '+' for spaces and
// escapes '~'), so the signature would not verify upstream.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// Sign computes the OAuth1.0a HMAC-SHA1 signature over one request. params
// must already contain the oauth_* protocol parameters merged with the
// request's query/body parameters. tokenSecret may be empty.
func Sign(method, rawURL string, params map[string]string, consumerSecret, tokenSecret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}
	paramString := strings.Join(pairs, "&")

	base := strings.ToUpper(method) + "&" + percentEncode(rawURL) + "&" + percentEncode(paramString)
	signingKey := percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Nonce returns 16 random bytes hex-encoded. A fresh nonce is generated for
// every call, retries included; reuse of a nonce/timestamp pair is a
// protocol violation upstream.
func Nonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// AuthorizationHeader builds the complete `OAuth ...` header value for one
// request. bodyParams must include every form parameter sent in the body;
// the platform includes them in signature verification.
func AuthorizationHeader(creds Credentials, method, rawURL string, bodyParams map[string]string, nonce string, timestamp int64) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     creds.APIKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(timestamp, 10),
		"oauth_token":            creds.AccessToken,
		"oauth_version":          "1.0",
	}

	merged := make(map[string]string, len(oauthParams)+len(bodyParams))
	for k, v := range oauthParams {
		merged[k] = v
	}
	for k, v := range bodyParams {
		merged[k] = v
	}

	oauthParams["oauth_signature"] = Sign(method, rawURL, merged, creds.APISecret, creds.AccessSecret)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, percentEncode(k)+"=\""+percentEncode(oauthParams[k])+"\"")
	}
	return "OAuth " + strings.Join(parts, ", ")
}

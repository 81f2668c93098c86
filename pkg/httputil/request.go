package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// MaxBodyBytes bounds how much of a request body is buffered for inspection
const MaxBodyBytes = 1 << 20

// ErrBodyTooLarge is returned when a body exceeds MaxBodyBytes
var ErrBodyTooLarge = errors.New("request body too large")

// Source names where a request value was found
type Source string

const (
	SourceNone  Source = ""
	SourceRoute Source = "route"
	SourceBody  Source = "body"
	SourceQuery Source = "query"
)

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes error response on failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// PathParam returns a route parameter, or "" when absent
func PathParam(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}

// ParsePathString extracts a required string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	str := PathParam(r, key)
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// PeekBody reads the request body and replaces r.Body with an equivalent
// reader, so later handlers can read it again.
func PeekBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	_ = r.Body.Close()
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(data))
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	if len(data) > MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// BodyFields decodes the top-level JSON object of the body without
// consuming it. A body that is empty or not a JSON object yields no fields.
func BodyFields(r *http.Request) (map[string]json.RawMessage, error) {
	data, err := PeekBody(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil
	}
	return fields, nil
}

// BodyField returns a top-level body value as a string. Strings are
// unquoted, other scalars keep their JSON text. Null, empty strings,
// objects and arrays count as absent.
func BodyField(r *http.Request, name string) (string, bool, error) {
	fields, err := BodyFields(r)
	if err != nil {
		return "", false, err
	}
	return fieldString(fields, name)
}

func fieldString(fields map[string]json.RawMessage, name string) (string, bool, error) {
	raw, ok := fields[name]
	if !ok {
		return "", false, nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return "", false, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false, nil
		}
		if strings.TrimSpace(s) == "" {
			return "", false, nil
		}
		return s, true, nil
	case '{', '[':
		return "", false, nil
	default:
		return string(trimmed), true, nil
	}
}

// FirstValue looks a value up in the route parameters, then the JSON body,
// then the query string, returning the first non-empty hit and where it
// was found.
func FirstValue(r *http.Request, name string) (string, Source, error) {
	if v := PathParam(r, name); v != "" {
		return v, SourceRoute, nil
	}

	v, ok, err := BodyField(r, name)
	if err != nil {
		return "", SourceNone, err
	}
	if ok {
		return v, SourceBody, nil
	}

	if v := r.URL.Query().Get(name); v != "" {
		return v, SourceQuery, nil
	}
	return "", SourceNone, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// TrustedProxies lists the networks whose forwarding headers are believed
type TrustedProxies []*net.IPNet

// ParseTrustedProxies parses CIDRs or bare IPs
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(entries))
	for _, entry := range entries {
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		out = append(out, network)
	}
	return out, nil
}

// Contains reports whether ip is a trusted proxy
func (t TrustedProxies) Contains(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range t {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

// ClientIP returns the address of the caller without its port. Forwarding
// headers are only consulted when the direct peer is a trusted proxy; the
// client is then the right-most X-Forwarded-For hop that is not itself
// trusted, or X-Real-IP when no X-Forwarded-For is present.
func ClientIP(r *http.Request, trusted TrustedProxies) string {
	peer := hostOnly(r.RemoteAddr)
	if !trusted.Contains(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if i == 0 || !trusted.Contains(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Package auth authenticates joining online mode players with Mojang's session server.
package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/portalmc/portal/pkg/util/profile"
)

// Authenticator is a Mojang user authenticator.
type Authenticator interface {
	// PublicKey returns the public key encoded in ASN.1 DER form.
	PublicKey() []byte
	// Verify verifies the "verify token" sent by a joining client.
	Verify(encryptedVerifyToken, actualVerifyToken []byte) (equal bool, err error)
	// DecryptSharedSecret decrypts the shared secret sent by the client.
	DecryptSharedSecret(encrypted []byte) (decrypted []byte, err error)
	// GenerateServerID generates the server id to be used with AuthenticateJoin.
	GenerateServerID(decryptedSharedSecret []byte) (serverID string, err error)
	// AuthenticateJoin authenticates a joining user. The ip is optional.
	AuthenticateJoin(ctx context.Context, serverID, username, ip string) (Response, error)
	// SetHasJoinedURLFn sets the HasJoinedURLFn.
	// If not set, DefaultHasJoinedURL is used.
	SetHasJoinedURLFn(fn HasJoinedURLFn)
}

// Response is the authentication response.
type Response interface {
	OnlineMode() bool // Whether the user is in online mode
	// GameProfile extracts the GameProfile from an authenticated client.
	// Returns an error if OnlineMode is false.
	GameProfile() (*profile.GameProfile, error)
}

// HasJoinedURLFn builds the url used to authenticate a joining online
// mode user. The userIP is optional. DefaultHasJoinedURL is the default.
type HasJoinedURLFn func(serverID, username, userIP string) string

const defaultHasJoinedEndpoint = `https://sessionserver.mojang.com/session/minecraft/hasJoined`

var defaultHasJoinedBaseURL, _ = url.Parse(defaultHasJoinedEndpoint)

// DefaultHasJoinedURL returns the official Mojang hasJoined url for
// the given serverID and username. The userIP is optional.
func DefaultHasJoinedURL(serverID, username, userIP string) string {
	return buildHasJoinedURL(defaultHasJoinedBaseURL, serverID, username, userIP)
}

// CustomHasJoinedURL returns a HasJoinedURLFn querying baseURL instead
// of the official Mojang API.
func CustomHasJoinedURL(baseURL *url.URL) HasJoinedURLFn {
	if baseURL == nil {
		baseURL = defaultHasJoinedBaseURL
	}
	return func(serverID, username, userIP string) string {
		return buildHasJoinedURL(baseURL, serverID, username, userIP)
	}
}

func buildHasJoinedURL(baseURL *url.URL, serverID, username, userIP string) string {
	query := url.Values{}
	query.Set("serverId", serverID)
	query.Set("username", username)
	if userIP != "" {
		query.Set("ip", userIP)
	}
	return baseURL.ResolveReference(&url.URL{RawQuery: query.Encode()}).String()
}

// DefaultPrivateKeyBits is the default bit size of a generated private
// key, matching what the vanilla server uses.
const DefaultPrivateKeyBits = 1024

// Options to create a new Authenticator.
type Options struct {
	// HasJoinedURLFn allows an authentication url other than the
	// official "hasJoined" Mojang API endpoint.
	// If not set, DefaultHasJoinedURL is used.
	HasJoinedURLFn HasJoinedURLFn
	// The proxy's private key.
	// If none is set, a new one will be generated.
	PrivateKey *rsa.PrivateKey
	// If PrivateKey is not set, the bit size of a generated private key.
	// The default is DefaultPrivateKeyBits.
	PrivateKeyBits int
	// The http client to query the Mojang API.
	// If none is set, a new one is created.
	Client *http.Client
}

// New returns a new Authenticator.
func New(options Options) (Authenticator, error) {
	key := options.PrivateKey
	if key == nil {
		bits := options.PrivateKeyBits
		if bits == 0 {
			bits = DefaultPrivateKeyBits
		}
		var err error
		if key, err = rsa.GenerateKey(rand.Reader, bits); err != nil {
			return nil, fmt.Errorf("error generating private key: %w", err)
		}
	}
	key.Precompute()

	pubDER, err := x509.MarshalPKIXPublicKey(key.Public())
	if err != nil {
		return nil, fmt.Errorf("error encoding public key to PKIX, ASN.1 DER: %w", err)
	}

	httpClient := options.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Second * 10}
	}

	hasJoinedURLFn := options.HasJoinedURLFn
	if hasJoinedURLFn == nil {
		hasJoinedURLFn = DefaultHasJoinedURL
	}

	return &authenticator{
		key:            key,
		pubDER:         pubDER,
		httpClient:     httpClient,
		hasJoinedURLFn: hasJoinedURLFn,
	}, nil
}

type authenticator struct {
	key            *rsa.PrivateKey
	pubDER         []byte // public key in ASN.1 DER form
	httpClient     *http.Client
	hasJoinedURLFn HasJoinedURLFn
}

var _ Authenticator = (*authenticator)(nil)

func (a *authenticator) PublicKey() []byte { return a.pubDER }

func (a *authenticator) SetHasJoinedURLFn(fn HasJoinedURLFn) {
	if fn == nil {
		fn = DefaultHasJoinedURL
	}
	a.hasJoinedURLFn = fn
}

func (a *authenticator) Verify(encryptedVerifyToken, actualVerifyToken []byte) (bool, error) {
	decrypted, err := rsa.DecryptPKCS1v15(rand.Reader, a.key, encryptedVerifyToken)
	if err != nil {
		return false, fmt.Errorf("error decrypting verify token: %w", err)
	}
	return bytes.Equal(decrypted, actualVerifyToken), nil
}

func (a *authenticator) DecryptSharedSecret(encrypted []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, a.key, encrypted)
}

// GenerateServerID hashes the shared secret with the proxy's public
// key into the serverId the session server expects.
func (a *authenticator) GenerateServerID(decryptedSharedSecret []byte) (string, error) {
	h := sha1.New()
	if _, err := h.Write(decryptedSharedSecret); err != nil {
		return "", fmt.Errorf("error writing sha1: %w", err)
	}
	if _, err := h.Write(a.pubDER); err != nil {
		return "", fmt.Errorf("error writing sha1: %w", err)
	}
	return javaHexDigest(h.Sum(nil)), nil
}

// javaHexDigest encodes a digest as a signed big integer in hex,
// the way Minecraft computes the serverId hash.
func javaHexDigest(hash []byte) string {
	var s strings.Builder
	if (hash[0] & 0x80) == 0x80 {
		hash = twosComplement(hash)
		s.WriteRune('-')
	}
	s.WriteString(strings.TrimLeft(hex.EncodeToString(hash), "0"))
	return s.String()
}

// big endian!
func twosComplement(p []byte) []byte {
	carry := true
	for i := len(p) - 1; i >= 0; i-- {
		p[i] = ^p[i]
		if carry {
			carry = p[i] == 0xff
			p[i]++
		}
	}
	return p
}

func (a *authenticator) AuthenticateJoin(ctx context.Context, serverID, username, ip string) (Response, error) {
	hasJoinedURL := a.hasJoinedURLFn(serverID, username, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hasJoinedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating authentication request: %w", err)
	}

	log := logr.FromContextOrDiscard(ctx).V(1).WithName("authnJoin")
	log.Info("authenticating user against sessionserver", "url", hasJoinedURL)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error authenticating join with Mojang sessionserver: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		// The client's session auth token is invalid or outdated, the
		// player needs to restart the game or re-login to Mojang.
	case http.StatusNoContent:
		log.Info("sessionserver could not find user, potentially offline mode")
	default:
		return nil, fmt.Errorf("got unexpected status code (%d) from Mojang sessionserver", resp.StatusCode)
	}

	onlineMode := resp.StatusCode == http.StatusOK && len(body) != 0

	log.Info("user authenticated against sessionserver",
		"onlineMode", onlineMode,
		"time", time.Since(start).String(),
		"statusCode", resp.StatusCode)

	return &response{onlineMode: onlineMode, body: body}, nil
}

type response struct {
	onlineMode bool

	once sync.Once // unmarshal body once
	body []byte

	gp  *profile.GameProfile
	err error
}

func (r *response) OnlineMode() bool { return r.onlineMode }

func (r *response) GameProfile() (*profile.GameProfile, error) {
	r.once.Do(func() {
		r.gp, r.err = r.gameProfile()
		r.body = nil
	})
	return r.gp, r.err
}

func (r *response) gameProfile() (*profile.GameProfile, error) {
	if r == nil || !r.onlineMode {
		return nil, errors.New("no GameProfile for offline mode user")
	}
	var p profile.GameProfile
	if err := json.Unmarshal(r.body, &p); err != nil {
		return nil, fmt.Errorf("error unmarshaling GameProfile: %w", err)
	}
	if p.Name == "" {
		return nil, errors.New("response body misses username")
	}
	return &p, nil
}

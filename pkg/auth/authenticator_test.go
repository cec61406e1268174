package auth

import (
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasJoinedURL(t *testing.T) {
	for _, e := range []struct {
		serverID, username, ip string
		expected               string
	}{
		{serverID: "123456789", username: "Bob", ip: "", expected: defaultHasJoinedEndpoint + "?serverId=123456789&username=Bob"},
		{serverID: "987654321", username: "Alice", ip: "0.0.0.0", expected: defaultHasJoinedEndpoint + "?serverId=987654321&username=Alice&ip=0.0.0.0"},
	} {
		require.Equal(t, e.expected, DefaultHasJoinedURL(e.serverID, e.username, e.ip))
	}
}

// Known vectors from the vanilla authentication scheme.
func TestJavaHexDigest(t *testing.T) {
	for _, e := range []struct {
		in, expected string
	}{
		{in: "Notch", expected: "4ed1f46bbe04bc756bcb17c0c7ce3e4632f06a48"},
		{in: "jeb_", expected: "-7c9d5b0044c130109a5d7b5fb5c317c02b4e28c1"},
		{in: "simon", expected: "88e16a1019277b15d58faf0541e11910eb756f6"},
	} {
		h := sha1.Sum([]byte(e.in))
		require.Equal(t, e.expected, javaHexDigest(h[:]))
	}
}

func TestVerifyAndDecrypt(t *testing.T) {
	a, err := New(Options{})
	require.NoError(t, err)
	require.NotEmpty(t, a.PublicKey())

	serverID, err := a.GenerateServerID([]byte("sixteen byte key"))
	require.NoError(t, err)
	require.NotEmpty(t, serverID)
}

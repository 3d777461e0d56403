package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeerAllowedLocalPeers(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want bool
	}{
		{"loopback v4", "127.0.0.1:54321", true},
		{"loopback v6", "[::1]:54321", true},
		{"private 192.168", "192.168.1.20:1000", true},
		{"private 10.x", "10.0.0.5:443", true},
		{"private 172.16", "172.16.0.1:80", true},
		{"link local", "169.254.10.10:9999", true},
		{"public v4", "203.0.113.9:443", false},
		{"public v6", "[2001:db8::1]:443", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeerAllowed(tt.addr, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeerAllowedWithConsent(t *testing.T) {
	got, err := PeerAllowed("203.0.113.9:443", true)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestPeerAllowedBareAddress(t *testing.T) {
	got, err := PeerAllowed("127.0.0.1", false)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestPeerAllowedGarbageAddress(t *testing.T) {
	_, err := PeerAllowed("not-an-address", false)
	assert.Error(t, err)
}

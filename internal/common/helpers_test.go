package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLamportsToSOL(t *testing.T) {
	tests := []struct {
		lamports uint64
		expected string
	}{
		{0, "0.000000000"},
		{1, "0.000000001"},
		{24981836, "0.024981836"},
		{1_000_000_000, "1.000000000"},
		{12_500_000_000, "12.500000000"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, LamportsToSOL(tt.lamports))
	}
}

func TestSOLToLamports(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected uint64
		wantErr  bool
	}{
		{name: "whole", in: "2", expected: 2_000_000_000},
		{name: "fraction", in: "0.5", expected: 500_000_000},
		{name: "leading dot", in: ".25", expected: 250_000_000},
		{name: "truncates extra decimals", in: "0.0000000019", expected: 1},
		{name: "spaces", in: " 1.1 ", expected: 1_100_000_000},
		{name: "zero", in: "0", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "negative", in: "-1", wantErr: true},
		{name: "two dots", in: "1.2.3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SOLToLamports(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestTruncateAddress(t *testing.T) {
	require.Equal(t, "HAgk14...Kpqk", TruncateAddress("HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk"))
	require.Equal(t, "short", TruncateAddress("short"))
}

func TestIsLocalCaller(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{name: "cli", host: "127.0.0.1:8080", want: true},
		{name: "localhost", host: "localhost:8080", origin: "http://localhost:8080", want: true},
		{name: "ipv6 loopback", host: "[::1]:8080", origin: "http://[::1]:8080", want: true},
		{name: "no port", host: "localhost", want: true},
		{name: "rebound name", host: "evil.example:8080", origin: "http://evil.example:8080"},
		{name: "rebound name without origin", host: "evil.example:8080"},
		{name: "foreign origin", host: "127.0.0.1:8080", origin: "https://evil.example"},
		{name: "other port", host: "127.0.0.1:8080", origin: "http://127.0.0.1:3000"},
		{name: "lan address", host: "192.168.1.10:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsLocalCaller(tt.host, tt.origin))
		})
	}
}

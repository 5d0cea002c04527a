package checker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhoisExpiryFieldPriority(t *testing.T) {
	body := `Domain Name: EXAMPLE.COM
Registry Expiry Date: 2026-08-13T04:00:00Z
Registrar Registration Expiration Date: 2026-09-01T00:00:00Z
Expiration Date: 2026-01-01
`
	expiry, found := ParseWhoisExpiry(body)
	require.True(t, found)

	// The registrar's own field outranks the registry field.
	assert.Equal(t, 2026, expiry.Year())
	assert.Equal(t, time.September, expiry.Month())
}

func TestParseWhoisExpiryLayouts(t *testing.T) {
	cases := []struct {
		name string
		body string
		want time.Time
	}{
		{
			name: "rfc3339",
			body: "Registry Expiry Date: 2026-08-13T04:00:00Z",
			want: time.Date(2026, 8, 13, 4, 0, 0, 0, time.UTC),
		},
		{
			name: "date only",
			body: "Expiration Date: 2026-08-13",
			want: time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "day-month-year",
			body: "Expiration Date: 13-Aug-2026",
			want: time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "paid-till",
			body: "paid-till: 2026.08.13",
			want: time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "trailing annotation",
			body: "Expiration Date: 2026-08-13 (registrar)",
			want: time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expiry, found := ParseWhoisExpiry(tc.body)
			require.True(t, found)
			assert.True(t, tc.want.Equal(expiry), "got %s", expiry)
		})
	}
}

func TestParseWhoisExpiryAbsent(t *testing.T) {
	body := `Domain Name: EXAMPLE.DE
Status: connect
Changed: 2024-01-01T00:00:00+01:00
`
	_, found := ParseWhoisExpiry(body)
	assert.False(t, found)
}

func TestParseWhoisExpiryIgnoresUnparseableDates(t *testing.T) {
	body := "Registry Expiry Date: soon\nExpiration Date: 2026-08-13\n"
	expiry, found := ParseWhoisExpiry(body)
	require.True(t, found)
	assert.Equal(t, 2026, expiry.Year())
}

package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAttributeExpressions(t *testing.T) {
	attrs := map[string]string{
		"filename": "orders.csv",
		"region":   "eu",
	}
	for scenario, tc := range map[string]struct {
		in   string
		want string
	}{
		"no tokens":       {in: "plain", want: "plain"},
		"single token":    {in: "{$.filename}", want: "orders.csv"},
		"embedded tokens": {in: "/data/{$.region}/{$.filename}", want: "/data/eu/orders.csv"},
		"missing key":     {in: "x-{$.absent}", want: "x-"},
		"non path token":  {in: "{literal}", want: "{literal}"},
		"repeated token":  {in: "{$.region}-{$.region}", want: "eu-eu"},
	} {
		t.Run(scenario, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveAttributeExpressions(attrs, tc.in))
		})
	}
}

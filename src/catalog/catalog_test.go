package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	ep, ok := c.Lookup("/capi/v2/order/placeTpSlOrder")
	require.True(t, ok)
	assert.Equal(t, GroupOrder, ep.Group)
	assert.Equal(t, "POST", ep.Method)
	assert.True(t, ep.Signed)

	ep, ok = c.Lookup("/capi/v2/market/ticker")
	require.True(t, ok)
	assert.Equal(t, GroupMarket, ep.Group)
	assert.False(t, ep.Signed)

	ep, ok = c.Lookup("/capi/v2/account/assets")
	require.True(t, ok)
	assert.Equal(t, GroupAccount, ep.Group)

	_, ok = c.Lookup("/capi/v2/nope")
	assert.False(t, ok)
}

func TestAllIsOrdered(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	all := c.All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		if prev.Group == cur.Group {
			assert.Less(t, prev.Path, cur.Path)
		} else {
			assert.Less(t, string(prev.Group), string(cur.Group))
		}
	}

	all[0].Path = "mutated"
	assert.NotEqual(t, "mutated", c.All()[0].Path)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"bad yaml":       "groups: [",
		"bad method":     "groups:\n  market:\n    - {method: PUT, path: /capi/v2/x}\n",
		"relative path":  "groups:\n  market:\n    - {method: GET, path: capi/v2/x}\n",
		"duplicate path": "groups:\n  market:\n    - {method: GET, path: /a}\n  order:\n    - {method: POST, path: /a}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseNormalisesMethod(t *testing.T) {
	c, err := Parse([]byte("groups:\n  order:\n    - {method: post, path: /capi/v2/order/placeOrder, signed: true}\n"))
	require.NoError(t, err)
	ep, ok := c.Lookup("/capi/v2/order/placeOrder")
	require.True(t, ok)
	assert.Equal(t, "POST", ep.Method)
}

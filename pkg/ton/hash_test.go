package ton

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHash(t *testing.T) {
	const (
		b64 = "X+zrZv/IbzjZUnhsbWlsecLbwjndTpG0ZynXOif7V+k="
		hx  = "5feceb66ffc86f38d952786c6d696c79c2dbc239dd4e91b46729d73a27fb57e9"
	)

	fromB64, err := ParseHash(b64)
	require.NoError(t, err)
	assert.Equal(t, hx, fromB64.Hex())
	assert.Equal(t, b64, fromB64.String())

	fromHex, err := ParseHash(hx)
	require.NoError(t, err)
	assert.Equal(t, fromB64, fromHex)

	fromURL, err := ParseHash("X-zrZv_IbzjZUnhsbWlsecLbwjndTpG0ZynXOif7V-k=")
	require.NoError(t, err)
	assert.Equal(t, fromB64, fromURL)

	_, err = ParseHash("AAAA")
	assert.Error(t, err)

	_, err = ParseHash("%%%")
	assert.Error(t, err)
}

func TestHashJSON(t *testing.T) {
	var h HashBytes
	require.NoError(t, json.Unmarshal([]byte(`"a4ayc/80/OGda4BO/1o/V0etpOqiLx1JwB5S3beHW0s="`), &h))
	assert.Equal(t, "6b86b273ff34fce19d6b804eff5a3f5747ada4eaa22f1d49c01e52ddb7875b4b", h.Hex())

	out, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, `"a4ayc/80/OGda4BO/1o/V0etpOqiLx1JwB5S3beHW0s="`, string(out))
}

package kvstore

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/toncenter-indexer/pkg/infra"
)

func TestMigrate_BadgerToRedis(t *testing.T) {
	src, err := NewBadgerStore("", "src", infra.JSON)
	require.NoError(t, err)
	defer src.Close()

	mr := miniredis.RunT(t)
	dst, err := NewRedisStore(RedisOptions{Addr: mr.Addr(), Prefix: "dst", Codec: infra.JSON})
	require.NoError(t, err)
	defer dst.Close()

	require.NoError(t, src.Set("ton/cursor/0:aa", []byte(`{"last_lt":"7"}`)))
	require.NoError(t, src.Set("ton/cursor/0:bb", []byte(`{"last_lt":"9"}`)))
	require.NoError(t, src.Set("ton/tracked", []byte(`["0:aa"]`)))
	require.NoError(t, src.Set("unrelated", []byte("x")))

	t.Run("dry run writes nothing", func(t *testing.T) {
		res, err := Migrate(src, dst, MigrateOptions{Prefixes: []string{"ton/"}, DryRun: true})
		require.NoError(t, err)
		assert.Len(t, res.Keys, 3)
		assert.Zero(t, res.Copied)

		_, err = dst.Get("ton/tracked")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("copies and verifies", func(t *testing.T) {
		var progress []int
		res, err := Migrate(src, dst, MigrateOptions{
			Prefixes: []string{"ton/cursor/", "ton/tracked"},
			Verify:   true,
			Progress: func(done, _ int) { progress = append(progress, done) },
		})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Copied)
		assert.Equal(t, []int{1, 2, 3}, progress)

		got, err := dst.Get("ton/cursor/0:bb")
		require.NoError(t, err)
		assert.Equal(t, `{"last_lt":"9"}`, string(got))

		_, err = dst.Get("unrelated")
		assert.ErrorIs(t, err, ErrKeyNotFound)
		assert.True(t, mr.Exists("dst/ton/tracked"))
	})
}

func TestMigrate_RequiresPrefix(t *testing.T) {
	src, err := NewBadgerStore("", "", nil)
	require.NoError(t, err)
	defer src.Close()

	_, err = Migrate(src, src, MigrateOptions{})
	assert.Error(t, err)
}

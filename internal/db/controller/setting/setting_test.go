package setting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/testdb"
)

func TestArguments(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	_, err := Get(ctx, nil, "seed")
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Get(ctx, db, "")
	require.ErrorIs(t, err, ErrSettingNameEmpty)

	require.ErrorIs(t, Set(ctx, db, "", nil), ErrSettingNameEmpty)
	require.ErrorIs(t, Delete(ctx, nil, "seed"), ErrDBNil)
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)

	_, err := Get(ctx, db, "seed.revision")
	require.ErrorIs(t, err, ErrSettingNotFound)

	require.NoError(t, Set(ctx, db, "seed.revision", []byte("1")))
	require.NoError(t, Set(ctx, db, "seed.revision", []byte("2")))

	value, err := Get(ctx, db, "seed.revision")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), value)

	require.NoError(t, Delete(ctx, db, "seed.revision"))
	require.ErrorIs(t, Delete(ctx, db, "seed.revision"), ErrSettingNotFound)
}

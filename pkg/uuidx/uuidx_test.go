package uuidx_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fabric/pkg/uuidx"
)

func TestNew(t *testing.T) {
	t.Parallel()

	id := uuidx.New()
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, uuid.RFC4122, id.Variant())
	assert.NotEqual(t, id, uuidx.New())
}

func TestNewString(t *testing.T) {
	t.Parallel()

	s := uuidx.NewString()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Regexp(t, "^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$", s)
}

func TestNewString_Sortable(t *testing.T) {
	t.Parallel()

	first := uuidx.NewString()
	second := uuidx.NewString()
	assert.LessOrEqual(t, first, second)
}

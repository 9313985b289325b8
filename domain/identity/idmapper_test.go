package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDMapperAllocatesFromTargetGenerator(t *testing.T) {
	gen, err := ReconstructIDGen(5)
	require.NoError(t, err)
	mapper := NewIDMapper(gen)

	assert.Equal(t, "5", mapper.MapID("0"))
	assert.Equal(t, "6", mapper.MapID("1"))

	// Repeating a foreign id yields the same local id, not a new one.
	assert.Equal(t, "5", mapper.MapID("0"))
	assert.Equal(t, 2, mapper.Len())
	assert.Equal(t, int64(7), gen.Counter())
}

func TestIDMapperMapIDsPreservesOrder(t *testing.T) {
	mapper := NewIDMapper(NewIDGen())

	mapped := mapper.MapIDs([]string{"a", "b", "a", "c"})
	assert.Equal(t, []string{"0", "1", "0", "2"}, mapped)

	assert.Nil(t, mapper.MapIDs(nil))
}

func TestIDMapperNeverCollidesWithExistingIDs(t *testing.T) {
	gen := NewIDGen()
	existing := map[string]bool{}
	for i := 0; i < 10; i++ {
		existing[gen.Allocate()] = true
	}

	mapper := NewIDMapper(gen)
	for _, foreign := range []string{"0", "1", "2", "x"} {
		local := mapper.MapID(foreign)
		assert.False(t, existing[local], "mapped id %s collides with existing id", local)
	}
}

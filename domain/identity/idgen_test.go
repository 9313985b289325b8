package identity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
)

func TestIDGenAllocatesSequentially(t *testing.T) {
	gen := NewIDGen()

	assert.Equal(t, "0", gen.Allocate())
	assert.Equal(t, "1", gen.Allocate())
	assert.Equal(t, "2", gen.Allocate())
	assert.Equal(t, int64(3), gen.Counter())
}

func TestIDGenNeverReusesIDs(t *testing.T) {
	gen := NewIDGen()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.Allocate()
		require.False(t, seen[id], "id %s allocated twice", id)
		seen[id] = true
	}
}

func TestReconstructIDGen(t *testing.T) {
	gen, err := ReconstructIDGen(5)
	require.NoError(t, err)
	assert.Equal(t, "5", gen.Allocate())

	_, err = ReconstructIDGen(-1)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestIDGenJSONRoundTrip(t *testing.T) {
	gen := NewIDGen()
	gen.Allocate()
	gen.Allocate()

	data, err := json.Marshal(gen)
	require.NoError(t, err)
	assert.JSONEq(t, `{"counter":2}`, string(data))

	var restored IDGen
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, "2", restored.Allocate())
}

func TestIDGenUnmarshalRejectsBadState(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing counter", `{}`},
		{"negative counter", `{"counter":-1}`},
		{"non-integer counter", `{"counter":1.5}`},
		{"string counter", `{"counter":"two"}`},
		{"not an object", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gen IDGen
			err := json.Unmarshal([]byte(tt.payload), &gen)
			assert.Error(t, err)
		})
	}
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAny(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Value
		wantErr bool
	}{
		{name: "nil", in: nil, want: Null},
		{name: "string", in: "hello", want: String("hello")},
		{name: "bool", in: true, want: Bool(true)},
		{name: "int", in: 42, want: Number(42)},
		{name: "int64", in: int64(7), want: Number(7)},
		{name: "float64", in: 3.5, want: Number(3.5)},
		{name: "slice is not a scalar", in: []any{1, 2}, wantErr: true},
		{name: "map is not a scalar", in: map[string]any{"a": 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, String("a").Equal(String("a")))
	assert.False(t, String("a").Equal(String("b")))
	assert.False(t, String("1").Equal(Number(1)))
	assert.True(t, Null.Equal(Null))
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Opaque().Equal(Opaque()))
}

func TestValue_Any(t *testing.T) {
	assert.Nil(t, Null.Any())
	assert.Equal(t, "x", String("x").Any())
	assert.Equal(t, 2.0, Number(2).Any())
	assert.Equal(t, true, Bool(true).Any())
	assert.Nil(t, Opaque().Any())
}

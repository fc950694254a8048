package cpf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "valid plain", input: "52998224725", want: true},
		{name: "valid formatted", input: "529.982.247-25", want: true},
		{name: "valid alternate", input: "111.444.777-35", want: true},
		{name: "wrong first check digit", input: "52998224735", want: false},
		{name: "wrong second check digit", input: "52998224724", want: false},
		{name: "repeated digits", input: "00000000000", want: false},
		{name: "repeated digits formatted", input: "111.111.111-11", want: false},
		{name: "too short", input: "1234567", want: false},
		{name: "too long", input: "529982247251", want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Valid(tt.input))
		})
	}
}

func TestStrip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "52998224725", Strip("529.982.247-25"))
	assert.Equal(t, "", Strip("abc"))
}

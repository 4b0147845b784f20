package team_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamvault/teamvault/internal/team"
)

func TestGenerateCode_LengthAndAlphabet(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		code, err := team.GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, team.CodeLength)
		for _, c := range code {
			require.True(t, strings.ContainsRune(team.CodeAlphabet, c), "unexpected character %q in %q", c, code)
		}
		assert.True(t, team.ValidCode(code))
	}
}

func TestCodeAlphabet_ExcludesAmbiguousCharacters(t *testing.T) {
	t.Parallel()

	for _, c := range "0O1IL" {
		assert.False(t, strings.ContainsRune(team.CodeAlphabet, c), "alphabet must not contain %q", c)
	}
}

func TestGenerateCode_UsesWholeAlphabet(t *testing.T) {
	t.Parallel()

	seen := map[rune]bool{}
	for i := 0; i < 2000; i++ {
		code, err := team.GenerateCode()
		require.NoError(t, err)
		for _, c := range code {
			seen[c] = true
		}
	}
	assert.Len(t, seen, len(team.CodeAlphabet))
}

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ABC234", team.NormalizeCode("  abc234 "))
	assert.Equal(t, "ABC234", team.NormalizeCode("ABC234"))
}

func TestValidCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want bool
	}{
		{"ABC234", true},
		{"abc234", false},
		{"ABC23", false},
		{"ABC2345", false},
		{"ABC230", false},
		{"ABCDEO", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, team.ValidCode(tt.code), "code %q", tt.code)
	}
}

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUserJoin(t *testing.T) {
	spec := NewUserJoin("ext-1", "Alice")
	assert.Equal(t, JoinUser, spec.Kind)
	assert.Equal(t, "ext-1", spec.ExternalUserID)
}

func TestNewAnonymousJoin(t *testing.T) {
	spec := NewAnonymousJoin("Guest")
	assert.Equal(t, JoinAnonymous, spec.Kind)
	assert.Empty(t, spec.ExternalUserID)
}

func TestNewAIJoin(t *testing.T) {
	spec := NewAIJoin("Bot", DifficultyHard)
	assert.Equal(t, JoinAI, spec.Kind)
	assert.Equal(t, DifficultyHard, spec.AIDifficulty)
}

// Package identity describes how a seat is claimed at join time,
// generalized from the teacher's phone-number-only player identification
// into the three join kinds the engine must support.
package identity

// JoinKind distinguishes the three ways a seat can be claimed.
type JoinKind string

const (
	JoinUser      JoinKind = "user"
	JoinAnonymous JoinKind = "anonymous"
	JoinAI        JoinKind = "ai"
)

// Difficulty mirrors gamestate.Difficulty without importing it, so this
// package stays a pure leaf with no dependency on the game core.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// JoinSpec is the caller-supplied description of a new seat. The engine
// stores these fields verbatim; it never authenticates ExternalUserID —
// that is the caller's responsibility.
type JoinSpec struct {
	Kind           JoinKind
	DisplayName    string
	ExternalUserID string     // set only when Kind == JoinUser
	AIDifficulty   Difficulty // set only when Kind == JoinAI
}

// NewUserJoin builds a JoinSpec for an authenticated external user.
func NewUserJoin(externalUserID, displayName string) JoinSpec {
	return JoinSpec{Kind: JoinUser, ExternalUserID: externalUserID, DisplayName: displayName}
}

// NewAnonymousJoin builds a JoinSpec for a guest seat.
func NewAnonymousJoin(displayName string) JoinSpec {
	return JoinSpec{Kind: JoinAnonymous, DisplayName: displayName}
}

// NewAIJoin builds a JoinSpec for a computer-controlled seat.
func NewAIJoin(displayName string, difficulty Difficulty) JoinSpec {
	return JoinSpec{Kind: JoinAI, DisplayName: displayName, AIDifficulty: difficulty}
}

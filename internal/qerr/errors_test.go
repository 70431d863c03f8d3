package qerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	cause := errors.New("combined skip and take")
	err := UnsupportedIn("sqlserver", "paging", cause)

	assert.Equal(t, "UNSUPPORTED_CONSTRUCT [sqlserver] paging: combined skip and take", err.Error())
	assert.ErrorIs(t, err, cause)

	err2 := ContractViolation("Include", "only valid in projection mode")
	assert.Equal(t, "CONTRACT_VIOLATION Include: only valid in projection mode", err2.Error())
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	base := EvaluationFailure(errors.New("boom"), "evaluate %s", "p.Name")
	wrapped := fmt.Errorf("partial-evaluate: %w", base)

	assert.True(t, IsEvaluationFailure(wrapped))
	assert.False(t, IsUnsupported(wrapped))
	assert.False(t, IsContractViolation(wrapped))
	assert.Equal(t, CodeEvaluationFailure, CodeOf(wrapped))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

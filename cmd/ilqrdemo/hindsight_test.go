package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriorAcceptsTwoEntries(t *testing.T) {
	prior, err := parsePrior("0.3, 0.7")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, prior[0], 1e-12)
	assert.InDelta(t, 0.7, prior[1], 1e-12)
}

func TestParsePriorRejectsWrongArity(t *testing.T) {
	_, err := parsePrior("0.3,0.3,0.4")
	assert.Error(t, err)
}

func TestParsePriorRejectsNonNumeric(t *testing.T) {
	_, err := parsePrior("abc,0.5")
	assert.Error(t, err)
}

func TestPolicyFlagConstantsMatchOriginalToString(t *testing.T) {
	assert.Equal(t, "hindsight", policyHindsight)
	assert.Equal(t, "ilqr_true", policyTrueILQR)
	assert.Equal(t, "argmax", policyArgmaxILQR)
	assert.Equal(t, "weighted", policyProbWeightedControl)
}

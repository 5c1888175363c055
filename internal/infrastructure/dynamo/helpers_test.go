package dynamo

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldDaysRemaining: 12})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": fieldDaysRemaining}, ue.Names)
	n, ok := ue.Values[":v0"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "12", n.Value)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	updates := map[string]interface{}{
		fieldReadAt:         now,
		fieldIsRead:         true,
		fieldAcknowledgedBy: "u1",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)
	// acknowledged_by < is_read < read_at
	assert.Equal(t, fieldAcknowledgedBy, ue1.Names["#f0"])
	assert.Equal(t, fieldIsRead, ue1.Names["#f1"])
	assert.Equal(t, fieldReadAt, ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldIsRead: true})
	require.NoError(t, err)
	boolVal, isBool := ue.Values[":v0"].(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestIsConditionFailed(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", &types.ConditionalCheckFailedException{})
	assert.True(t, isConditionFailed(wrapped))
	assert.False(t, isConditionFailed(errors.New("boom")))
}

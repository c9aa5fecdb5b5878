package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
)

func TestLog_WritesAuditFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(log.Config{Level: "info", Output: &buf}))

	Log(ctx, ActionFollow, "u1", "u2", "followed user")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, log.LogTypeAudit, entry[log.FieldLogType])
	assert.Equal(t, ActionFollow, entry[FieldAction])
	assert.Equal(t, "u1", entry[log.FieldUserID])
	assert.Equal(t, "u2", entry[log.FieldTargetID])
}

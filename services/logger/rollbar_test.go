package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrhat05/Doubtroom/core"
)

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.Conf)
	logger.Enable(false)

	logger.Warn("orphaned asset",
		errors.New("boom"),
		map[string]interface{}{"file_id": "questions/1.jpg", "attempt": 2},
		core.LogPerson{ID: "1", Email: "a@b.com"},
	)

	assert.Equal(t, "WARNING orphaned asset\n  boom\n  attempt=2\n  file_id=questions/1.jpg\n  user=1\n", buf.String())
}

func TestRollbarLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger := &RollbarLogger{std: log.New(&buf, "", 0)}

	logger.Debug("polling")
	assert.Empty(t, buf.String())

	logger.debug = true
	logger.Debug("polling", errors.New("timeout"))
	assert.Equal(t, "DEBUG polling\n  timeout\n", buf.String())
}

package queue

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestStreamNames(t *testing.T) {
	q := &RedisQueue{streamPrefix: "firetechnics:stream:", groupName: "g"}
	require.Equal(t, "firetechnics:stream:ContactInquiryTask", q.Stream("ContactInquiryTask"))
	require.Equal(t, "g", q.Group())
}

func TestTaskData(t *testing.T) {
	raw, err := TaskData(&redis.XMessage{ID: "1-0", Values: map[string]interface{}{"task_data": `{"purge":true}`}})
	require.NoError(t, err)
	require.JSONEq(t, `{"purge":true}`, string(raw))

	_, err = TaskData(&redis.XMessage{ID: "2-0", Values: map[string]interface{}{"init": "dummy"}})
	require.Error(t, err)
}

package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// DLQPrefix namespaces the dead-letter list of each job queue.
const DLQPrefix = "dlq:"

// dlqCap bounds each dead-letter list; the oldest entries fall off.
const dlqCap = 1000

// DLQEntry is a buried job plus the reason it was given up on.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

func pushDLQ(ctx context.Context, rdb redis.Cmdable, e DLQEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encode dead letter")
	}
	key := DLQPrefix + e.OriginalQueue
	if _, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, data)
		p.LTrim(ctx, key, 0, dlqCap-1)
		return nil
	}); err != nil {
		return errors.Wrapf(err, "push %s", key)
	}
	return nil
}

// DLQLength is the number of buried jobs of queue.
func DLQLength(ctx context.Context, rdb redis.Cmdable, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// DLQEntries returns up to n buried jobs of queue, newest first.
func DLQEntries(ctx context.Context, rdb redis.Cmdable, queue string, n int64) ([]DLQEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, n-1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read dead letters")
	}
	out := make([]DLQEntry, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal([]byte(r), &out[i]); err != nil {
			return nil, errors.Wrapf(err, "decode dead letter %d", i)
		}
	}
	return out, nil
}

package awsx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// maxLogEvents caps a single fetch, matching the original tooling.
const maxLogEvents = 100

// LogsAPI is the CloudWatch Logs surface needed for log fetching.
type LogsAPI interface {
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

// LogEvent is a single fetched log line.
type LogEvent struct {
	Timestamp time.Time
	Message   string
}

// ParseRange converts a range string (5m, 2h, 1d) to a duration.
func ParseRange(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid time range %q", s)
	}

	value, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid time range %q", s)
	}

	switch s[len(s)-1] {
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid time unit in %q: use m, h or d", s)
	}
}

// FetchFunctionLogs fetches up to maxLogEvents events from a Lambda
// function's log group within the given range, ending now.
func FetchFunctionLogs(ctx context.Context, api LogsAPI, functionName string, within time.Duration) ([]LogEvent, error) {
	group := "/aws/lambda/" + functionName
	end := time.Now()
	start := end.Add(-within)

	input := &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(group),
		StartTime:    aws.Int64(start.UnixMilli()),
		EndTime:      aws.Int64(end.UnixMilli()),
		Limit:        aws.Int32(maxLogEvents),
	}

	var events []LogEvent
	for {
		out, err := api.FilterLogEvents(ctx, input)
		if err != nil {
			var nf *logstypes.ResourceNotFoundException
			if errors.As(err, &nf) {
				return nil, fmt.Errorf("log group %s not found; check the function name", group)
			}
			return nil, fmt.Errorf("filter log events: %w", err)
		}

		for _, ev := range out.Events {
			events = append(events, LogEvent{
				Timestamp: time.UnixMilli(aws.ToInt64(ev.Timestamp)),
				Message:   aws.ToString(ev.Message),
			})
		}

		if out.NextToken == nil || len(events) >= maxLogEvents {
			break
		}
		input.NextToken = out.NextToken
	}

	if len(events) > maxLogEvents {
		events = events[:maxLogEvents]
	}
	return events, nil
}

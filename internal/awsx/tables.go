package awsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TablesAPI is the DynamoDB surface needed for the reindex version bump.
type TablesAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// BumpResult summarises a version-bump pass over a table.
type BumpResult struct {
	Scanned int
	Updated int
	Skipped int // optimistic-lock losers and items without versionId
	DryRun  bool
}

// BumpTableVersions scans a table and increments each item's versionId,
// writing back with an optimistic-lock condition so concurrent writers win.
// Incrementing versionId forces the search indexer to re-emit every item.
// In dry-run mode only the first page is scanned and nothing is written.
func BumpTableVersions(ctx context.Context, api TablesAPI, table string, dryRun bool) (*BumpResult, error) {
	res := &BumpResult{DryRun: dryRun}
	var startKey map[string]ddbtypes.AttributeValue

	for {
		out, err := api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan table %s: %w", table, err)
		}

		for _, item := range out.Items {
			res.Scanned++

			next, ok := nextVersion(item)
			if !ok {
				res.Skipped++
				continue
			}

			if dryRun {
				res.Updated++
				continue
			}

			item["versionId"] = &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(next)}
			_, err := api.PutItem(ctx, &dynamodb.PutItemInput{
				TableName:           aws.String(table),
				Item:                item,
				ConditionExpression: aws.String("versionId < :value"),
				ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
					":value": &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(next)},
				},
			})
			if err != nil {
				var ccf *ddbtypes.ConditionalCheckFailedException
				if errors.As(err, &ccf) {
					slog.Warn("optimistic lock lost, skipping item", "table", table)
					res.Skipped++
					continue
				}
				return nil, fmt.Errorf("put item in %s: %w", table, err)
			}

			logItemUpdate(table, item, next)
			res.Updated++
		}

		if dryRun || out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return res, nil
}

// nextVersion reads the current versionId and returns the incremented value.
func nextVersion(item map[string]ddbtypes.AttributeValue) (int, bool) {
	attr, ok := item["versionId"]
	if !ok {
		return 0, false
	}
	n, ok := attr.(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	current, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, false
	}
	return current + 1, true
}

func logItemUpdate(table string, item map[string]ddbtypes.AttributeValue, version int) {
	var decoded map[string]any
	if err := attributevalue.UnmarshalMap(item, &decoded); err != nil {
		slog.Debug("updated item", "table", table, "versionId", version)
		return
	}
	slog.Debug("updated item", "table", table, "versionId", version, "item", decoded)
}

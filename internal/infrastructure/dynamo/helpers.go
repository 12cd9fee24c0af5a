package dynamo

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	submissionKeyAttr = "submission_key"
	expiresAtAttr     = "expires_at"
)

// claimCondition admits a put when no record exists or the stored one has
// passed its expiry. DynamoDB TTL deletion lags, so expiry is checked here too.
func claimCondition(now time.Time) (string, map[string]types.AttributeValue) {
	expr := "attribute_not_exists(" + submissionKeyAttr + ") OR " + expiresAtAttr + " < :now"
	values := map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
	}
	return expr, values
}

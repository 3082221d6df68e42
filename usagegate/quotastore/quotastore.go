package quotastore

import (
	"context"
	"strconv"
	"time"
)

// How long a cached quota hash lives without being touched. Refreshed on
// every increment so an actively-used entry does not expire mid-session.
const QuotaTTL = 5 * time.Minute

// Hash field names, as stored in the backing key-value store.
const (
	fieldTextGenerations       = "textGenerations"
	fieldImageGenerations      = "imageGenerations"
	fieldTotalTokens           = "totalTokens"
	fieldLimitTextGenerations  = "limitTextGenerations"
	fieldLimitImageGenerations = "limitImageGenerations"
	fieldLimitTokens           = "limitTokens"
	fieldPeriodStart           = "periodStart"
	fieldPeriodEnd             = "periodEnd"
)

// Usage counters and plan ceilings for one (org, user, period) aggregate.
//
// Counters only ever go up within a period; a new period gets a new key.
// Nil limits mean unlimited.
type QuotaRecord struct {
	TextGenerations       int64  `json:"textGenerations"`
	ImageGenerations      int64  `json:"imageGenerations"`
	TotalTokens           int64  `json:"totalTokens"`
	LimitTextGenerations  *int64 `json:"limitTextGenerations"`
	LimitImageGenerations *int64 `json:"limitImageGenerations"`
	LimitTokens           *int64 `json:"limitTokens"`
	PeriodStart           string `json:"periodStart"`
	PeriodEnd             string `json:"periodEnd"`
}

// Counter deltas for an increment. Zero fields are left untouched.
type Deltas struct {
	TextGenerations  int64
	ImageGenerations int64
	TotalTokens      int64
}

func (d Deltas) IsZero() bool {
	return d.TextGenerations == 0 && d.ImageGenerations == 0 && d.TotalTokens == 0
}

type QuotaStore interface {
	// Get returns nil (not an error) when the hash is absent or empty.
	Get(ctx context.Context, orgID, userID, period string) (*QuotaRecord, error)
	// Put writes every field of the record and sets the TTL on the whole key.
	Put(ctx context.Context, orgID, userID, period string, rec QuotaRecord) error
	// Increment atomically adds each non-zero delta to its counter field and
	// refreshes the key TTL. Must not be implemented as read-then-write.
	Increment(ctx context.Context, orgID, userID, period string, d Deltas) error
	Purge(ctx context.Context, orgID, userID, period string) error
}

// quotaKey is a pure function of its inputs. An empty userID means the
// aggregate is org-wide.
func quotaKey(orgID, userID, period string) string {
	who := userID
	if who == "" {
		who = "org"
	}
	return "quota:" + orgID + ":" + who + ":" + period
}

// parseQuotaFields rebuilds a record from raw hash fields, leniently: missing
// counters default to zero, missing limits to nil (unlimited). An empty map
// means the key was absent and reads as a miss.
func parseQuotaFields(fields map[string]string) *QuotaRecord {
	if len(fields) == 0 {
		return nil
	}
	rec := QuotaRecord{
		TextGenerations:       parseCounter(fields[fieldTextGenerations]),
		ImageGenerations:      parseCounter(fields[fieldImageGenerations]),
		TotalTokens:           parseCounter(fields[fieldTotalTokens]),
		LimitTextGenerations:  parseLimit(fields[fieldLimitTextGenerations]),
		LimitImageGenerations: parseLimit(fields[fieldLimitImageGenerations]),
		LimitTokens:           parseLimit(fields[fieldLimitTokens]),
		PeriodStart:           fields[fieldPeriodStart],
		PeriodEnd:             fields[fieldPeriodEnd],
	}
	return &rec
}

func parseCounter(raw string) int64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseLimit(raw string) *int64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

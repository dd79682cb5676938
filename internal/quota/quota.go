// Package quota tracks per-user daily AI generation counts in Redis. Each
// counter expires at the next UTC midnight, which replaces the scheduled
// reset job the platform used to run.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Subscription plans and their daily AI generation allowances.
const (
	PlanFree    = "free"
	PlanPro     = "pro"
	PlanPremium = "premium"
)

// LimitForPlan returns the daily AI generation allowance for a plan.
// Unknown plans get the free allowance.
func LimitForPlan(plan string) int {
	switch plan {
	case PlanPro:
		return 50
	case PlanPremium:
		return 100
	default:
		return 5
	}
}

// Keeper counts AI generations per user per UTC day.
type Keeper struct {
	client *redis.Client
}

func NewKeeper(client *redis.Client) *Keeper {
	return &Keeper{client: client}
}

func (k *Keeper) key(userID string, now time.Time) string {
	return fmt.Sprintf("ai_usage:%s:%s", userID, now.UTC().Format("2006-01-02"))
}

// Used returns how many generations the user has consumed today.
func (k *Keeper) Used(ctx context.Context, userID string) (int, error) {
	used, err := k.client.Get(ctx, k.key(userID, time.Now())).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return used, nil
}

// Record counts one successful generation. The first increment of the day
// schedules the counter to expire at the next UTC midnight.
func (k *Keeper) Record(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	key := k.key(userID, now)

	used, err := k.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if used == 1 {
		midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		if err := k.client.ExpireAt(ctx, key, midnight).Err(); err != nil {
			return err
		}
	}
	return nil
}

package ranking

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/minjaecho/commerce-pulse/pkg/enums"
	"github.com/minjaecho/commerce-pulse/pkg/redis"
)

const dayFormat = "20060102"

// Increments holds weighted score increments per leaderboard family,
// keyed by stringified product id.
type Increments struct {
	Like      map[string]float64
	View      map[string]float64
	Order     map[string]float64
	Composite map[string]float64
}

// IsEmpty reports whether the increments carry no scores at all.
func (i Increments) IsEmpty() bool {
	return len(i.Like) == 0 && len(i.View) == 0 && len(i.Order) == 0 && len(i.Composite) == 0
}

// Store wraps the Redis sorted sets backing the daily leaderboards.
type Store struct {
	client *redis.Client
}

// NewStore builds a ranking store on top of the shared Redis client.
func NewStore(client *redis.Client) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Store{client: client}, nil
}

// Key returns the leaderboard key for one family and day.
func (s *Store) Key(family enums.RankingType, date time.Time) string {
	return s.client.RankingKey(string(family), date.UTC().Format(dayFormat))
}

// ApplyIncrements pushes every non-zero increment into the day's sorted
// sets through one transactional pipeline and refreshes each touched
// key's TTL so idle leaderboards eventually expire.
func (s *Store) ApplyIncrements(ctx context.Context, date time.Time, inc Increments, ttl time.Duration) error {
	if inc.IsEmpty() {
		return nil
	}
	pipe, err := s.client.TxPipeline()
	if err != nil {
		return err
	}
	s.queueFamily(ctx, pipe, enums.RankingLike, date, inc.Like, ttl)
	s.queueFamily(ctx, pipe, enums.RankingView, date, inc.View, ttl)
	s.queueFamily(ctx, pipe, enums.RankingOrder, date, inc.Order, ttl)
	s.queueFamily(ctx, pipe, enums.RankingAll, date, inc.Composite, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) queueFamily(ctx context.Context, pipe goredis.Pipeliner, family enums.RankingType, date time.Time, scores map[string]float64, ttl time.Duration) {
	if len(scores) == 0 {
		return
	}
	key := s.Key(family, date)
	for member, score := range scores {
		if score == 0 {
			continue
		}
		pipe.ZIncrBy(ctx, key, score, member)
	}
	pipe.Expire(ctx, key, ttl)
}

// RankedProduct is one leaderboard row; Rank is 1-based.
type RankedProduct struct {
	ProductID string  `json:"productId"`
	Score     float64 `json:"score"`
	Rank      int64   `json:"rank"`
}

// TopN returns the highest-scored members of the day's leaderboard.
func (s *Store) TopN(ctx context.Context, family enums.RankingType, date time.Time, limit int) ([]RankedProduct, error) {
	return s.rangeByRank(ctx, family, date, 0, int64(limit)-1)
}

// Page returns one offset+limit window of the day's leaderboard.
func (s *Store) Page(ctx context.Context, family enums.RankingType, date time.Time, offset, limit int) ([]RankedProduct, error) {
	start := int64(offset)
	return s.rangeByRank(ctx, family, date, start, start+int64(limit)-1)
}

func (s *Store) rangeByRank(ctx context.Context, family enums.RankingType, date time.Time, start, stop int64) ([]RankedProduct, error) {
	rows, err := s.client.ZRevRangeWithScores(ctx, s.Key(family, date), start, stop)
	if err != nil {
		return nil, err
	}
	ranked := make([]RankedProduct, 0, len(rows))
	for i, row := range rows {
		member, _ := row.Member.(string)
		ranked = append(ranked, RankedProduct{
			ProductID: member,
			Score:     row.Score,
			Rank:      start + int64(i) + 1,
		})
	}
	return ranked, nil
}

// Lookup returns a single member's score and 1-based rank, or nil when
// the member is absent from the leaderboard.
func (s *Store) Lookup(ctx context.Context, family enums.RankingType, date time.Time, productID string) (*RankedProduct, error) {
	key := s.Key(family, date)
	score, err := s.client.ZScore(ctx, key, productID)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	rank, err := s.client.ZRevRank(ctx, key, productID)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return &RankedProduct{ProductID: productID, Score: score, Rank: rank + 1}, nil
}

// Count returns the number of ranked members for the day.
func (s *Store) Count(ctx context.Context, family enums.RankingType, date time.Time) (int64, error) {
	return s.client.ZCard(ctx, s.Key(family, date))
}

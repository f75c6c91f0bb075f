package network

import (
	"context"
	"os"
	"slices"

	"go.uber.org/zap"
)

// Localhost always heads the recommendation list
const Localhost = "localhost"

// RecommendationList is an ordered, duplicate-free list of server address suggestions
type RecommendationList []string

// Tiers holds addresses bucketed by preference
type Tiers struct {
	Physical []string // physical and not virtual
	Other    []string // neither physical nor virtual
	Virtual  []string // virtual, whether or not physical
}

// SortByPreference stable-sorts addresses by (not physical, virtual) so that
// physical non-virtual adapters come first and virtual ones last.
func SortByPreference(addrs []Address) []Address {
	sorted := slices.Clone(addrs)
	slices.SortStableFunc(sorted, func(a, b Address) int {
		if ka, kb := !a.IsPhysical, !b.IsPhysical; ka != kb {
			if !ka {
				return -1
			}
			return 1
		}
		if a.IsVirtual != b.IsVirtual {
			if !a.IsVirtual {
				return -1
			}
			return 1
		}
		return 0
	})
	return sorted
}

// Partition buckets addresses into tiers after sorting them by preference
func Partition(addrs []Address) Tiers {
	var t Tiers
	for _, a := range SortByPreference(addrs) {
		switch {
		case a.IsVirtual:
			t.Virtual = append(t.Virtual, a.Address)
		case a.IsPhysical:
			t.Physical = append(t.Physical, a.Address)
		default:
			t.Other = append(t.Other, a.Address)
		}
	}
	return t
}

// Recommend builds ["localhost", hostname] + physical + other, deduplicated.
// Virtual addresses are ranked but never recommended.
func Recommend(addrs []Address, hostname string) RecommendationList {
	t := Partition(addrs)

	all := make([]string, 0, 2+len(t.Physical)+len(t.Other))
	all = append(all, Localhost, hostname)
	all = append(all, t.Physical...)
	all = append(all, t.Other...)

	return dedupe(all)
}

func dedupe(values []string) RecommendationList {
	seen := make(map[string]bool, len(values))
	out := make(RecommendationList, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Recommender produces address suggestions for the operator from live system state
type Recommender struct {
	classifier *Classifier
	hostname   func() (string, error)
	logger     *zap.Logger
}

// NewRecommender creates a recommender using os.Hostname
func NewRecommender(classifier *Classifier, logger *zap.Logger) *Recommender {
	return &Recommender{
		classifier: classifier,
		hostname:   os.Hostname,
		logger:     logger,
	}
}

// Recommend never fails: any lookup error degrades to ["localhost"]
func (r *Recommender) Recommend(ctx context.Context) (RecommendationList, Tiers) {
	fallback := RecommendationList{Localhost}

	hostname, err := r.hostname()
	if err != nil {
		r.logger.Warn("Failed to look up hostname", zap.Error(err))
		return fallback, Tiers{}
	}

	addrs, err := r.classifier.Addresses(ctx)
	if err != nil {
		r.logger.Warn("Failed to enumerate network addresses", zap.Error(err))
		return fallback, Tiers{}
	}

	r.logger.Debug("Classified local addresses",
		zap.String("hostname", hostname),
		zap.Any("addresses", addrs))

	return Recommend(addrs, hostname), Partition(addrs)
}

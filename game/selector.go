package game

import (
	"context"
	"math/rand/v2"
)

// QuestionSource resolves question ids from collection and tag membership.
// Deleted questions are never returned.
type QuestionSource interface {
	QuestionIdsByCollections(ctx context.Context, collectionIds []int64) (map[int64][]int64, error)
	QuestionIdsByTags(ctx context.Context, tagIds []int64) ([]int64, error)
	AllQuestionIds(ctx context.Context) ([]int64, error)
}

type Selector struct {
	source  QuestionSource
	shuffle func([]int64)
}

func NewSelector(source QuestionSource) *Selector {
	return &Selector{source: source, shuffle: shuffleIds}
}

func shuffleIds(ids []int64) {
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
}

// Select resolves the question order of one game run. Running short of
// questions is not an error; the result is simply shorter.
func (s *Selector) Select(ctx context.Context, cfg GameConfig) ([]int64, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}

	if len(cfg.CollectionIds) == 0 && len(cfg.TagIds) == 0 {
		all, err := s.source.AllQuestionIds(ctx)
		if err != nil {
			return nil, err
		}
		return s.finalize(dedupe(all), cfg.TotalQuestions), nil
	}

	byCollection := map[int64][]int64{}
	if len(cfg.CollectionIds) > 0 {
		byCollection, err = s.source.QuestionIdsByCollections(ctx, cfg.CollectionIds)
		if err != nil {
			return nil, err
		}
	}
	var tagged []int64
	if len(cfg.TagIds) > 0 {
		tagged, err = s.source.QuestionIdsByTags(ctx, cfg.TagIds)
		if err != nil {
			return nil, err
		}
	}

	pool := make([]int64, 0)
	for _, cid := range cfg.CollectionIds {
		pool = append(pool, byCollection[cid]...)
	}
	pool = dedupe(append(pool, tagged...))

	picked := make([]int64, 0, cfg.TotalQuestions)
	seen := make(map[int64]struct{}, cfg.TotalQuestions)
	take := func(ids []int64, quota int) {
		candidates := make([]int64, 0, len(ids))
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				candidates = append(candidates, id)
			}
		}
		s.shuffle(candidates)
		for _, id := range candidates {
			if quota <= 0 || len(picked) >= cfg.TotalQuestions {
				return
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			picked = append(picked, id)
			quota--
		}
	}

	switch cfg.RatioStrategy {
	case Consistent:
		if len(cfg.CollectionIds) > 0 {
			share := cfg.TotalQuestions / len(cfg.CollectionIds)
			for _, cid := range cfg.CollectionIds {
				take(byCollection[cid], share)
			}
		}
	case Custom:
		for _, cid := range cfg.CollectionIds {
			take(byCollection[cid], cfg.CustomRatios[cid])
		}
	}

	// by_collection draws everything from here; the other strategies fill
	// their shortfall.
	take(pool, cfg.TotalQuestions-len(picked))

	return s.finalize(picked, cfg.TotalQuestions), nil
}

func (s *Selector) finalize(ids []int64, total int) []int64 {
	ids = dedupe(ids)
	s.shuffle(ids)
	if len(ids) > total {
		ids = ids[:total]
	}
	return ids
}

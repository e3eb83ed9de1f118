package game

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseQuestion Phase = "question"
	PhaseReveal   Phase = "reveal"
	PhaseFinished Phase = "finished"
)

// PowerUp is a joker a player may spend once per game.
type PowerUp string

const (
	FiftyFifty PowerUp = "fiftyFifty"
	Spy        PowerUp = "spy"
	Risk       PowerUp = "risk"
)

var powerUps = []PowerUp{FiftyFifty, Spy, Risk}

func (p PowerUp) Valid() bool {
	return slices.Contains(powerUps, p)
}

type RatioStrategy string

const (
	ByCollection RatioStrategy = "by_collection"
	Consistent   RatioStrategy = "consistent"
	Custom       RatioStrategy = "custom"
)

const (
	DefaultTotalQuestions = 30
	MaxTotalQuestions     = 200
)

// GameConfig describes which questions a game run draws from.
type GameConfig struct {
	CollectionIds  []int64       `json:"collectionIds"`
	TagIds         []int64       `json:"tagIds"`
	RatioStrategy  RatioStrategy `json:"ratioStrategy"`
	TotalQuestions int           `json:"totalQuestions"`
	CustomRatios   map[int64]int `json:"customRatios"`
}

func (c GameConfig) normalized() (GameConfig, error) {
	switch c.RatioStrategy {
	case "":
		c.RatioStrategy = ByCollection
	case ByCollection, Consistent, Custom:
	default:
		return c, fmt.Errorf("%w: unknown ratio strategy %q", ErrInvalidConfig, c.RatioStrategy)
	}

	if c.TotalQuestions <= 0 {
		c.TotalQuestions = DefaultTotalQuestions
	}
	c.TotalQuestions = min(c.TotalQuestions, MaxTotalQuestions)

	for id, n := range c.CustomRatios {
		if n < 0 {
			return c, fmt.Errorf("%w: negative ratio for collection %d", ErrInvalidConfig, id)
		}
	}

	// every collection with a custom ratio is drawn from, listed or not
	if c.RatioStrategy == Custom {
		c.CollectionIds = append(slices.Clone(c.CollectionIds), slices.Sorted(maps.Keys(c.CustomRatios))...)
	}
	c.CollectionIds = dedupe(c.CollectionIds)
	c.TagIds = dedupe(c.TagIds)
	return c, nil
}

type Settings struct {
	SimultaneousJokers bool `json:"simultaneousJokers"`
	QuestionSeconds    int  `json:"questionSeconds"`
	RevealSeconds      int  `json:"revealSeconds"`
}

const (
	minQuestionSeconds = 5
	maxQuestionSeconds = 300
	minRevealSeconds   = 1
	maxRevealSeconds   = 60
)

func DefaultSettings() Settings {
	return Settings{
		SimultaneousJokers: false,
		QuestionSeconds:    30,
		RevealSeconds:      5,
	}
}

// SettingsPatch carries the fields a host wants to change; nil fields are kept.
type SettingsPatch struct {
	SimultaneousJokers *bool `json:"simultaneousJokers"`
	QuestionSeconds    *int  `json:"questionSeconds"`
	RevealSeconds      *int  `json:"revealSeconds"`
}

func (s Settings) apply(patch SettingsPatch) (Settings, error) {
	if patch.SimultaneousJokers != nil {
		s.SimultaneousJokers = *patch.SimultaneousJokers
	}
	if patch.QuestionSeconds != nil {
		if *patch.QuestionSeconds < minQuestionSeconds || *patch.QuestionSeconds > maxQuestionSeconds {
			return s, fmt.Errorf("%w: questionSeconds must be within %d..%d", ErrInvalidSettings, minQuestionSeconds, maxQuestionSeconds)
		}
		s.QuestionSeconds = *patch.QuestionSeconds
	}
	if patch.RevealSeconds != nil {
		if *patch.RevealSeconds < minRevealSeconds || *patch.RevealSeconds > maxRevealSeconds {
			return s, fmt.Errorf("%w: revealSeconds must be within %d..%d", ErrInvalidSettings, minRevealSeconds, maxRevealSeconds)
		}
		s.RevealSeconds = *patch.RevealSeconds
	}
	return s, nil
}

func (s Settings) questionDuration() time.Duration {
	return time.Duration(s.QuestionSeconds) * time.Second
}

func (s Settings) revealDuration() time.Duration {
	return time.Duration(s.RevealSeconds) * time.Second
}

func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

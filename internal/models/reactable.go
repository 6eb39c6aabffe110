package models

import (
	"slices"
	"sort"
)

// ReactionState is the denormalised view of the Reaction documents that point
// at one reactable. It must satisfy:
//
//	Counts[T] == len(ByType[T])
//	IDs == union of ByType[T]
type ReactionState struct {
	Counts map[ReactionType]int      `bson:"reactionCounts" json:"reactionCounts"`
	IDs    []string                  `bson:"reactionIds" json:"reactionIds"`
	ByType map[ReactionType][]string `bson:"reactions" json:"reactions"`
}

// Reactable is implemented by every entity users can react to.
type Reactable interface {
	ReactableKind() SourceType
	ReactableID() string
	Reactions() *ReactionState
}

// NewReactionState returns an empty state with every type present at zero.
func NewReactionState() ReactionState {
	s := ReactionState{
		Counts: make(map[ReactionType]int, len(ReactionTypes)),
		IDs:    []string{},
		ByType: make(map[ReactionType][]string, len(ReactionTypes)),
	}
	for _, t := range ReactionTypes {
		s.Counts[t] = 0
		s.ByType[t] = []string{}
	}
	return s
}

// Add records reactionID under t. Adding an id already present is a no-op.
func (s *ReactionState) Add(t ReactionType, reactionID string) {
	s.ensure()
	if slices.Contains(s.IDs, reactionID) {
		return
	}
	s.IDs = append(s.IDs, reactionID)
	s.ByType[t] = append(s.ByType[t], reactionID)
	s.Counts[t]++
}

// Remove drops reactionID from t. It reports false when the id was not
// recorded under t, leaving the state untouched.
func (s *ReactionState) Remove(t ReactionType, reactionID string) bool {
	s.ensure()
	idx := slices.Index(s.ByType[t], reactionID)
	if idx < 0 {
		return false
	}
	s.ByType[t] = slices.Delete(s.ByType[t], idx, idx+1)
	s.IDs = slices.DeleteFunc(s.IDs, func(id string) bool { return id == reactionID })
	s.Counts[t]--
	return true
}

// Total is the sum of all counts.
func (s *ReactionState) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Consistent checks the invariants between the three views.
func (s *ReactionState) Consistent() bool {
	seen := make(map[string]struct{}, len(s.IDs))
	for t, ids := range s.ByType {
		if s.Counts[t] != len(ids) {
			return false
		}
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				return false
			}
			seen[id] = struct{}{}
		}
	}
	for t, c := range s.Counts {
		if c < 0 || len(s.ByType[t]) != c {
			return false
		}
	}
	if len(seen) != len(s.IDs) || s.Total() != len(s.IDs) {
		return false
	}
	for _, id := range s.IDs {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	return true
}

// RebuildReactionState derives the state from the canonical Reaction documents.
func RebuildReactionState(reactions []*Reaction) ReactionState {
	sorted := slices.Clone(reactions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	s := NewReactionState()
	for _, r := range sorted {
		s.Add(r.Type, r.ID)
	}
	return s
}

func (s *ReactionState) ensure() {
	if s.Counts == nil {
		s.Counts = make(map[ReactionType]int, len(ReactionTypes))
	}
	if s.ByType == nil {
		s.ByType = make(map[ReactionType][]string, len(ReactionTypes))
	}
}

// Clone returns a deep copy.
func (s ReactionState) Clone() ReactionState {
	out := ReactionState{
		Counts: make(map[ReactionType]int, len(s.Counts)),
		IDs:    slices.Clone(s.IDs),
		ByType: make(map[ReactionType][]string, len(s.ByType)),
	}
	for t, c := range s.Counts {
		out.Counts[t] = c
	}
	for t, ids := range s.ByType {
		out.ByType[t] = slices.Clone(ids)
	}
	if out.IDs == nil {
		out.IDs = []string{}
	}
	return out
}

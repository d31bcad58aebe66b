// Package tagger maps workout text to semantic tags using per-category
// keyword dictionaries. Two category families exist: modalities (CARDIO,
// STRENGTH), which are mutually exclusive per matching keyword, and muscle
// groups, which are many-to-many with workouts.
package tagger

import (
	"fmt"
	"strings"

	"github.com/claude/replog/internal/config"
	"github.com/claude/replog/internal/models"
)

type keywordSet map[string]struct{}

// Tagger holds the process-wide keyword dictionaries. They are seeded from
// config at startup, mutable only through the Add*Keyword operations, and
// never persisted: tags are recomputed by re-applying the dictionaries.
type Tagger struct {
	modality map[models.Modality]keywordSet
	muscle   map[models.MuscleGroup]keywordSet
}

// New builds a tagger from the configured keyword dictionaries. Keywords are
// lowercased on the way in; matching is substring containment on lowercased
// workout text.
func New(tags config.TagsConfig) *Tagger {
	t := &Tagger{
		modality: make(map[models.Modality]keywordSet),
		muscle:   make(map[models.MuscleGroup]keywordSet),
	}
	for name, keywords := range tags.Modalities {
		set := make(keywordSet, len(keywords))
		for _, kw := range keywords {
			set[strings.ToLower(kw)] = struct{}{}
		}
		t.modality[models.Modality(name)] = set
	}
	for name, keywords := range tags.MuscleGroups {
		set := make(keywordSet, len(keywords))
		for _, kw := range keywords {
			set[strings.ToLower(kw)] = struct{}{}
		}
		t.muscle[models.MuscleGroup(name)] = set
	}
	return t
}

// Suggest computes the auto-tag set for a workout: every keyword contained in
// the workout's lowercased name or exercise names contributes its category's
// tag. Manual overrides are never part of the result.
func (t *Tagger) Suggest(w *models.Workout) map[string]struct{} {
	text := w.SearchText()
	tags := make(map[string]struct{})
	for mod, keywords := range t.modality {
		for kw := range keywords {
			if strings.Contains(text, kw) {
				tags[string(mod)] = struct{}{}
				break
			}
		}
	}
	for group, keywords := range t.muscle {
		for kw := range keywords {
			if strings.Contains(text, kw) {
				tags[string(group)] = struct{}{}
				break
			}
		}
	}
	return tags
}

// Retag recomputes and replaces the auto-tag set of every given workout.
// Manual overrides are left untouched.
func (t *Tagger) Retag(workouts []*models.Workout) {
	for _, w := range workouts {
		w.AutoTags = t.Suggest(w)
	}
}

// modalitiesMatching returns the modalities whose keywords match the text.
func (t *Tagger) modalitiesMatching(text string) []models.Modality {
	var matched []models.Modality
	for mod, keywords := range t.modality {
		for kw := range keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, mod)
				break
			}
		}
	}
	return matched
}

// Conflict records one workout that would end up with two contradictory
// modality tags if a keyword insertion went through.
type Conflict struct {
	Workout  *models.Workout
	Resolved models.Modality
}

// ConflictError rejects a modality keyword insertion. The dictionary is
// unchanged and no workout was re-tagged.
type ConflictError struct {
	Keyword   string
	Modality  models.Modality
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	names := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		names[i] = fmt.Sprintf("%q (already %s)", c.Workout.Name, c.Resolved)
	}
	return fmt.Sprintf("keyword %q cannot join %s: conflicting workouts: %s",
		e.Keyword, e.Modality, strings.Join(names, ", "))
}

// AddModalityKeyword inserts a keyword into a modality's dictionary and
// re-tags the workouts the new keyword affects.
//
// Before committing, every existing workout whose text contains the keyword
// is checked: if any of them already resolves to a different modality, the
// whole operation is rejected with a ConflictError naming those workouts.
// Adding a keyword must never silently give a workout two modality tags.
func (t *Tagger) AddModalityKeyword(mod models.Modality, keyword string, existing []*models.Workout) error {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return fmt.Errorf("keyword must not be empty")
	}
	if _, ok := t.modality[mod]; !ok {
		t.modality[mod] = make(keywordSet)
	}
	if _, ok := t.modality[mod][kw]; ok {
		return nil // already present
	}

	var conflicts []Conflict
	for _, w := range existing {
		text := w.SearchText()
		if !strings.Contains(text, kw) {
			continue
		}
		for _, resolved := range t.modalitiesMatching(text) {
			if resolved != mod {
				conflicts = append(conflicts, Conflict{Workout: w, Resolved: resolved})
			}
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Keyword: kw, Modality: mod, Conflicts: conflicts}
	}

	t.modality[mod][kw] = struct{}{}
	for _, w := range existing {
		if strings.Contains(w.SearchText(), kw) {
			w.AutoTags = t.Suggest(w)
		}
	}
	return nil
}

// AddMuscleKeyword inserts a keyword into a muscle group's dictionary and
// re-tags every existing workout. Muscle groups carry no exclusivity
// constraint, so nothing can conflict.
func (t *Tagger) AddMuscleKeyword(group models.MuscleGroup, keyword string, existing []*models.Workout) error {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return fmt.Errorf("keyword must not be empty")
	}
	if _, ok := t.muscle[group]; !ok {
		t.muscle[group] = make(keywordSet)
	}
	t.muscle[group][kw] = struct{}{}
	t.Retag(existing)
	return nil
}

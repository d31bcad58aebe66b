package models

import (
	"fmt"
	"strings"
)

// Modality classifies how a workout is performed. Modalities are mutually
// exclusive per matching keyword: the tagger refuses dictionary changes that
// would give one workout two different modality tags.
type Modality string

const (
	ModalityCardio   Modality = "CARDIO"
	ModalityStrength Modality = "STRENGTH"
)

// MuscleGroup classifies which muscles a workout targets. Unlike modalities,
// muscle groups are many-to-many with workouts.
type MuscleGroup string

const (
	MuscleLegs           MuscleGroup = "LEGS"
	MuscleChest          MuscleGroup = "CHEST"
	MuscleBack           MuscleGroup = "BACK"
	MuscleShoulders      MuscleGroup = "SHOULDERS"
	MuscleArms           MuscleGroup = "ARMS"
	MuscleCore           MuscleGroup = "CORE"
	MusclePosteriorChain MuscleGroup = "POSTERIOR_CHAIN"
)

// ParseModality accepts a modality name case-insensitively.
func ParseModality(s string) (Modality, error) {
	switch Modality(strings.ToUpper(strings.TrimSpace(s))) {
	case ModalityCardio:
		return ModalityCardio, nil
	case ModalityStrength:
		return ModalityStrength, nil
	}
	return "", fmt.Errorf("unknown modality %q (want CARDIO or STRENGTH)", s)
}

// ParseMuscleGroup accepts a muscle group name case-insensitively.
func ParseMuscleGroup(s string) (MuscleGroup, error) {
	g := MuscleGroup(strings.ToUpper(strings.TrimSpace(s)))
	switch g {
	case MuscleLegs, MuscleChest, MuscleBack, MuscleShoulders,
		MuscleArms, MuscleCore, MusclePosteriorChain:
		return g, nil
	}
	return "", fmt.Errorf("unknown muscle group %q", s)
}

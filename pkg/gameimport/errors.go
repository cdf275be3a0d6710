package gameimport

import "errors"

var (
	// ErrRowCount is returned when the export body is not a whole number of
	// 14-row match groups. Detected before any writes.
	ErrRowCount = errors.New("row count is not a multiple of 14")
	// ErrSideAmbiguous is returned when both or neither team summary agrees
	// with the metadata result; the export is corrupt and sides are never
	// guessed.
	ErrSideAmbiguous = errors.New("cannot resolve ally side from team results")
	// ErrUnknownCharacter is returned when a sprite token resolves to no
	// catalog entry, even after patches.
	ErrUnknownCharacter = errors.New("unknown character")
	// ErrUnknownTeammate is returned when an ally pseudo is absent from the
	// club roster.
	ErrUnknownTeammate = errors.New("pseudo not in club roster")
	// ErrStorage marks a persistence failure rather than a rejected export,
	// so callers can report it as a server-side problem.
	ErrStorage = errors.New("storage failure")
)

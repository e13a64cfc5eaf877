package core

import (
	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

// Host is the editor window driving the core. All calls happen on the event
// goroutine.
type Host interface {
	SetTip(text string)
	Flash(text string)
	Dialogs() Dialogs
	Canvas() Canvas
}

// Dialogs are the modal pickers tools open. A false second result means the
// user cancelled.
type Dialogs interface {
	SelectHolePadstack(options []domain.Padstack) (uuid.UUID, bool)
	SelectBus(options []domain.Bus) (uuid.UUID, bool)
	SelectBusMember(bus domain.Bus) (uuid.UUID, bool)
	// SelectPart may accept with uuid.Nil to clear the part.
	SelectPart(options []domain.Part, current uuid.UUID) (uuid.UUID, bool)
}

// Canvas hands out overlay annotations.
type Canvas interface {
	CreateAnnotation() Annotation
	RemoveAnnotation(a Annotation)
}

// Annotation is temporary overlay geometry for an in-progress gesture.
type Annotation interface {
	SetVisible(visible bool)
	Clear()
	DrawLine(from, to domain.Coordi, width uint64)
}

// NopHost ignores tips and flashes and cancels every dialog.
type NopHost struct{}

func (NopHost) SetTip(string)    {}
func (NopHost) Flash(string)     {}
func (NopHost) Dialogs() Dialogs { return nopDialogs{} }
func (NopHost) Canvas() Canvas   { return nopCanvas{} }

type nopDialogs struct{}

func (nopDialogs) SelectHolePadstack([]domain.Padstack) (uuid.UUID, bool) { return uuid.Nil, false }
func (nopDialogs) SelectBus([]domain.Bus) (uuid.UUID, bool)               { return uuid.Nil, false }
func (nopDialogs) SelectBusMember(domain.Bus) (uuid.UUID, bool)           { return uuid.Nil, false }
func (nopDialogs) SelectPart([]domain.Part, uuid.UUID) (uuid.UUID, bool)  { return uuid.Nil, false }

type nopCanvas struct{}

func (nopCanvas) CreateAnnotation() Annotation { return nopAnnotation{} }
func (nopCanvas) RemoveAnnotation(Annotation)  {}

type nopAnnotation struct{}

func (nopAnnotation) SetVisible(bool)                               {}
func (nopAnnotation) Clear()                                        {}
func (nopAnnotation) DrawLine(domain.Coordi, domain.Coordi, uint64) {}

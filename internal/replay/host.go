// Package replay drives a core.Core from a parsed session script with a
// headless host that answers dialogs from a queue and records everything
// the tools show to the user.
package replay

import (
	"github.com/carrotIndustries/horizon/internal/core"
	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

type answer struct {
	id uuid.UUID
	ok bool
}

// Host implements core.Host without a window. Dialogs consume queued
// answers in order and cancel once the queue is empty.
type Host struct {
	answers []answer
	tips    []string
	flashes []string
	dialogs []string
	canvas  Canvas
}

// NewHost returns a host with an empty answer queue.
func NewHost() *Host { return &Host{} }

// Queue appends the answer for the next dialog. ok=false cancels it.
func (h *Host) Queue(id uuid.UUID, ok bool) {
	h.answers = append(h.answers, answer{id: id, ok: ok})
}

// Pending returns the number of unconsumed answers.
func (h *Host) Pending() int { return len(h.answers) }

// Tips returns every tip shown so far.
func (h *Host) Tips() []string { return append([]string(nil), h.tips...) }

// Flashes returns every flash message shown so far.
func (h *Host) Flashes() []string { return append([]string(nil), h.flashes...) }

// DialogCalls names the dialogs opened so far, in order.
func (h *Host) DialogCalls() []string { return append([]string(nil), h.dialogs...) }

// SetTip records text.
func (h *Host) SetTip(text string) { h.tips = append(h.tips, text) }

// Flash records text.
func (h *Host) Flash(text string) { h.flashes = append(h.flashes, text) }

// Dialogs returns the host itself.
func (h *Host) Dialogs() core.Dialogs { return h }

// Canvas returns the recording canvas.
func (h *Host) Canvas() core.Canvas { return &h.canvas }

func (h *Host) next(name string) (uuid.UUID, bool) {
	h.dialogs = append(h.dialogs, name)
	if len(h.answers) == 0 {
		return uuid.Nil, false
	}
	a := h.answers[0]
	h.answers = h.answers[1:]
	return a.id, a.ok
}

func (h *Host) SelectHolePadstack([]domain.Padstack) (uuid.UUID, bool) {
	return h.next("padstack")
}

func (h *Host) SelectBus([]domain.Bus) (uuid.UUID, bool) { return h.next("bus") }

func (h *Host) SelectBusMember(domain.Bus) (uuid.UUID, bool) { return h.next("bus_member") }

func (h *Host) SelectPart([]domain.Part, uuid.UUID) (uuid.UUID, bool) { return h.next("part") }

// Canvas keeps the annotations tools create.
type Canvas struct {
	live []*Annotation
	made int
}

// CreateAnnotation returns a new recording annotation.
func (c *Canvas) CreateAnnotation() core.Annotation {
	a := &Annotation{}
	c.live = append(c.live, a)
	c.made++
	return a
}

// RemoveAnnotation drops a from the live set.
func (c *Canvas) RemoveAnnotation(a core.Annotation) {
	for i, l := range c.live {
		if l == a {
			c.live = append(c.live[:i], c.live[i+1:]...)
			return
		}
	}
}

// Live returns the annotations not yet removed.
func (c *Canvas) Live() []*Annotation { return append([]*Annotation(nil), c.live...) }

// Created counts every annotation ever created.
func (c *Canvas) Created() int { return c.made }

// Segment is one line drawn on an annotation.
type Segment struct {
	From, To domain.Coordi
	Width    uint64
}

// Annotation records overlay drawing.
type Annotation struct {
	Visible  bool
	Segments []Segment
}

func (a *Annotation) SetVisible(v bool) { a.Visible = v }
func (a *Annotation) Clear()            { a.Segments = nil }
func (a *Annotation) DrawLine(from, to domain.Coordi, width uint64) {
	a.Segments = append(a.Segments, Segment{From: from, To: to, Width: width})
}

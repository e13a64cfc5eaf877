package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/carrotIndustries/horizon/pkg/domain"
	"github.com/google/uuid"
)

// Pool resolves library items referenced by documents.
type Pool interface {
	Padstacks() []domain.Padstack
	Padstack(id uuid.UUID) (domain.Padstack, error)
	Parts(entity uuid.UUID) []domain.Part
	Part(id uuid.UUID) (domain.Part, error)
}

// MemoryPool is a Pool held in memory.
type MemoryPool struct {
	padstacks map[uuid.UUID]domain.Padstack
	parts     map[uuid.UUID]domain.Part
}

type poolFile struct {
	Padstacks []domain.Padstack `json:"padstacks"`
	Parts     []domain.Part     `json:"parts"`
}

// NewMemoryPool builds a pool from explicit items.
func NewMemoryPool(padstacks []domain.Padstack, parts []domain.Part) *MemoryPool {
	p := &MemoryPool{
		padstacks: make(map[uuid.UUID]domain.Padstack, len(padstacks)),
		parts:     make(map[uuid.UUID]domain.Part, len(parts)),
	}
	for _, ps := range padstacks {
		p.padstacks[ps.UUID] = ps
	}
	for _, part := range parts {
		p.parts[part.UUID] = part
	}
	return p
}

// LoadMemoryPool decodes a JSON pool file of the form
// {"padstacks": [...], "parts": [...]}.
func LoadMemoryPool(r io.Reader) (*MemoryPool, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pool: %w", err)
	}
	var f poolFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode pool: %w", err)
	}
	return NewMemoryPool(f.Padstacks, f.Parts), nil
}

// Padstacks returns every padstack ordered by name.
func (p *MemoryPool) Padstacks() []domain.Padstack {
	out := make([]domain.Padstack, 0, len(p.padstacks))
	for _, ps := range p.padstacks {
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Padstack resolves id.
func (p *MemoryPool) Padstack(id uuid.UUID) (domain.Padstack, error) {
	ps, ok := p.padstacks[id]
	if !ok {
		return domain.Padstack{}, fmt.Errorf("padstack %q not found", id)
	}
	return ps, nil
}

// Parts returns the parts implementing entity ordered by MPN.
func (p *MemoryPool) Parts(entity uuid.UUID) []domain.Part {
	var out []domain.Part
	for _, part := range p.parts {
		if part.Entity == entity {
			out = append(out, part)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MPN < out[j].MPN })
	return out
}

// Part resolves id.
func (p *MemoryPool) Part(id uuid.UUID) (domain.Part, error) {
	part, ok := p.parts[id]
	if !ok {
		return domain.Part{}, fmt.Errorf("part %q not found", id)
	}
	return part, nil
}

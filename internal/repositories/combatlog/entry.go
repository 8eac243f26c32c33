package combatlog

import (
	"slices"
	"time"
)

// Entry is one recorded pipeline event
type Entry struct {
	ID         string
	MonsterID  string
	Type       string
	Node       string
	Mode       string
	Tags       []string
	PackValue  float64
	MeterValue float64
	MeterMax   float64
	CreatedAt  time.Time
}

// Data is the stored form of an Entry
type Data struct {
	ID         string    `json:"id"`
	MonsterID  string    `json:"monster_id"`
	Type       string    `json:"type"`
	Node       string    `json:"node"`
	Mode       string    `json:"mode,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	PackValue  float64   `json:"pack_value"`
	MeterValue float64   `json:"meter_value"`
	MeterMax   float64   `json:"meter_max"`
	CreatedAt  time.Time `json:"created_at"`
}

func toData(e *Entry) *Data {
	if e == nil {
		return nil
	}

	return &Data{
		ID:         e.ID,
		MonsterID:  e.MonsterID,
		Type:       e.Type,
		Node:       e.Node,
		Mode:       e.Mode,
		Tags:       slices.Clone(e.Tags),
		PackValue:  e.PackValue,
		MeterValue: e.MeterValue,
		MeterMax:   e.MeterMax,
		CreatedAt:  e.CreatedAt,
	}
}

func toEntry(data *Data) *Entry {
	if data == nil {
		return nil
	}

	return &Entry{
		ID:         data.ID,
		MonsterID:  data.MonsterID,
		Type:       data.Type,
		Node:       data.Node,
		Mode:       data.Mode,
		Tags:       slices.Clone(data.Tags),
		PackValue:  data.PackValue,
		MeterValue: data.MeterValue,
		MeterMax:   data.MeterMax,
		CreatedAt:  data.CreatedAt,
	}
}

func cloneEntry(e *Entry) *Entry {
	return toEntry(toData(e))
}

package models

import (
	"encoding/json"
	"fmt"
)

// CountRange представляет замкнутый диапазон количества выпадения
type CountRange struct {
	Min int `json:"min" validate:"min=0"`
	Max int `json:"max" validate:"gtefield=Min"`
}

// SingleCount - количество по умолчанию, ровно [1,1]
var SingleCount = CountRange{Min: 1, Max: 1}

// Contains проверяет входит ли n в диапазон
func (c CountRange) Contains(n int) bool {
	return n >= c.Min && n <= c.Max
}

// Scale умножает границы диапазона на границы другого диапазона (например, бросков пула)
func (c CountRange) Scale(by CountRange) CountRange {
	return CountRange{Min: c.Min * by.Min, Max: c.Max * by.Max}
}

// DropEntry представляет один возможный дроп таблицы
type DropEntry struct {
	Item       ItemReference `json:"item" validate:"required"`
	CountRange CountRange    `json:"count"`
}

// ExtractedLootTable представляет результат извлечения одной таблицы дропа
type ExtractedLootTable struct {
	SourceFile string
	Kind       string
	Outcome    Outcome[[]DropEntry]
}

// lootTableRecord - форма записи таблицы дропа в артефакте
type lootTableRecord struct {
	FromFile string          `json:"fromFile"`
	Type     string          `json:"type"`
	Ignored  bool            `json:"ignored,omitempty"`
	Error    bool            `json:"error,omitempty"`
	Message  string          `json:"message,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Drops    *[]DropEntry    `json:"drops,omitempty"`
}

// MarshalJSON реализует json.Marshaler
func (l ExtractedLootTable) MarshalJSON() ([]byte, error) {
	rec := lootTableRecord{FromFile: l.SourceFile, Type: l.Kind}
	switch l.Outcome.Status {
	case StatusOK:
		drops := l.Outcome.Value
		if drops == nil {
			drops = []DropEntry{}
		}
		rec.Drops = &drops
	case StatusIgnored:
		rec.Ignored = true
	case StatusError:
		rec.Error = true
		rec.Message = l.Outcome.Message
		rec.Data = l.Outcome.Payload
	default:
		return nil, fmt.Errorf("loot table %s: unknown outcome status %q", l.SourceFile, l.Outcome.Status)
	}
	return json.Marshal(rec)
}

// UnmarshalJSON реализует json.Unmarshaler
func (l *ExtractedLootTable) UnmarshalJSON(data []byte) error {
	var rec lootTableRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	l.SourceFile = rec.FromFile
	l.Kind = rec.Type
	switch {
	case rec.Error:
		l.Outcome = Outcome[[]DropEntry]{Status: StatusError, Message: rec.Message, Payload: CapturePayload(rec.Data)}
	case rec.Ignored:
		l.Outcome = Ignored[[]DropEntry]()
	default:
		if rec.Drops == nil {
			return fmt.Errorf("loot table %s: record has neither drops, ignored nor error", rec.FromFile)
		}
		l.Outcome = OK(*rec.Drops)
	}
	return nil
}

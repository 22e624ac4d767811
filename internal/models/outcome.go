package models

import (
	"bytes"
	"encoding/json"
)

// Status различает три исхода извлечения одной записи
type Status string

// Constants для статусов извлечения
const (
	StatusOK      Status = "ok"
	StatusIgnored Status = "ignored"
	StatusError   Status = "error"
)

// Outcome представляет результат извлечения одной записи: Ok(Value), Ignored или Error(Message, Payload)
type Outcome[T any] struct {
	Status  Status
	Value   T
	Message string
	Payload json.RawMessage
}

// OK создает успешный исход
func OK[T any](value T) Outcome[T] {
	return Outcome[T]{Status: StatusOK, Value: value}
}

// Ignored создает исход для намеренно неподдерживаемой записи
func Ignored[T any]() Outcome[T] {
	return Outcome[T]{Status: StatusIgnored}
}

// Failed создает исход с ошибкой; исходные данные сохраняются для диагностики
func Failed[T any](message string, raw []byte) Outcome[T] {
	return Outcome[T]{Status: StatusError, Message: message, Payload: CapturePayload(raw)}
}

// IsOK возвращает true для успешного исхода
func (o Outcome[T]) IsOK() bool { return o.Status == StatusOK }

// IsIgnored возвращает true для пропущенной записи
func (o Outcome[T]) IsIgnored() bool { return o.Status == StatusIgnored }

// IsError возвращает true для записи с ошибкой
func (o Outcome[T]) IsError() bool { return o.Status == StatusError }

// CapturePayload приводит исходные байты к канонической форме, которая переживает
// сериализацию без изменений: компактный JSON с экранированием HTML.
// Невалидный JSON сохраняется как JSON-строка.
func CapturePayload(raw []byte) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		quoted, _ := json.Marshal(string(raw))
		return quoted
	}
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, raw); err != nil {
		quoted, _ := json.Marshal(string(raw))
		return quoted
	}
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, compacted.Bytes())
	return escaped.Bytes()
}

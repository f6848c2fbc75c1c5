package service

import (
	"bytes"
	"encoding/json"
	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
	"strings"
)

// intentPayload is the JSON the assistant is prompted to produce
type intentPayload struct {
	Intent       flexString `json:"intent"`
	Answer       flexString `json:"answer"`
	NextQuestion flexString `json:"next_question"`
	Name         flexString `json:"name"`
	Phone        flexString `json:"phone"`
	Date         flexString `json:"date"`
	Comment      flexString `json:"comment"`
}

// flexString accepts JSON strings, numbers and booleans; null becomes empty.
// Assistants sometimes send phone numbers unquoted.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(data)
	}
	return nil
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }

// ParseIntent decodes an assistant reply.
// Text that is not a JSON object with a non-empty "intent" field is returned as models.Consult
// with the reply verbatim.
func ParseIntent(text string) models.Intent {
	var p intentPayload
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &p); err != nil || p.Intent.String() == "" {
		return models.Consult{Answer: text}
	}
	// Пока ассистент задаёт вопрос, заявка не завершена
	if p.NextQuestion.String() != "" {
		return models.NeedsMoreInfo{NextQuestion: p.NextQuestion.String()}
	}

	switch strings.ToLower(p.Intent.String()) {
	case "booking", "book":
		return models.Booking{
			Name:    p.Name.String(),
			Phone:   p.Phone.String(),
			Date:    p.Date.String(),
			Comment: p.Comment.String(),
		}
	case "needs_more_info", "need_more_info", "question", "clarify":
		return models.NeedsMoreInfo{NextQuestion: p.Answer.String()}
	case "consult":
		return models.Consult{Answer: p.Answer.String()}
	case "error":
		return models.ErrorIntent{Reason: p.Answer.String()}
	}

	// Неизвестный intent: отдаём то, что есть
	if p.Answer.String() != "" {
		return models.Consult{Answer: p.Answer.String()}
	}
	return models.Consult{Answer: text}
}

// stripCodeFence removes a surrounding ```json ... ``` block
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

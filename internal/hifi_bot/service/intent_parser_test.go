package service

import (
	"reflect"
	"testing"

	"github.com/DenisKhanov/HiFiBot/internal/hifi_bot/models"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Intent
	}{
		{
			name: "booking",
			text: `{"intent":"booking","name":"Ivan","phone":"+7900","date":"2024-06-01","comment":"tube amps"}`,
			want: models.Booking{Name: "Ivan", Phone: "+7900", Date: "2024-06-01", Comment: "tube amps"},
		},
		{
			name: "booking with numeric phone and missing comment",
			text: `{"intent":"booking","name":"Ivan","phone":79001234567,"date":"завтра"}`,
			want: models.Booking{Name: "Ivan", Phone: "79001234567", Date: "завтра"},
		},
		{
			name: "needs more info",
			text: `{"intent":"needs_more_info","next_question":"Как вас зовут?"}`,
			want: models.NeedsMoreInfo{NextQuestion: "Как вас зовут?"},
		},
		{
			name: "booking still asking for a field",
			text: `{"intent":"booking","name":"Ivan","next_question":"Ваш телефон?"}`,
			want: models.NeedsMoreInfo{NextQuestion: "Ваш телефон?"},
		},
		{
			name: "consult followed by a question",
			text: `{"intent":"consult","answer":"Есть в наличии","next_question":"Записать вас?"}`,
			want: models.NeedsMoreInfo{NextQuestion: "Записать вас?"},
		},
		{
			name: "needs more info with the question in answer",
			text: `{"intent":"needs_more_info","answer":"На какую дату?"}`,
			want: models.NeedsMoreInfo{NextQuestion: "На какую дату?"},
		},
		{
			name: "consult",
			text: `{"intent":"consult","answer":"Да, есть в наличии"}`,
			want: models.Consult{Answer: "Да, есть в наличии"},
		},
		{
			name: "assistant reported error",
			text: `{"intent":"error","answer":"не могу"}`,
			want: models.ErrorIntent{Reason: "не могу"},
		},
		{
			name: "code fence",
			text: "```json\n{\"intent\":\"consult\",\"answer\":\"ok\"}\n```",
			want: models.Consult{Answer: "ok"},
		},
		{
			name: "unknown intent with answer",
			text: `{"intent":"greeting","answer":"Здравствуйте!"}`,
			want: models.Consult{Answer: "Здравствуйте!"},
		},
		{
			name: "unknown intent with question",
			text: `{"intent":"greeting","next_question":"Чем помочь?"}`,
			want: models.NeedsMoreInfo{NextQuestion: "Чем помочь?"},
		},
		{
			name: "plain text",
			text: "Рекомендую послушать Sonus Faber",
			want: models.Consult{Answer: "Рекомендую послушать Sonus Faber"},
		},
		{
			name: "json without intent",
			text: `{"answer":"hi"}`,
			want: models.Consult{Answer: `{"answer":"hi"}`},
		},
		{
			name: "json array",
			text: `["booking"]`,
			want: models.Consult{Answer: `["booking"]`},
		},
		{
			name: "broken json",
			text: `{"intent":"booking",`,
			want: models.Consult{Answer: `{"intent":"booking",`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseIntent(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseIntent(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

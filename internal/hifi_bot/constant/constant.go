package constant

const (
	EMOJI_HEADPHONE = "\U0001F3A7"           //🎧
	EMOJI_WAVE      = "\U0001F44B"           //👋
	EMOJI_CHECK     = "\U00002705"           //✅
	EMOJI_GEAR      = "\U00002699\U0000FE0F" //⚙️
	EMOJI_LOUDSPKR  = "\U0001F4E2"           //📢
	EMOJI_PERSON    = "\U0001F464"           //👤
	EMOJI_PHONE     = "\U0001F4DE"           //📞
	EMOJI_CALENDAR  = "\U0001F4C5"           //📅
	EMOJI_SPEECH    = "\U0001F4AC"           //💬

	BUTTON_TEXT_BOOK    = "Записаться на прослушивание"
	BUTTON_TEXT_CONSULT = "Консультация"

	// BookingModeMarker is matched case-insensitively against the mode choice.
	BookingModeMarker = "прослуш"

	COMMAND_START  = "start"
	COMMAND_CANCEL = "cancel"
	COMMAND_HELP   = "help"
)

// Ответы пользователю
const (
	GreetingReply = "Привет! " + EMOJI_WAVE + " Я Hi-Fi ассистент.\nВыберите режим работы:"
	HelpReply     = "Задайте вопрос о Hi-Fi технике или напишите, что хотите записаться на прослушивание " + EMOJI_HEADPHONE +
		".\n/start - выбрать режим\n/cancel - отменить запись"
	AskNameReply     = "Отлично! Введите ваше имя:"
	AskPhoneReply    = "Введите номер телефона:"
	AskDateReply     = "Введите желаемую дату прослушивания:"
	AskCommentReply  = "Добавьте комментарий (модель, пожелания):"
	ConsultModeReply = "Задайте свой вопрос о Hi-Fi системах " + EMOJI_HEADPHONE
	CancelReply      = "Операция отменена."

	BookingAcceptedReply = EMOJI_CHECK + " Заявка принята! Мы свяжемся с вами."
	AssistantErrorReply  = EMOJI_GEAR + " Ошибка при обращении к ассистенту. Попробуйте ещё раз позже."
	EmptyAnswerReply     = "…"

	NotSpecified = "Не указано"

	HealthMessage = "HiFi Assistant Bot API working"
)

// StaffNotificationTemplate is rendered with name, phone, date and comment (Markdown).
const StaffNotificationTemplate = EMOJI_LOUDSPKR + " *Новая заявка на прослушивание!*\n\n" +
	EMOJI_PERSON + " Имя: %s\n" +
	EMOJI_PHONE + " Телефон: %s\n" +
	EMOJI_CALENDAR + " Дата: %s\n" +
	EMOJI_SPEECH + " Комментарий: %s"

// WizardSummaryTemplate is the utterance sent to the assistant when the onboarding is finished.
const WizardSummaryTemplate = "Хочу записаться на прослушивание.\nИмя: %s\nТелефон: %s\nДата: %s\nКомментарий: %s"

// AssistantInstructions is the system prompt for chat-completion providers.
// Hosted assistants keep an equivalent prompt on the provider side.
const AssistantInstructions = `Ты консультант Hi-Fi салона с комнатой для прослушивания.
Отвечай ТОЛЬКО одним JSON-объектом без пояснений и без markdown.
Форматы:
{"intent":"consult","answer":"<ответ на вопрос о технике>"}
{"intent":"needs_more_info","next_question":"<уточняющий вопрос>"}
{"intent":"booking","name":"<имя>","phone":"<телефон>","date":"<дата>","comment":"<комментарий>"}
Выбирай booking только когда известны имя, телефон и дата. Если чего-то не хватает, используй needs_more_info.`

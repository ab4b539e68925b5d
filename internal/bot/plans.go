package bot

// Plan is one Telegram Stars subscription tariff.
type Plan struct {
	ID          string
	Title       string
	Description string
	Stars       int
	Days        int
	Payload     string
	Label       string
}

// Plans are the purchasable tariffs, keyed by callback data.
var Plans = map[string]Plan{
	"plan_1month": {
		ID:          "plan_1month",
		Title:       "Подписка на Эмму (1 месяц)",
		Description: "Это идеальный старт для тех, кто хочет почувствовать мою поддержку и мотивацию. Я буду с тобой каждый день, помогая делать первые шаги к твоим целям и поддерживая вдохновение.",
		Stars:       250,
		Days:        30,
		Payload:     "emma_premium_1month",
		Label:       "Месячная подписка",
	},
	"plan_3months": {
		ID:          "plan_3months",
		Title:       "Подписка на Эмму (3 месяца)",
		Description: "Отличный выбор для тех, кто хочет стабильной и длительной поддержки. Я помогу не сбиться с курса, поддержу в трудные моменты и подскажу пути для достижения новых высот.",
		Stars:       600,
		Days:        90,
		Payload:     "emma_premium_3months",
		Label:       "Подписка на 3 месяца",
	},
	"plan_12months": {
		ID:          "plan_12months",
		Title:       "Подписка на Эмму (12 месяцев)",
		Description: "Этот тариф для тех, кто готов ко всесторонней работе и планирует двигаться к мечтам длительное время. Год моей поддержки и мотивации — вместе мы достигнем всего, что задумано.",
		Stars:       2000,
		Days:        365,
		Payload:     "emma_premium_12months",
		Label:       "Подписка на 12 месяцев",
	},
}

func planByPayload(payload string) (Plan, bool) {
	for _, p := range Plans {
		if p.Payload == payload {
			return p, true
		}
	}
	return Plan{}, false
}

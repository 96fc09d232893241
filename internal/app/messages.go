package app

// messages holds the user-facing hints the controller shows instead of raw
// backend text.
type messages struct {
	SubscriptionRequired string
}

var catalog = map[string]messages{
	"ru": {
		SubscriptionRequired: "Подписка не активна. Продлите подписку на месяц в блоке Billing.",
	},
	"en": {
		SubscriptionRequired: "Subscription is not active. Renew it for a month in the Billing section.",
	},
}

const defaultLocale = "ru"

func messagesFor(locale string) messages {
	if m, ok := catalog[locale]; ok {
		return m
	}
	return catalog[defaultLocale]
}

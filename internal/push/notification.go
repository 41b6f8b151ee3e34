// Package push fans a notification payload out to a user's registered
// delivery channels: Web Push endpoints (VAPID) and FCM device tokens.
// Subscriptions and tokens live in the Supabase-owned store; this package
// only reads them and talks to the providers.
package push

// Notification is the payload shown on the device. Every field is optional;
// empty fields fall back to the service defaults.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Icon  string `json:"icon"`
	Tag   string `json:"tag"`
}

// WithDefaults fills unset fields so a bare `{}` payload still renders a
// usable notification.
func (n Notification) WithDefaults() Notification {
	if n.Title == "" {
		n.Title = "Pediaê"
	}
	if n.Body == "" {
		n.Body = "Você tem uma atualização do seu pedido."
	}
	if n.URL == "" {
		n.URL = "/"
	}
	if n.Icon == "" {
		n.Icon = "/icons/icon-192x192.png"
	}
	if n.Tag == "" {
		n.Tag = "pediae"
	}
	return n
}

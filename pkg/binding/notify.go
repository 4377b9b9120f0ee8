package binding

import (
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/agentstation/homewire/pkg/realtime"
)

// Notification is a human-readable message about one change event, meant
// for a toast or a console line.
type Notification struct {
	Kind   realtime.EntityKind
	Action realtime.Action
	ID     int64
	Text   string
}

// Notifier displays notifications.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// LogNotifier writes notifications to a logger at INFO.
type LogNotifier struct {
	Logger *zerolog.Logger
}

// Notify logs n.
func (l LogNotifier) Notify(n Notification) {
	l.Logger.Info().
		Str("kind", n.Kind.String()).
		Str("action", n.Action.String()).
		Int64("id", n.ID).
		Msg(n.Text)
}

const (
	msgCreated = "New %s added"
	msgUpdated = "%s updated"
	msgDeleted = "%s deleted"
)

var entityNames = map[realtime.EntityKind]string{
	realtime.KindFlat:  "flat",
	realtime.KindHouse: "house",
}

var notifyCatalog = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	ru := map[string]string{
		msgCreated: "Добавлен новый %s",
		msgUpdated: "%s обновлен(а)",
		msgDeleted: "%s удален(а)",
		"flat":     "квартира",
		"house":    "дом",
		"record":   "запись",
	}
	for key, text := range ru {
		_ = b.SetString(language.Russian, key, text)
	}
	return b
}()

// Message returns the notification text for an action on a record of the
// given kind, in the supported language closest to tag.
func Message(kind realtime.EntityKind, action realtime.Action, tag language.Tag) string {
	tag = realtime.MatchLanguage(tag)
	p := message.NewPrinter(tag, message.Catalog(notifyCatalog))

	name, ok := entityNames[kind]
	if !ok {
		name = "record"
	}
	entity := p.Sprintf(name)

	switch action {
	case realtime.ActionCreate:
		return p.Sprintf(msgCreated, entity)
	case realtime.ActionUpdate:
		return p.Sprintf(msgUpdated, cases.Title(tag).String(entity))
	case realtime.ActionDelete:
		return p.Sprintf(msgDeleted, cases.Title(tag).String(entity))
	}
	return ""
}

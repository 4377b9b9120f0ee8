package realtime

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Languages with translated status text. The first entry is the fallback.
var Languages = []language.Tag{language.English, language.Russian}

var languageMatcher = language.NewMatcher(Languages)

type statusText struct {
	label       string
	description string
}

var statusTexts = map[Status]statusText{
	StatusConnected:    {"Connected", "Push channel connected. Data is updated in real time."},
	StatusConnecting:   {"Connecting...", "Connecting to the server..."},
	StatusDisconnected: {"Disconnected", "Push channel disconnected. Data may be out of date."},
	StatusError:        {"Error", "Connection error. Trying to reconnect..."},
}

var unknownStatus = statusText{"Unknown", "Unknown connection status"}

var statusCatalog = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	ru := map[string]string{
		"Connected":     "Подключено",
		"Connecting...": "Подключение...",
		"Disconnected":  "Отключено",
		"Error":         "Ошибка",
		"Unknown":       "Неизвестно",

		"Push channel connected. Data is updated in real time.": "WebSocket подключен. Данные обновляются в реальном времени.",
		"Connecting to the server...":                           "Подключение к серверу...",
		"Push channel disconnected. Data may be out of date.":   "WebSocket отключен. Данные могут быть неактуальны.",
		"Connection error. Trying to reconnect...":              "Ошибка подключения. Попытка переподключения...",
		"Unknown connection status":                             "Неизвестный статус подключения",
	}
	for key, text := range ru {
		_ = b.SetString(language.Russian, key, text)
	}
	return b
}()

// MatchLanguage returns the supported language closest to tag.
func MatchLanguage(tag language.Tag) language.Tag {
	_, idx, _ := languageMatcher.Match(tag)
	return Languages[idx]
}

func (s Status) text() statusText {
	if t, ok := statusTexts[s]; ok {
		return t
	}
	return unknownStatus
}

// Label returns a short human-readable name of the status in the language
// closest to tag.
func (s Status) Label(tag language.Tag) string {
	p := message.NewPrinter(MatchLanguage(tag), message.Catalog(statusCatalog))
	return p.Sprintf(s.text().label)
}

// Description returns a one-sentence explanation of the status in the
// language closest to tag.
func (s Status) Description(tag language.Tag) string {
	p := message.NewPrinter(MatchLanguage(tag), message.Catalog(statusCatalog))
	return p.Sprintf(s.text().description)
}

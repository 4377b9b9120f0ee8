package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/agentstation/homewire/pkg/logging"
	"github.com/agentstation/homewire/pkg/realtime"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		kind   realtime.EntityKind
		action realtime.Action
		tag    language.Tag
		want   string
	}{
		{realtime.KindFlat, realtime.ActionCreate, language.English, "New flat added"},
		{realtime.KindFlat, realtime.ActionUpdate, language.English, "Flat updated"},
		{realtime.KindHouse, realtime.ActionDelete, language.English, "House deleted"},
		{realtime.KindFlat, realtime.ActionCreate, language.Russian, "Добавлен новый квартира"},
		{realtime.KindFlat, realtime.ActionUpdate, language.Russian, "Квартира обновлен(а)"},
		{realtime.KindHouse, realtime.ActionDelete, language.MustParse("ru-RU"), "Дом удален(а)"},
		{realtime.KindHouse, realtime.ActionUpdate, language.French, "House updated"},
		{realtime.EntityKind("GARAGE"), realtime.ActionDelete, language.English, "Record deleted"},
		{realtime.KindFlat, realtime.Action("MOVE"), language.English, ""},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind)+"/"+string(tc.action)+"/"+tc.tag.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, Message(tc.kind, tc.action, tc.tag))
		})
	}
}

func TestNotifierFunc(t *testing.T) {
	var got Notification
	NotifierFunc(func(n Notification) { got = n }).Notify(Notification{Kind: realtime.KindFlat, ID: 3, Text: "x"})
	assert.Equal(t, int64(3), got.ID)
}

func TestLogNotifier(t *testing.T) {
	log := logging.NewTestLogger(t)
	LogNotifier{Logger: log.Logger}.Notify(Notification{
		Kind:   realtime.KindHouse,
		Action: realtime.ActionUpdate,
		ID:     12,
		Text:   "House updated",
	})
	log.AssertContains(t, "House updated")
	log.AssertContains(t, `"id":12`)
	log.AssertContains(t, `"kind":"HOUSE"`)
}

package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/homewire/pkg/errors"
)

func TestBuildFrame(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		action  string
		data    string
		want    string
		wantErr bool
	}{
		{"delete by id", "flat", "delete", "7", `{"type":"FLAT","action":"DELETE","data":7}`, false},
		{"create record", "HOUSE", "create", `{"id": 3, "name": "Tower"}`, `{"type":"HOUSE","action":"CREATE","data":{"id":3,"name":"Tower"}}`, false},
		{"unknown kind", "garage", "delete", "1", "", true},
		{"unknown action", "flat", "move", "1", "", true},
		{"non-numeric id", "flat", "delete", "seven", "", true},
		{"zero id", "flat", "delete", "0", "", true},
		{"record without id", "flat", "update", `{"name":"x"}`, "", true},
		{"record not json", "flat", "update", `{name}`, "", true},
		{"record not object", "flat", "update", `[1]`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildFrame(tt.kind, tt.action, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(frame))
		})
	}
}

func TestBuildFrameValidationError(t *testing.T) {
	_, err := BuildFrame("flat", "delete", "-1")
	var validationErr *errors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

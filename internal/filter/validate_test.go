package filter

import (
	"errors"
	"testing"

	"github.com/1ts-org/snipe/internal/message"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{name: "known fields", src: `sender = "alice" and class ~ /x/`},
		{name: "lookup name unchecked", src: `filter(nonesuch)`},
		{name: "boolean value", src: `personal = true`},
		{name: "unknown compare field", src: `flavor = "grape"`, wantErr: true},
		{name: "unknown match field", src: `flavor ~ /grape/`, wantErr: true},
		{name: "unknown field inside group", src: `yes and (no or flavor = "x")`, wantErr: true},
		{name: "non-boolean value for boolean field", src: `personal = "maybe"`, wantErr: true},
		{name: "bad regex", src: `class ~ /[unclosed/`, wantErr: true},
		{name: "bad raw expression", src: `{ not ( }`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, tt.src)
			err := Validate(f, message.KnownField)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%q) error = %v, wantErr %v", tt.src, err, tt.wantErr)
			}
			if err != nil {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("Validate(%q) error = %v, want *ValidationError", tt.src, err)
				}
			}
		})
	}
}

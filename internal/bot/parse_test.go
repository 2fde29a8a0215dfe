package bot

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"seat_tracker/internal/model"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{text: "/start", want: CommandStart},
		{text: "/START", want: CommandStart},
		{text: "/start@CentsSeatBot", want: CommandStart},
		{text: "  /uni  please", want: CommandUni},
		{text: "/home", want: CommandHome},
		{text: "/both", want: CommandBoth},
		{text: "/status now", want: CommandStatus},
		{text: "/Stop@SomeBot extra words", want: CommandStop},
		{text: "/help", want: CommandHelp},
		{text: "/add https://example.com", want: CommandUnknown},
		{text: "start", want: CommandUnknown},
		{text: "hello there", want: CommandUnknown},
		{text: "", want: CommandUnknown},
		{text: "   ", want: CommandUnknown},
		{text: "@/start", want: CommandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseCommand(tt.text)); diff != "" {
				t.Errorf("ParseCommand(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestCommandPreference(t *testing.T) {
	tests := []struct {
		cmd    Command
		want   model.Preference
		wantOK bool
	}{
		{cmd: CommandBoth, want: model.PreferenceBoth, wantOK: true},
		{cmd: CommandUni, want: model.PreferenceUni, wantOK: true},
		{cmd: CommandHome, want: model.PreferenceHome, wantOK: true},
		{cmd: CommandStart},
		{cmd: CommandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			got, ok := tt.cmd.Preference()
			if diff := cmp.Diff(tt.wantOK, ok); diff != "" {
				t.Errorf("ok mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("preference mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	for tok, cmd := range commands {
		if diff := cmp.Diff(tok, cmd.String()); diff != "" {
			t.Errorf("token mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(cmd, ParseCommand(cmd.String())); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
	if diff := cmp.Diff("unknown", CommandUnknown.String()); diff != "" {
		t.Errorf("unknown token mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("unknown", Command(99).String()); diff != "" {
		t.Errorf("out of range token mismatch (-want +got):\n%s", diff)
	}
}

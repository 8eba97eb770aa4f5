package core

import "testing"

func Test_CleanString(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		lower bool
		want  string
	}{
		{name: "trims whitespace", s: "  hello\t", want: "hello"},
		{name: "lowers when asked", s: " HeLLo ", lower: true, want: "hello"},
		{name: "keeps case by default", s: "HeLLo", want: "HeLLo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanString(tt.s, tt.lower); got != tt.want {
				t.Errorf("CleanString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_NormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "formatted local number", phone: "(11) 98888-7777", want: "5511988887777"},
		{name: "already prefixed", phone: "5511988887777", want: "5511988887777"},
		{name: "spaces and dashes", phone: "11 9 8888-7777", want: "5511988887777"},
		{name: "plus prefix", phone: "+55 11 98888-7777", want: "5511988887777"},
		{name: "empty", phone: "", want: ""},
		{name: "no digits", phone: "abc", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.phone, "55"); got != tt.want {
				t.Errorf("NormalizePhone() = %q, want %q", got, tt.want)
			}
		})
	}
}

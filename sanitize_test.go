package sanelog

import "testing"

func TestSanitizeLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no quotes untouched",
			in:   "{level:INFO,message:hello}",
			want: "{level:INFO,message:hello}",
		},
		{
			name: "structural quotes stripped",
			in:   `{"level":"INFO","message":"hello"}`,
			want: "{level:INFO,message:hello}",
		},
		{
			name: "escaped quotes collapse with their backslash",
			in:   `{"message":"saying \"hi\""}`,
			want: "{message:saying hi}",
		},
		{
			name: "escaped newline survives",
			in:   `{"message":"line one\nline two"}`,
			want: `{message:line one\nline two}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLine(tt.in); got != tt.want {
				t.Errorf("sanitizeLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

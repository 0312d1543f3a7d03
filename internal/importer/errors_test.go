package importer

import "testing"

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"Sheet 'Raw' not found."}`, "Sheet 'Raw' not found."},
		{"message string", `{"message":"bad input"}`, "bad input"},
		{"error string", `{"error":"boom"}`, "boom"},
		{"detail object with msg", `{"detail":{"msg":"field required","loc":["body","rows"]}}`, "field required (body.rows)"},
		{"detail list of objects", `{"detail":[{"msg":"a"},{"msg":"b"}]}`, "a; b"},
		{"detail list of strings", `{"detail":["first","second"]}`, "first; second"},
		{"detail precedence over error", `{"error":"late","detail":"early"}`, "early"},
		{"empty body", ``, FallbackErrorMessage},
		{"not json", `<html>502</html>`, FallbackErrorMessage},
		{"unknown keys", `{"status":"failed"}`, FallbackErrorMessage},
		{"empty detail", `{"detail":""}`, FallbackErrorMessage},
		{"numeric detail", `{"detail":42}`, FallbackErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractErrorMessage([]byte(tt.body), FallbackErrorMessage)
			if got != tt.want {
				t.Errorf("ExtractErrorMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

package proxy

import "testing"

func TestRewriteURIs(t *testing.T) {
	const (
		from = "shadow://doc1.py"
		to   = "notebook://doc1"
	)

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "single location",
			payload: `{"uri":"shadow://doc1.py","range":{"start":{"line":1,"character":0},"end":{"line":1,"character":5}}}`,
			want:    `{"uri":"notebook://doc1","range":{"start":{"line":1,"character":0},"end":{"line":1,"character":5}}}`,
		},
		{
			name:    "location array",
			payload: `[{"uri":"shadow://doc1.py"},{"uri":"file:///lib.py"},{"uri":"shadow://doc1.py"}]`,
			want:    `[{"uri":"notebook://doc1"},{"uri":"file:///lib.py"},{"uri":"notebook://doc1"}]`,
		},
		{
			name:    "location link shape",
			payload: `[{"targetUri":"shadow://doc1.py","targetRange":{"start":{"line":2,"character":0},"end":{"line":2,"character":1}}}]`,
			want:    `[{"targetUri":"notebook://doc1","targetRange":{"start":{"line":2,"character":0},"end":{"line":2,"character":1}}}]`,
		},
		{
			name:    "deeply nested custom shape",
			payload: `{"outer":{"inner":[{"meta":{"doc":"shadow://doc1.py"}}]}}`,
			want:    `{"outer":{"inner":[{"meta":{"doc":"notebook://doc1"}}]}}`,
		},
		{
			name:    "no match untouched",
			payload: `{"uri":"file:///other.py"}`,
			want:    `{"uri":"file:///other.py"}`,
		},
		{
			name:    "partial match is not rewritten",
			payload: `{"uri":"shadow://doc1.py.bak"}`,
			want:    `{"uri":"shadow://doc1.py.bak"}`,
		},
		{
			name:    "null result",
			payload: `null`,
			want:    `null`,
		},
		{
			name:    "malformed passes through",
			payload: `{"uri":"shadow://doc1.py"`,
			want:    `{"uri":"shadow://doc1.py"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewriteURIs([]byte(tt.payload), from, to)
			if string(got) != tt.want {
				t.Errorf("rewriteURIs = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRewriteURIs_IdentityNoChange(t *testing.T) {
	payload := `{"uri":"shadow://doc1.py"}`
	got := rewriteURIs([]byte(payload), "shadow://doc1.py", "shadow://doc1.py")
	if string(got) != payload {
		t.Errorf("identity rewrite changed payload: %s", got)
	}
}

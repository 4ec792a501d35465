package plaintext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  hello world ", "hello world"},
		{"tags stripped", "<em>ship</em> it", "ship it"},
		{"entities decoded", "fish &amp; chips", "fish & chips"},
		{"script dropped", "ok<script>alert(1)</script>", "ok"},
		{"nfc", "e\u0301", "\u00e9"},
		{"generics kept", "Use Map<K, V> or List<T> here", "Use Map<K, V> or List<T> here"},
		{"comparison kept", "retry while a < b and b > c", "retry while a < b and b > c"},
		{"arrows kept", "<- send, then <-chan int", "<- send, then <-chan int"},
		{"unclosed tag kept", "if x <b then", "if x <b then"},
		{"mixed", "<b>Vec<u8></b> is fine", "Vec<u8> is fine"},
		{"comment stripped", "a<!-- hidden -->b", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestNormalizeKeepsMarkup(t *testing.T) {
	require.Equal(t, "if a < b {}", Normalize("if a < b {}"))
}

func TestChars(t *testing.T) {
	require.Equal(t, 4, Chars(Clean("cafe\u0301")))
	require.Equal(t, 0, Chars(""))
}

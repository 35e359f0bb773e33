package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanContentStrings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain", "BT /F1 24 Tf (Hello) Tj ET", false},
		{"nested parens", "BT (a (b) c) Tj ET", false},
		{"escaped paren", `BT (a \) b) Tj ET`, false},
		{"dictionary", "/Span << /MCID 0 >> BDC (x) Tj EMC", false},
		{"hex", "BT <48656c6c6f> Tj ET", false},
		{"comment with paren", "% (not a string\nBT (x) Tj ET", false},
		{"open literal", "BT (Hello Tj ET", true},
		{"trailing escape", `BT (Hello\`, true},
		{"open hex", "BT <48656c Tj ET", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := scanContentStrings([]byte(tt.content))
			if tt.wantErr {
				require.ErrorIs(t, err, errUnterminatedString)
				return
			}
			require.NoError(t, err)
		})
	}
}

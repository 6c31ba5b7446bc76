package downloads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		fullName string
		want     string
	}{
		{
			name:     "punctuation stripped, spaces become underscores",
			title:    "New Era: Vol. 1!",
			fullName: "Jane O'Brien",
			want:     "New_Era_Vol_1_Jane_OBrien.pdf",
		},
		{
			name:     "plain inputs",
			title:    "Summer Issue",
			fullName: "Bob Smith",
			want:     "Summer_Issue_Bob_Smith.pdf",
		},
		{
			name:     "runs of whitespace collapse",
			title:    "  Annual   Report ",
			fullName: "A  B",
			want:     "Annual_Report_A_B.pdf",
		},
		{
			name:     "unicode and symbols dropped",
			title:    "Édition №7",
			fullName: "Zoë",
			want:     "dition_7_Zo.pdf",
		},
		{
			name:     "all stripped falls back",
			title:    "!!!",
			fullName: "???",
			want:     "magazine.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveFilename(tt.title, tt.fullName))
		})
	}
}

package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    string
		wantErr bool
	}{
		{name: "wrap", src: "<b>%s</b>", want: "<b>x</b>"},
		{name: "placeholder only", src: "%s", want: "x"},
		{name: "escaped percent", src: `<i style="width:100%%">%s</i>`, want: `<i style="width:100%">x</i>`},
		{name: "stray percent kept", src: "%d %s", want: "%d x"},
		{name: "trailing percent", src: "%s %", want: "x %"},
		{name: "no placeholder", src: "<b></b>", wantErr: true},
		{name: "two placeholders", src: "%s %s", wantErr: true},
		{name: "escaped placeholder is literal", src: "%%s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseTemplate(tt.src)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrPlaceholderCount)
				var terr *TemplateError
				require.ErrorAs(t, err, &terr)
				assert.Equal(t, tt.src, terr.Template)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tmpl.Render("x"))
		})
	}
}

func TestTemplate_StringRoundTrip(t *testing.T) {
	src := `<i style="width:100%%">%s</i>`
	tmpl := MustTemplate(src)
	assert.Equal(t, src, tmpl.String())
}

func TestMustTemplate_Panics(t *testing.T) {
	assert.Panics(t, func() { MustTemplate("none") })
}

package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Index int
	Query string
}

func TestCompileExecute(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "fields",
			tmpl: "{{ .Index }}: {{ .Query }}",
			data: row{Index: 1, Query: "villa roma"},
			want: "1: villa roma",
		},
		{
			name: "shell quoted",
			tmpl: "casa search {{ shq .Query }}",
			data: row{Query: "l'attico"},
			want: `casa search 'l'\''attico'`,
		},
		{
			name: "shell quoted empty",
			tmpl: "{{ shq .Query }}",
			data: row{},
			want: "''",
		},
		{
			name: "truncate",
			tmpl: "{{ trunc 5 .Query }}",
			data: row{Query: "appartamento"},
			want: "appa…",
		},
		{
			name: "truncate short string untouched",
			tmpl: "{{ .Query | trunc 20 }}",
			data: row{Query: "casa"},
			want: "casa",
		},
		{
			name: "case",
			tmpl: "{{ upper .Query }} {{ lower .Query }}",
			data: row{Query: "Mare"},
			want: "MARE mare",
		},
		{
			name:    "missing map key",
			tmpl:    "{{ .Nope }}",
			data:    map[string]string{"Query": "casa"},
			wantErr: true,
		},
		{
			name:    "unknown struct field",
			tmpl:    "{{ .Nope }}",
			data:    row{},
			wantErr: true,
		},
		{
			name:    "parse error",
			tmpl:    "{{ .Query ",
			data:    row{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			tpl, err := Compile(tt.tmpl)
			if err == nil {
				got, err = tpl.Execute(tt.data)
			}
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Reuse(t *testing.T) {
	tpl, err := Compile("{{ .Index }}={{ .Query }}")
	require.NoError(t, err)

	for i, q := range []string{"casa", "mare"} {
		got, err := tpl.Execute(row{Index: i + 1, Query: q})
		require.NoError(t, err)
		assert.Equal(t, []string{"1=casa", "2=mare"}[i], got)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "…", truncate(1, "casa"))
	assert.Equal(t, "casa", truncate(0, "casa"))
	assert.Equal(t, "cà…", truncate(3, "càsa"))
}

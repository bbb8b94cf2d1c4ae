package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformPackages(t *testing.T) {
	base := []string{
		"application.symbols",
		"baseapplication.symbols",
		"systemapplication.symbols",
		"platform.symbols",
	}
	withBusinessFoundation := append(append([]string{}, base...), "businessfoundation.symbols")

	tests := []struct {
		name    string
		version string
		want    []string
		wantErr bool
	}{
		{name: "current platform includes business foundation", version: "26.0", want: withBusinessFoundation},
		{name: "version 24 is the business foundation cutover", version: "24.0", want: withBusinessFoundation},
		{name: "version 23 predates business foundation", version: "23.5", want: base},
		{name: "bare major version", version: "25", want: withBusinessFoundation},
		{name: "four part platform version", version: "26.0.38974.0", want: withBusinessFoundation},
		{name: "empty version", version: "", wantErr: true},
		{name: "garbage version", version: "not-a-version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlatformPackages(tt.version)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid platform version")
				return
			}
			require.NoError(t, err)

			patterns := make([]string, 0, len(got))
			for _, pp := range got {
				patterns = append(patterns, pp.Pattern)
				assert.NotEmpty(t, pp.Description)
			}
			assert.Equal(t, tt.want, patterns)
		})
	}
}

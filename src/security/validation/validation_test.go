package validation

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFloatString(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"   ", 0, false},
		{"1.105", 1.105, false},
		{" -20.5 ", -20.5, false},
		{"abc", 0, true},
		{"1,5", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateFloatString(tt.in, "entry")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDirection(t *testing.T) {
	for in, want := range map[string]string{"": "", "long": "long", " SHORT ": "short", "Long": "long"} {
		got, err := ValidateDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ValidateDirection("sideways")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateStringMaxLength(t *testing.T) {
	assert.NoError(t, ValidateStringMaxLength("żółw", 4, "instrument"))
	assert.ErrorIs(t, ValidateStringMaxLength("żółwi", 4, "instrument"), ErrValidationFailed)
}

func TestValidateImageContent(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	r := bytes.NewReader(png)

	ct, err := ValidateImageContent(r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	// The reader is rewound for the caller.
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, png, rest)

	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	ct, err = ValidateImageContent(bytes.NewReader(jpeg))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)
}

func TestValidateImageContentRejects(t *testing.T) {
	_, err := ValidateImageContent(strings.NewReader("<html><script>alert(1)</script></html>"))
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateImageContent(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateImageContent(nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "EURUSD", SanitizeText("<b>EURUSD</b>"))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, "plain note", SanitizeText("plain note"))
	assert.Equal(t, "S&P500", SanitizeText("S&P500"))
	assert.Equal(t, `R:R > 2 & "clean" entry`, SanitizeText(`R:R > 2 & "clean" entry`))
	assert.Equal(t, "a < b", SanitizeText("a < b<i></i>"))
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	assert.Equal(t, "'=SUM(A1:A2)", SanitizeForFormulaInjection("=SUM(A1:A2)"))
	assert.Equal(t, "'  +1", SanitizeForFormulaInjection("  +1"))
	assert.Equal(t, "'@cmd", SanitizeForFormulaInjection("@cmd"))
	assert.Equal(t, "EURUSD", SanitizeForFormulaInjection("EURUSD"))
	assert.Equal(t, "", SanitizeForFormulaInjection(""))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "a\tb\nc", StripUnprintable("a\tb\x00\nc\x07"))
}

func TestSecureFilename(t *testing.T) {
	tests := map[string]string{
		"chart.png":            "chart.png",
		"my chart  v2.png":     "my_chart_v2.png",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\shot.jpg`: "shot.jpg",
		".hidden.png":          "hidden.png",
		"<>|?*":                "screenshot",
		"":                     "screenshot",
	}
	for in, want := range tests {
		assert.Equal(t, want, SecureFilename(in), in)
	}
}

package ascol

import (
	"fmt"
	"testing"

	"dk154mock/pkg/hardware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Command
		err      error
	}{
		{name: "Pointing", input: "TSRA 120000.0 -300000.0 0", expected: Command{Code: TSRA, Args: []string{"120000.0", "-300000.0", "0"}}},
		{name: "No arguments", input: "TERS", expected: Command{Code: TERS, Args: []string{}}},
		{name: "Extra whitespace", input: "  SHOP\t1  ", expected: Command{Code: SHOP, Args: []string{"1"}}},
		{name: "Login without password", input: "GLLG", expected: Command{Code: GLLG, Args: []string{}}},
		{name: "Login with password", input: "GLLG secret", expected: Command{Code: GLLG, Args: []string{"secret"}}},
		{name: "Empty", input: "", err: ErrFrame},
		{name: "Blank", input: "   ", err: ErrFrame},
		{name: "Unknown", input: "XXXX", err: ErrUnknownCommand},
		{name: "Lower case", input: "ters", err: ErrUnknownCommand},
		{name: "Too few arguments", input: "TSRA 120000.0", err: ErrFrame},
		{name: "Too many arguments", input: "TERS 1", err: ErrFrame},
		{name: "Missing argument", input: "WASP", err: ErrFrame},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := Parse(tc.input)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cmd)
		})
	}
}

func TestEveryCodeHasArity(t *testing.T) {
	for code := range meteo {
		assert.True(t, code.Known(), "meteo code %s", code)
	}
	for _, code := range []Code{TSRA, TGRA, WASP, WAGP, WBSP, WBGP} {
		assert.True(t, code.RequiresLogin(), "%s", code)
	}
	assert.False(t, TERS.RequiresLogin())
	assert.False(t, TEON.RequiresPower())
	assert.True(t, TERS.RequiresPower())
}

func TestErrorToken(t *testing.T) {
	assert.Equal(t, "ERR[FRAME]", ErrorToken(fmt.Errorf("x: %w", ErrFrame)))
	assert.Equal(t, "ERR[UNKNOWN]", ErrorToken(ErrUnknownCommand))
	assert.Equal(t, "ERR[POWER]", ErrorToken(ErrPowerOff))
	assert.Equal(t, "ERR[LOGIN]", ErrorToken(ErrLoginRequired))
	assert.Equal(t, "ERR", ErrorToken(hardware.ErrNotSet))
	assert.Equal(t, "ERR", ErrorToken(hardware.ErrNotImplemented))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "1 ---", Encode("1", "---"))
	assert.Equal(t, "-50.00", Encode("-50.00"))
	assert.Equal(t, "", Encode())
}

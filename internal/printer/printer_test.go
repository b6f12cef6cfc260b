package printer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	restore := SetOutput(out, errOut)
	t.Cleanup(func() {
		restore()
		color.NoColor = prev
	})
	return out, errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		assert.Equal(t, "Test Error\n\nThis is a test error\n", errOut.String())
		assert.True(t, IsReported(err))
		assert.True(t, IsReported(fmt.Errorf("wrapped: %w", err)))
		assert.False(t, IsReported(errors.New("plain")))
	})

	t.Run("single suggestion is printed plainly", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		assert.True(t, strings.HasSuffix(errOut.String(), "\nTry this fix\n"))
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{"First option", "Second option"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	_, errOut := capture(t)
	context := map[string]string{
		"Config":  "setgame.yml",
		"Address": "localhost:6379",
	}
	err := ErrorWithContext("Test Error", "", context, nil)
	require.Equal(t, "Test Error", err.Error())
	assert.Equal(t, "Test Error\n\n\n  Address: localhost:6379\n  Config: setgame.yml\n", errOut.String())
}

func TestMessages(t *testing.T) {
	out, _ := capture(t)
	Success("created %s\n", "setgame.yml")
	Warning("careful\n")
	Step("dealing\n")
	Info("plain %d\n", 1)
	assert.Equal(t, "✓ created setgame.yml\n⚠️  careful\n→ dealing\nplain 1\n", out.String())
}

func TestScoreboard(t *testing.T) {
	out, _ := capture(t)
	Scoreboard([]string{"ann", "bob", "carol"}, []int{2, 5, 5}, []int{1, 2})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Player   Sets", lines[0])
	assert.Equal(t, "bob         5  🏆", lines[1])
	assert.Equal(t, "carol       5  🏆", lines[2])
	assert.Equal(t, "ann         2", lines[3])
}

package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testTarget struct {
	threshold int
	name      string
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		target := &testTarget{}
		err := Apply[*testTarget](target,
			NoError(func(c *testTarget) { c.threshold = 10 }),
			NoError(func(c *testTarget) { c.threshold *= 2 }),
			NoError(func(c *testTarget) { c.name = "pair" }),
		)

		require.NoError(t, err)
		require.Equal(t, 20, target.threshold)
		require.Equal(t, "pair", target.name)
	})

	t.Run("stops at first error", func(t *testing.T) {
		target := &testTarget{}
		err := Apply[*testTarget](target,
			New(func(c *testTarget) error { return errors.New("rejected") }),
			NoError(func(c *testTarget) { c.name = "unreachable" }),
		)

		require.EqualError(t, err, "rejected")
		require.Empty(t, target.name)
	})

	t.Run("skips nil options", func(t *testing.T) {
		target := &testTarget{}
		require.NoError(t, Apply[*testTarget](target, nil))
	})
}

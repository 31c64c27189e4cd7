package block

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{Audio, "Audio"},
		{Video, "Video"},
		{Subtitle, "Subtitle"},
		{None, "None"},
		{Kind(99), "Unknown"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.kind.String())
	}
}

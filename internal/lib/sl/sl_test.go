package sl_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
)

func TestErr_ReturnsCorrectAttr(t *testing.T) {
	attr := sl.Err(errors.New("card declined"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("card declined"), attr.Value)
}

func TestErr_NilError(t *testing.T) {
	assert.NotPanics(t, func() {
		attr := sl.Err(nil)
		assert.Equal(t, "<nil>", attr.Value.String())
	})
}

func TestMember(t *testing.T) {
	attr := sl.Member(42)
	assert.Equal(t, "member_id", attr.Key)
	assert.Equal(t, int64(42), attr.Value.Int64())
}
